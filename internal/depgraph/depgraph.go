// Package depgraph orders modules for semantic analysis by their import
// edges, so a module is analyzed after the modules it imports.
package depgraph

import (
	"sort"
	"strings"

	"github.com/phobologic/catcheck/internal/pyast"
)

// Edge is one import relationship: Source imports Target.
type Edge struct {
	Source string
	Target string
}

// BuildEdges creates module-to-module edges from each module's import
// bindings. Imports of modules outside the analyzed set produce no edge.
// Edges are deduplicated and sorted for determinism.
func BuildEdges(mods []*pyast.Module) []Edge {
	known := make(map[string]struct{}, len(mods))
	for _, m := range mods {
		known[m.Name] = struct{}{}
	}

	seen := map[Edge]struct{}{}
	var edges []Edge
	for _, m := range mods {
		for _, full := range m.Imports {
			target, ok := resolveModule(known, full)
			if !ok || target == m.Name {
				continue
			}
			e := Edge{Source: m.Name, Target: target}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return edges
}

// resolveModule maps an imported fullname to the longest known module
// prefix: "pets.cats.Cat" matches module "pets.cats" when analyzed.
func resolveModule(known map[string]struct{}, full string) (string, bool) {
	name := full
	for {
		if _, ok := known[name]; ok {
			return name, true
		}
		i := strings.LastIndex(name, ".")
		if i < 0 {
			return "", false
		}
		name = name[:i]
	}
}

// Order returns the modules sorted so that imports come before importers.
// Ties break by module name; modules stuck in an import cycle are appended
// in name order after everything else.
func Order(mods []*pyast.Module) []*pyast.Module {
	byName := make(map[string]*pyast.Module, len(mods))
	names := make([]string, 0, len(mods))
	for _, m := range mods {
		byName[m.Name] = m
		names = append(names, m.Name)
	}
	sort.Strings(names)

	edges := BuildEdges(mods)
	indegree := make(map[string]int, len(mods))
	dependents := make(map[string][]string, len(mods))
	for _, e := range edges {
		indegree[e.Source]++
		dependents[e.Target] = append(dependents[e.Target], e.Source)
	}

	var ready []string
	for _, name := range names {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	ordered := make([]*pyast.Module, 0, len(mods))
	placed := make(map[string]struct{}, len(mods))
	for len(ready) > 0 {
		sort.Strings(ready)
		name := ready[0]
		ready = ready[1:]
		ordered = append(ordered, byName[name])
		placed[name] = struct{}{}
		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	// Cycles: whatever never reached indegree zero.
	for _, name := range names {
		if _, ok := placed[name]; !ok {
			ordered = append(ordered, byName[name])
		}
	}
	return ordered
}
