package catcheck

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/phobologic/catcheck/internal/attrs"
	"github.com/phobologic/catcheck/internal/cache"
	"github.com/phobologic/catcheck/internal/depgraph"
	"github.com/phobologic/catcheck/internal/discover"
	"github.com/phobologic/catcheck/internal/pyast"
	"github.com/phobologic/catcheck/internal/semanal"
)

// Runner drives a whole analysis: discover Python files under a root, parse
// them, analyze modules in import order with the registered plugins, and
// persist synthesized members to the incremental cache.
type Runner struct {
	root    string
	cfg     *Config
	log     *slog.Logger
	plugins []semanal.Plugin
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithConfig overrides the configuration loaded from the root's config
// file.
func WithConfig(cfg *Config) RunnerOption {
	return func(r *Runner) { r.cfg = cfg }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(log *slog.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// WithPlugins replaces the default plugin set (attrs synthesis plus the Cat
// plugin built from the configured markers).
func WithPlugins(plugins ...semanal.Plugin) RunnerOption {
	return func(r *Runner) { r.plugins = plugins }
}

// Result is the outcome of one analysis run.
type Result struct {
	// Analyzer holds the analyzed modules and class records.
	Analyzer *semanal.Analyzer
	// Diagnostics are the user-visible messages, in emission order.
	Diagnostics []semanal.Diagnostic
	// Files lists the analyzed repo-relative paths.
	Files []string
}

// NewRunner creates a Runner for the project at root.
func NewRunner(root string, opts ...RunnerOption) (*Runner, error) {
	r := &Runner{root: root, log: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if r.cfg == nil {
		cfg, err := LoadConfig(filepath.Join(root, DefaultConfigFile))
		if err != nil {
			return nil, err
		}
		r.cfg = cfg
	}
	if r.plugins == nil {
		r.plugins = []semanal.Plugin{
			attrs.NewPlugin(),
			NewWithMarkers("catcheck", r.cfg.Markers...),
		}
	}
	return r, nil
}

// Run performs the analysis.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	files, err := discover.Files(r.root, r.cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no Python files found under %s", r.root)
	}
	r.log.Debug("discovered files", "count", len(files))

	mods, err := r.parseAll(ctx, files)
	if err != nil {
		return nil, err
	}

	an := semanal.New(r.plugins...)
	for _, mod := range depgraph.Order(mods) {
		an.AnalyzeModule(mod)
	}

	if r.cfg.Cache != "" {
		if err := r.saveCache(an, mods); err != nil {
			r.log.Warn("saving cache failed", "error", err)
		}
	}

	return &Result{
		Analyzer:    an,
		Diagnostics: an.Diagnostics(),
		Files:       files,
	}, nil
}

// parseAll parses the files concurrently. Each goroutine owns its parser;
// tree-sitter parsers are not thread-safe.
func (r *Runner) parseAll(ctx context.Context, files []string) ([]*pyast.Module, error) {
	mods := make([]*pyast.Module, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rel := range files {
		i, rel := i, rel
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			source, err := os.ReadFile(filepath.Join(r.root, rel))
			if err != nil {
				return fmt.Errorf("reading %s: %w", rel, err)
			}
			mod, err := pyast.ParseModule(pyast.NewParser(), rel, source)
			if err != nil {
				return err
			}
			mods[i] = mod
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mods, nil
}

// saveCache serializes every plugin-generated member of every analyzed
// class into the incremental cache file.
func (r *Runner) saveCache(an *semanal.Analyzer, mods []*pyast.Module) error {
	c := cache.New(filepath.Join(r.root, r.cfg.Cache))
	if err := c.Load(); err != nil {
		return err
	}
	for _, mod := range mods {
		mi := an.Module(mod.Name)
		if mi == nil {
			continue
		}
		for _, clsName := range mi.ClassOrder {
			info := mi.Classes[clsName]
			for member, entry := range info.Names {
				if !entry.PluginGenerated {
					continue
				}
				rec, err := SerializeMember(info, member)
				if err != nil {
					return err
				}
				c.Put(info.FullName, member, rec)
			}
		}
	}
	if err := c.Save(); err != nil {
		return err
	}
	r.log.Debug("cache saved", "records", c.Len())
	return nil
}
