// Package semanal implements the semantic pass: it turns parsed modules into
// class records with resolved member types, and drives plugin hooks for
// decorated classes.
package semanal

import (
	"fmt"
	"strings"

	"github.com/phobologic/catcheck/internal/pyast"
	"github.com/phobologic/catcheck/internal/pynodes"
	"github.com/phobologic/catcheck/internal/pytypes"
)

// Diagnostic is one user-visible analyzer message.
type Diagnostic struct {
	File string
	Line int
	Msg  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s", d.File, d.Line, d.Msg)
}

// ClassHook is a plugin callback invoked with the class under analysis.
type ClassHook func(*ClassDefContext)

// Plugin is the extension surface the analyzer offers. ClassDecoratorHook
// must be a pure function of the decorator's fully-qualified name: it
// returns a callback for classes decorated with a marker the plugin cares
// about, or nil.
type Plugin interface {
	ClassDecoratorHook(fullname string) ClassHook
}

// API is the analyzer surface exposed to hooks.
type API interface {
	// NamedType returns an instance of the named class, creating a
	// placeholder record for names the analyzer has not seen.
	NamedType(fullname string, args ...pytypes.Type) *pytypes.Instance
	// Fail reports a diagnostic against the file currently under analysis.
	Fail(msg string, line int)
}

// ClassDefContext is the mutable class-definition context handed to a hook
// for the duration of one invocation.
type ClassDefContext struct {
	Cls *pynodes.ClassDef
	// Reason is the decorator fullname that triggered the hook.
	Reason string
	API    API
}

// ModuleInfo holds the analysis results for one module.
type ModuleInfo struct {
	Name    string
	Path    string
	Classes map[string]*pynodes.TypeInfo
	// ClassOrder lists class names in definition order.
	ClassOrder []string
}

// Analyzer runs the semantic pass. It is not safe for concurrent use; the
// host processes one module at a time.
type Analyzer struct {
	plugins  []Plugin
	builtins map[string]*pynodes.TypeInfo
	classes  map[string]*pynodes.TypeInfo
	modules  map[string]*ModuleInfo
	diags    []Diagnostic
	curFile  string
}

// New creates an Analyzer with the given plugins registered.
func New(plugins ...Plugin) *Analyzer {
	return &Analyzer{
		plugins:  plugins,
		builtins: newBuiltins(),
		classes:  map[string]*pynodes.TypeInfo{},
		modules:  map[string]*ModuleInfo{},
	}
}

// Diagnostics returns the messages collected so far, in emission order.
func (a *Analyzer) Diagnostics() []Diagnostic { return a.diags }

// Module returns the analysis results for a module by dotted name.
func (a *Analyzer) Module(name string) *ModuleInfo { return a.modules[name] }

// NamedType implements API.
func (a *Analyzer) NamedType(fullname string, args ...pytypes.Type) *pytypes.Instance {
	return &pytypes.Instance{Class: a.classInfo(fullname), Args: args}
}

// Fail implements API.
func (a *Analyzer) Fail(msg string, line int) {
	a.diags = append(a.diags, Diagnostic{File: a.curFile, Line: line, Msg: msg})
}

// LookupClass resolves a fully-qualified class name to its record. It has
// the pytypes.ClassResolver shape used when deserializing cached state.
func (a *Analyzer) LookupClass(fullname string) (pytypes.Class, bool) {
	if info, ok := a.builtins[fullname]; ok {
		return info, true
	}
	if info, ok := a.classes[fullname]; ok {
		return info, true
	}
	return nil, false
}

// classInfo looks the name up in builtins and analyzed classes, creating a
// bare placeholder record for anything unknown so NamedType is total.
func (a *Analyzer) classInfo(fullname string) *pynodes.TypeInfo {
	if info, ok := a.builtins[fullname]; ok {
		return info
	}
	if info, ok := a.classes[fullname]; ok {
		return info
	}
	short := fullname
	if i := strings.LastIndex(fullname, "."); i >= 0 {
		short = fullname[i+1:]
	}
	info := &pynodes.TypeInfo{
		Name:     short,
		FullName: fullname,
		Names:    pynodes.SymbolTable{},
	}
	a.classes[fullname] = info
	return info
}

// AnalyzeModule builds class records for every class in the module and runs
// any matching plugin hooks. Re-analyzing a module reuses the existing
// records, so hook effects must be idempotent.
func (a *Analyzer) AnalyzeModule(mod *pyast.Module) *ModuleInfo {
	a.curFile = mod.Path

	// Re-analysis re-runs the hooks, which re-report the same failures;
	// replacing the file's prior diagnostics keeps the collected set stable
	// across incremental runs.
	kept := a.diags[:0]
	for _, d := range a.diags {
		if d.File != mod.Path {
			kept = append(kept, d)
		}
	}
	a.diags = kept

	mi := a.modules[mod.Name]
	if mi == nil {
		mi = &ModuleInfo{Name: mod.Name, Path: mod.Path, Classes: map[string]*pynodes.TypeInfo{}}
		a.modules[mod.Name] = mi
	}

	// First pass: register shells so same-module references resolve
	// regardless of definition order. A record that already exists as a
	// placeholder (referenced through a cyclic import before this module was
	// analyzed) is adopted rather than recreated.
	for _, cn := range mod.Classes {
		fqn := mod.Name + "." + cn.Name
		info := a.classes[fqn]
		if info == nil {
			info = &pynodes.TypeInfo{
				Name:     cn.Name,
				FullName: fqn,
				Names:    pynodes.SymbolTable{},
			}
			a.classes[fqn] = info
		}
		if info.File == "" {
			info.File = mod.Path
			info.Line = cn.Line
		}
		if _, ok := mi.Classes[cn.Name]; !ok {
			mi.Classes[cn.Name] = info
			mi.ClassOrder = append(mi.ClassOrder, cn.Name)
		}
	}

	// Second pass: fill in each class and dispatch hooks.
	for _, cn := range mod.Classes {
		a.buildClass(mod, cn, a.classes[mod.Name+"."+cn.Name])
	}
	return mi
}

func (a *Analyzer) buildClass(mod *pyast.Module, cn *pyast.ClassNode, info *pynodes.TypeInfo) {
	if info.Defn != nil {
		// Already built in a previous pass over the same module; only the
		// hooks re-run, guarded by their own presence checks.
		a.runHooks(info.Defn)
		return
	}

	// Type parameters come from a Generic[...] base and must be declared
	// before field annotations are resolved.
	var baseExprs []*pyast.TypeExpr
	for _, base := range cn.Bases {
		if a.resolveName(mod, base.Name) == "typing.Generic" {
			for i, arg := range base.Args {
				if !mod.TypeVars[arg.Name] {
					a.Fail(fmt.Sprintf("%q is not a declared type variable", arg.Name), cn.Line)
					continue
				}
				info.TypeVars = append(info.TypeVars, pytypes.TypeVarDef{
					Name:     arg.Name,
					FullName: mod.Name + "." + arg.Name,
					ID:       i + 1,
				})
			}
			continue
		}
		baseExprs = append(baseExprs, base)
	}

	for _, base := range baseExprs {
		if inst, ok := a.resolveType(mod, info, base).(*pytypes.Instance); ok {
			info.Bases = append(info.Bases, inst)
		}
	}
	if len(info.Bases) == 0 {
		info.Bases = append(info.Bases, a.NamedType("builtins.object"))
	}

	defn := &pynodes.ClassDef{
		Name: cn.Name,
		Info: info,
		Line: cn.Line,
	}
	for _, dec := range cn.Decorators {
		defn.Decorators = append(defn.Decorators, a.resolveName(mod, dec))
	}
	info.Defn = defn

	for _, field := range cn.Fields {
		var fieldType pytypes.Type
		if field.Annotation != nil {
			fieldType = a.resolveType(mod, info, field.Annotation)
		}
		defn.Body = append(defn.Body, &pynodes.AssignStmt{
			Name:       field.Name,
			Annotation: fieldType,
			HasValue:   field.HasDefault,
			Line:       field.Line,
		})
		info.Names[field.Name] = &pynodes.SymbolTableNode{
			Kind: pynodes.MemberDef,
			Node: &pynodes.Var{
				Name:     field.Name,
				FullName: info.FullName + "." + field.Name,
				Type:     fieldType,
				Line:     field.Line,
			},
		}
	}

	for _, m := range cn.Methods {
		def := a.buildMethod(mod, info, m)
		defn.Body = append(defn.Body, def)
		info.Names[m.Name] = &pynodes.SymbolTableNode{Kind: pynodes.MemberDef, Node: def}
	}

	a.runHooks(defn)
}

func (a *Analyzer) buildMethod(mod *pyast.Module, info *pynodes.TypeInfo, m *pyast.MethodNode) *pynodes.FuncDef {
	isStatic := false
	for _, dec := range m.Decorators {
		if dec == "staticmethod" {
			isStatic = true
		}
	}

	args := make([]*pynodes.Argument, 0, len(m.Params))
	for i, p := range m.Params {
		var annotation pytypes.Type
		switch {
		case p.Annotation != nil:
			annotation = a.resolveType(mod, info, p.Annotation)
		case i == 0 && !isStatic && (p.Name == "self" || p.Name == "cls"):
			annotation = pytypes.FillTypeVars(info)
		default:
			annotation = pytypes.Any{}
		}
		kind := pytypes.ArgPos
		if p.HasDefault {
			kind = pytypes.ArgOpt
		}
		args = append(args, &pynodes.Argument{
			Var:        &pynodes.Var{Name: p.Name, Type: annotation},
			Annotation: annotation,
			Kind:       kind,
		})
	}

	var ret pytypes.Type = pytypes.Any{}
	if m.Return != nil {
		ret = a.resolveType(mod, info, m.Return)
	}

	fqn := info.FullName + "." + m.Name
	sig := &pytypes.Callable{
		Ret:      ret,
		Fallback: a.NamedType("builtins.function"),
		Name:     fqn,
	}
	for _, arg := range args {
		sig.ArgTypes = append(sig.ArgTypes, arg.Annotation)
		sig.ArgKinds = append(sig.ArgKinds, arg.Kind)
		sig.ArgNames = append(sig.ArgNames, arg.Var.Name)
	}

	return &pynodes.FuncDef{
		Name:     m.Name,
		FullName: fqn,
		Args:     args,
		Body:     &pynodes.Block{Stmts: []pynodes.Statement{&pynodes.PassStmt{Line: m.Line}}},
		Type:     sig,
		Info:     info,
		IsStatic: isStatic,
		Line:     m.Line,
	}
}

func (a *Analyzer) runHooks(defn *pynodes.ClassDef) {
	for _, dec := range defn.Decorators {
		for _, p := range a.plugins {
			if hook := p.ClassDecoratorHook(dec); hook != nil {
				hook(&ClassDefContext{Cls: defn, Reason: dec, API: a})
			}
		}
	}
}

// resolveName expands a locally written name to a fully-qualified one using
// the module's import bindings.
func (a *Analyzer) resolveName(mod *pyast.Module, name string) string {
	head, rest, dotted := strings.Cut(name, ".")
	if full, ok := mod.Imports[head]; ok {
		if dotted {
			return full + "." + rest
		}
		return full
	}
	if dotted {
		return name
	}
	if mod.TypeVars[name] {
		return mod.Name + "." + name
	}
	if _, ok := a.builtins["builtins."+name]; ok {
		return "builtins." + name
	}
	// Unqualified and not imported: assume module-local.
	return mod.Name + "." + name
}

// resolveType turns an annotation expression into an analyzer type. cls
// provides the type-variable scope and may be nil outside a class body.
func (a *Analyzer) resolveType(mod *pyast.Module, cls *pynodes.TypeInfo, e *pyast.TypeExpr) pytypes.Type {
	if e == nil {
		return pytypes.Any{}
	}
	if e.Name == "None" {
		return pytypes.None{}
	}
	if cls != nil {
		for _, tv := range cls.TypeVars {
			if tv.Name == e.Name {
				return &pytypes.TypeVar{Name: tv.Name, FullName: tv.FullName, ID: tv.ID}
			}
		}
	}

	full := a.resolveName(mod, e.Name)
	switch full {
	case "typing.Any":
		return pytypes.Any{}
	case "typing.Optional":
		if len(e.Args) == 1 {
			return a.resolveType(mod, cls, e.Args[0])
		}
		return pytypes.Any{}
	case "typing.Union":
		for _, arg := range e.Args {
			if arg.Name != "None" {
				return a.resolveType(mod, cls, arg)
			}
		}
		return pytypes.None{}
	case "typing.Dict", "typing.Mapping", "typing.MutableMapping":
		full = "builtins.dict"
	case "typing.List", "typing.Sequence", "typing.Iterable":
		full = "builtins.list"
	case "typing.Set", "typing.FrozenSet":
		full = "builtins.set"
	case "typing.Tuple":
		full = "builtins.tuple"
	case "typing.Text":
		full = "builtins.str"
	}

	args := make([]pytypes.Type, 0, len(e.Args))
	for _, arg := range e.Args {
		args = append(args, a.resolveType(mod, cls, arg))
	}
	return a.NamedType(full, args...)
}
