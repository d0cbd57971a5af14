// Package catcheck teaches a typed-Python analyzer the Cat structuring
// convention: a class decorated with the Cat marker gains struc (build an
// instance from a dict), try_struc (the fallible variant), and unstruc
// (convert an instance back to a dict). The members exist only in the
// analyzer's model; this package injects their signatures so callers
// type-check, while the runtime behavior stays with the convention's
// library.
package catcheck

import (
	"github.com/phobologic/catcheck/internal/attrs"
	"github.com/phobologic/catcheck/internal/pynodes"
	"github.com/phobologic/catcheck/internal/pytypes"
	"github.com/phobologic/catcheck/internal/semanal"
)

// The three members every Cat class gains.
const (
	StrucName    = "struc"
	TryStrucName = "try_struc"
	UnstrucName  = "unstruc"
)

// DefaultMarkers are the decorator paths recognized as the Cat marker: the
// convention's public import path and its defining module.
var DefaultMarkers = []string{"typecats.Cat", "typecats.tc.Cat"}

// Plugin injects the synthetic Cat members during semantic analysis.
type Plugin struct {
	version string
	hooks   map[string]semanal.ClassHook
}

// New is the registration factory the host calls with its version string.
func New(version string) *Plugin {
	return NewWithMarkers(version, DefaultMarkers...)
}

// NewWithMarkers creates a plugin recognizing the given decorator paths
// instead of DefaultMarkers.
func NewWithMarkers(version string, markers ...string) *Plugin {
	p := &Plugin{
		version: version,
		hooks:   make(map[string]semanal.ClassHook, len(markers)),
	}
	for _, m := range markers {
		p.hooks[m] = p.decorateCatClass
	}
	return p
}

// ClassDecoratorHook implements semanal.Plugin: a pure lookup that returns
// the injection callback for configured markers and nil for everything
// else.
func (p *Plugin) ClassDecoratorHook(fullname string) semanal.ClassHook {
	return p.hooks[fullname]
}

// decorateCatClass runs once per analysis of a marked class. A Cat is also
// an attribute class, so the host's attribute-class synthesis runs first;
// the three synthetic members are additive on top of it. Each injection is
// guarded by a presence check, which both makes re-analysis idempotent and
// keeps hand-written members intact.
func (p *Plugin) decorateCatClass(ctx *semanal.ClassDefContext) {
	attrs.Transform(ctx)

	info := ctx.Cls.Info
	dictType := ctx.API.NamedType("builtins.dict",
		ctx.API.NamedType("builtins.str"), pytypes.Any{})

	if _, ok := info.Names[StrucName]; !ok {
		addStaticMethod(ctx, StrucName,
			[]*pynodes.Argument{posArg("d", dictType)},
			pytypes.FillTypeVars(info))
	}
	if _, ok := info.Names[TryStrucName]; !ok {
		addStaticMethod(ctx, TryStrucName,
			[]*pynodes.Argument{posArg("d", dictType)},
			pytypes.FillTypeVars(info))
	}
	if _, ok := info.Names[UnstrucName]; !ok {
		semanal.AddMethod(ctx, UnstrucName, nil, dictType)
	}
}

func posArg(name string, t pytypes.Type) *pynodes.Argument {
	return &pynodes.Argument{
		Var:        &pynodes.Var{Name: name, Type: t},
		Annotation: t,
		Kind:       pytypes.ArgPos,
	}
}
