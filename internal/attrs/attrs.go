// Package attrs implements the analyzer's attribute-class synthesis: classes
// following the declarative fields convention get their __init__ derived
// from the annotated class-level attributes.
package attrs

import (
	"fmt"

	"github.com/phobologic/catcheck/internal/pynodes"
	"github.com/phobologic/catcheck/internal/pytypes"
	"github.com/phobologic/catcheck/internal/semanal"
)

const initName = "__init__"

// markers are the decorator paths that make a class an attribute class on
// their own.
var markers = map[string]bool{
	"attr.s":       true,
	"attr.attrs":   true,
	"attrs.define": true,
	"attrs.frozen": true,
}

// Plugin triggers attribute-class synthesis for plainly decorated classes.
// Other plugins whose conventions build on the attribute-class one call
// Transform directly instead.
type Plugin struct{}

// NewPlugin returns the analyzer's built-in attrs plugin.
func NewPlugin() *Plugin { return &Plugin{} }

// ClassDecoratorHook implements semanal.Plugin.
func (p *Plugin) ClassDecoratorHook(fullname string) semanal.ClassHook {
	if !markers[fullname] {
		return nil
	}
	return func(ctx *semanal.ClassDefContext) { Transform(ctx) }
}

// Transform synthesizes __init__ from the class's declared fields, in
// declaration order. Fields with defaults become optional arguments. An
// unannotated field is diagnosed and skipped. Reports whether __init__ was
// added; a hand-written __init__ is left alone.
func Transform(ctx *semanal.ClassDefContext) bool {
	info := ctx.Cls.Info

	var args []*pynodes.Argument
	sawDefault := false
	for _, stmt := range ctx.Cls.Body {
		field, ok := stmt.(*pynodes.AssignStmt)
		if !ok {
			continue
		}
		if field.Annotation == nil {
			ctx.API.Fail(fmt.Sprintf("attrs field %q of %s needs a type annotation", field.Name, info.Name), field.Line)
			continue
		}
		if field.HasValue {
			sawDefault = true
		} else if sawDefault {
			ctx.API.Fail(fmt.Sprintf("attrs field %q without a default follows a field with one", field.Name), field.Line)
		}
		kind := pytypes.ArgPos
		if field.HasValue {
			kind = pytypes.ArgOpt
		}
		args = append(args, &pynodes.Argument{
			Var:        &pynodes.Var{Name: field.Name, Type: field.Annotation},
			Annotation: field.Annotation,
			Kind:       kind,
		})
	}

	return semanal.AddMethod(ctx, initName, args, pytypes.None{})
}
