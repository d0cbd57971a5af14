package catcheck

import (
	"fmt"

	"github.com/phobologic/catcheck/internal/pynodes"
	"github.com/phobologic/catcheck/internal/pytypes"
	"github.com/phobologic/catcheck/internal/semanal"
)

// addStaticMethod synthesizes a member attached to the type itself,
// invocable without an instance. Mostly parallel to semanal.AddMethod, with
// no self argument and the static flag set. The skeletal body is a single
// pass statement; the analyzer only ever reads the signature. The member
// lands in both the class's member table and its definition body, flagged
// plugin-generated, at the class's own file/line so diagnostics and
// go-to-definition stay coherent.
func addStaticMethod(ctx *semanal.ClassDefContext, name string, args []*pynodes.Argument, ret pytypes.Type) bool {
	info := ctx.Cls.Info
	fqn := info.FullName + "." + name

	sig := &pytypes.Callable{
		Ret:      ret,
		Fallback: ctx.API.NamedType("builtins.function"),
		Name:     fqn,
	}
	for _, arg := range args {
		if arg.Annotation == nil {
			// A plugin-authoring defect, not a user error: the injected
			// signature would be silently wrong.
			panic(fmt.Sprintf("catcheck: argument %q of %s must carry a type annotation", arg.Var.Name, fqn))
		}
		sig.ArgTypes = append(sig.ArgTypes, arg.Annotation)
		sig.ArgKinds = append(sig.ArgKinds, arg.Kind)
		sig.ArgNames = append(sig.ArgNames, arg.Var.Name)
	}

	def := &pynodes.FuncDef{
		Name:     name,
		FullName: fqn,
		Args:     args,
		Body:     &pynodes.Block{Stmts: []pynodes.Statement{&pynodes.PassStmt{Line: info.Line}}},
		Type:     sig,
		Info:     info,
		IsStatic: true,
		Line:     info.Line,
	}
	return semanal.RegisterMemberIfAbsent(info, name, def)
}
