package semanal

import (
	"fmt"

	"github.com/phobologic/catcheck/internal/pynodes"
	"github.com/phobologic/catcheck/internal/pytypes"
)

// RegisterMemberIfAbsent appends a synthesized definition to the class's
// member table and definition body, unless a member with that name already
// exists. Keeping the table and the body in step is an analyzer invariant:
// every member table entry has a corresponding body statement. Reports
// whether the member was added.
func RegisterMemberIfAbsent(info *pynodes.TypeInfo, name string, def *pynodes.FuncDef) bool {
	if _, ok := info.Names[name]; ok {
		return false
	}
	info.Names[name] = &pynodes.SymbolTableNode{
		Kind:            pynodes.MemberDef,
		Node:            def,
		PluginGenerated: true,
	}
	info.Defn.Body = append(info.Defn.Body, def)
	return true
}

// AddMethod synthesizes an instance method on the class in the context:
// self plus args, returning ret. The body is a single pass statement; only
// the signature matters to the analyzer. Every argument must carry a type
// annotation: a missing one is a plugin-authoring defect, not a user error.
// Reports whether the member was added (an existing member is left alone).
func AddMethod(ctx *ClassDefContext, name string, args []*pynodes.Argument, ret pytypes.Type) bool {
	info := ctx.Cls.Info
	if _, ok := info.Names[name]; ok {
		return false
	}

	selfArg := &pynodes.Argument{
		Var:        &pynodes.Var{Name: "self"},
		Annotation: pytypes.FillTypeVars(info),
		Kind:       pytypes.ArgPos,
	}
	all := append([]*pynodes.Argument{selfArg}, args...)

	fqn := info.FullName + "." + name
	sig := &pytypes.Callable{
		Ret:      ret,
		Fallback: ctx.API.NamedType("builtins.function"),
		Name:     fqn,
	}
	for _, arg := range all {
		if arg.Annotation == nil {
			panic(fmt.Sprintf("semanal: argument %q of %s must carry a type annotation", arg.Var.Name, fqn))
		}
		sig.ArgTypes = append(sig.ArgTypes, arg.Annotation)
		sig.ArgKinds = append(sig.ArgKinds, arg.Kind)
		sig.ArgNames = append(sig.ArgNames, arg.Var.Name)
	}

	def := &pynodes.FuncDef{
		Name:     name,
		FullName: fqn,
		Args:     all,
		Body:     &pynodes.Block{Stmts: []pynodes.Statement{&pynodes.PassStmt{Line: info.Line}}},
		Type:     sig,
		Info:     info,
		Line:     info.Line,
	}
	return RegisterMemberIfAbsent(info, name, def)
}
