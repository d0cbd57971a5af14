package pynodes

import (
	"fmt"

	"github.com/phobologic/catcheck/internal/pytypes"
)

// Record tags used as the ClassKey discriminator on serialized nodes.
const (
	TagSymbolTableNode = "SymbolTableNode"
	TagFuncDef         = "FuncDef"
	TagVar             = "Var"
)

// Serialize converts the entry into a cache record. classFQN and name
// identify the owning class and the member slot; the serialized node's
// fullname is derived from them so a restored entry lands back in the same
// slot.
func (n *SymbolTableNode) Serialize(classFQN, name string) (map[string]any, error) {
	var node map[string]any
	switch d := n.Node.(type) {
	case *FuncDef:
		node = d.serialize(classFQN + "." + name)
	case *Var:
		node = map[string]any{
			pytypes.ClassKey: TagVar,
			"name":           d.Name,
			"fullname":       classFQN + "." + name,
		}
		if d.Type != nil {
			node["type"] = pytypes.SerializeType(d.Type)
		}
	default:
		return nil, fmt.Errorf("cannot serialize member %s.%s of kind %T", classFQN, name, n.Node)
	}
	return map[string]any{
		pytypes.ClassKey:   TagSymbolTableNode,
		"kind":             int(n.Kind),
		"plugin_generated": n.PluginGenerated,
		"node":             node,
	}, nil
}

func (f *FuncDef) serialize(fullname string) map[string]any {
	names := make([]any, len(f.Args))
	kinds := make([]any, len(f.Args))
	annotations := make([]any, len(f.Args))
	for i, arg := range f.Args {
		names[i] = arg.Var.Name
		kinds[i] = int(arg.Kind)
		if arg.Annotation != nil {
			annotations[i] = pytypes.SerializeType(arg.Annotation)
		}
	}
	rec := map[string]any{
		pytypes.ClassKey:  TagFuncDef,
		"name":            f.Name,
		"fullname":        fullname,
		"is_static":       f.IsStatic,
		"line":            f.Line,
		"arg_names":       names,
		"arg_kinds":       kinds,
		"arg_annotations": annotations,
	}
	if f.Type != nil {
		rec["type"] = pytypes.SerializeType(f.Type)
	}
	return rec
}

// Serialize converts the definition into a cache record under its own
// fully-qualified name.
func (f *FuncDef) Serialize() map[string]any {
	return f.serialize(f.FullName)
}

// DeserializeFuncDef rebuilds a function definition from a cache record.
// The record must be tagged TagFuncDef; class references inside its
// signature are resolved through resolve.
func DeserializeFuncDef(rec map[string]any, resolve pytypes.ClassResolver) (*FuncDef, error) {
	if tag, _ := rec[pytypes.ClassKey].(string); tag != TagFuncDef {
		return nil, fmt.Errorf("record is %q, not %q", tag, TagFuncDef)
	}
	name, _ := rec["name"].(string)
	fullname, _ := rec["fullname"].(string)

	rawNames, _ := rec["arg_names"].([]any)
	rawKinds, _ := rec["arg_kinds"].([]any)
	rawAnnotations, _ := rec["arg_annotations"].([]any)
	if len(rawKinds) != len(rawNames) || len(rawAnnotations) != len(rawNames) {
		return nil, fmt.Errorf("inconsistent argument lists in record for %q", fullname)
	}

	args := make([]*Argument, len(rawNames))
	for i := range rawNames {
		argName, _ := rawNames[i].(string)
		arg := &Argument{
			Var:  &Var{Name: argName},
			Kind: pytypes.ArgKind(jsonInt(rawKinds[i])),
		}
		if sub, ok := rawAnnotations[i].(map[string]any); ok {
			at, err := pytypes.DeserializeType(sub, resolve)
			if err != nil {
				return nil, err
			}
			arg.Annotation = at
			arg.Var.Type = at
		}
		args[i] = arg
	}

	f := &FuncDef{
		Name:     name,
		FullName: fullname,
		Args:     args,
		Body:     &Block{Stmts: []Statement{&PassStmt{}}},
		IsStatic: isTrue(rec["is_static"]),
		Line:     jsonInt(rec["line"]),
	}
	if sub, ok := rec["type"].(map[string]any); ok {
		t, err := pytypes.DeserializeType(sub, resolve)
		if err != nil {
			return nil, err
		}
		sig, ok := t.(*pytypes.Callable)
		if !ok {
			return nil, fmt.Errorf("record for %q carries a non-callable type", fullname)
		}
		f.Type = sig
	}
	return f, nil
}

func isTrue(v any) bool {
	b, _ := v.(bool)
	return b
}

func jsonInt(v any) int {
	switch v := v.(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
