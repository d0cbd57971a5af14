package pytypes

import "fmt"

// ClassKey is the discriminator key on every serialized record.
const ClassKey = ".class"

// SerializeType converts a type into a cache record: a JSON-compatible map
// tagged with a ClassKey discriminator.
func SerializeType(t Type) map[string]any {
	switch t := t.(type) {
	case Any:
		return map[string]any{ClassKey: "Any"}
	case None:
		return map[string]any{ClassKey: "None"}
	case *TypeVar:
		return map[string]any{
			ClassKey:   "TypeVar",
			"name":     t.Name,
			"fullname": t.FullName,
			"id":       t.ID,
		}
	case *Instance:
		args := make([]any, len(t.Args))
		for i, a := range t.Args {
			args[i] = SerializeType(a)
		}
		return map[string]any{
			ClassKey:   "Instance",
			"type_ref": t.Class.QualifiedName(),
			"args":     args,
		}
	case *Callable:
		argTypes := make([]any, len(t.ArgTypes))
		for i, a := range t.ArgTypes {
			argTypes[i] = SerializeType(a)
		}
		kinds := make([]any, len(t.ArgKinds))
		for i, k := range t.ArgKinds {
			kinds[i] = int(k)
		}
		names := make([]any, len(t.ArgNames))
		for i, n := range t.ArgNames {
			names[i] = n
		}
		rec := map[string]any{
			ClassKey:    "Callable",
			"arg_types": argTypes,
			"arg_kinds": kinds,
			"arg_names": names,
			"ret_type":  SerializeType(t.Ret),
			"name":      t.Name,
		}
		if t.Fallback != nil {
			rec["fallback"] = SerializeType(t.Fallback)
		}
		return rec
	default:
		panic(fmt.Sprintf("pytypes: cannot serialize %T", t))
	}
}

// DeserializeType rebuilds a type from a cache record. Class references are
// resolved through resolve; an unresolvable reference is an error.
func DeserializeType(rec map[string]any, resolve ClassResolver) (Type, error) {
	tag, _ := rec[ClassKey].(string)
	switch tag {
	case "Any":
		return Any{}, nil
	case "None":
		return None{}, nil
	case "TypeVar":
		return &TypeVar{
			Name:     recString(rec, "name"),
			FullName: recString(rec, "fullname"),
			ID:       recInt(rec, "id"),
		}, nil
	case "Instance":
		ref := recString(rec, "type_ref")
		cls, ok := resolve(ref)
		if !ok {
			return nil, fmt.Errorf("unknown class reference %q", ref)
		}
		rawArgs, _ := rec["args"].([]any)
		args := make([]Type, 0, len(rawArgs))
		for _, raw := range rawArgs {
			sub, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("malformed type argument in %q", ref)
			}
			arg, err := DeserializeType(sub, resolve)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return &Instance{Class: cls, Args: args}, nil
	case "Callable":
		return deserializeCallable(rec, resolve)
	default:
		return nil, fmt.Errorf("unknown type record %q", tag)
	}
}

func deserializeCallable(rec map[string]any, resolve ClassResolver) (*Callable, error) {
	rawTypes, _ := rec["arg_types"].([]any)
	argTypes := make([]Type, 0, len(rawTypes))
	for _, raw := range rawTypes {
		sub, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("malformed argument type in callable record")
		}
		at, err := DeserializeType(sub, resolve)
		if err != nil {
			return nil, err
		}
		argTypes = append(argTypes, at)
	}

	rawKinds, _ := rec["arg_kinds"].([]any)
	kinds := make([]ArgKind, 0, len(rawKinds))
	for _, raw := range rawKinds {
		kinds = append(kinds, ArgKind(anyToInt(raw)))
	}

	rawNames, _ := rec["arg_names"].([]any)
	names := make([]string, 0, len(rawNames))
	for _, raw := range rawNames {
		s, _ := raw.(string)
		names = append(names, s)
	}

	rawRet, ok := rec["ret_type"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("callable record missing ret_type")
	}
	ret, err := DeserializeType(rawRet, resolve)
	if err != nil {
		return nil, err
	}

	c := &Callable{
		ArgTypes: argTypes,
		ArgKinds: kinds,
		ArgNames: names,
		Ret:      ret,
		Name:     recString(rec, "name"),
	}
	if rawFB, ok := rec["fallback"].(map[string]any); ok {
		fb, err := DeserializeType(rawFB, resolve)
		if err != nil {
			return nil, err
		}
		if inst, ok := fb.(*Instance); ok {
			c.Fallback = inst
		}
	}
	return c, nil
}

func recString(rec map[string]any, key string) string {
	s, _ := rec[key].(string)
	return s
}

func recInt(rec map[string]any, key string) int {
	return anyToInt(rec[key])
}

// anyToInt accepts both int (in-memory records) and float64 (records that
// round-tripped through encoding/json).
func anyToInt(v any) int {
	switch v := v.(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
