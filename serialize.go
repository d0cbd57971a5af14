package catcheck

import (
	"fmt"

	"github.com/phobologic/catcheck/internal/pynodes"
	"github.com/phobologic/catcheck/internal/pytypes"
)

// SerializeMember converts one named member of a class's member table into
// a cache record, delegating to the entry's own serialization keyed by the
// class's fully-qualified name and the member name.
func SerializeMember(info *pynodes.TypeInfo, name string) (map[string]any, error) {
	entry, ok := info.Names[name]
	if !ok {
		return nil, fmt.Errorf("%s has no member %q", info.FullName, name)
	}
	return entry.Serialize(info.FullName, name)
}

// FuncDefsFromRecords rebuilds function definitions from a stream of cache
// records, keeping only records tagged as function definitions; records of
// any other kind are skipped without error. Class references inside the
// signatures are resolved through resolve.
func FuncDefsFromRecords(records []map[string]any, resolve pytypes.ClassResolver) ([]*pynodes.FuncDef, error) {
	var defs []*pynodes.FuncDef
	for _, rec := range records {
		// A member-table entry wraps its definition; unwrap before
		// filtering so both record shapes are accepted.
		if tag, _ := rec[pytypes.ClassKey].(string); tag == pynodes.TagSymbolTableNode {
			node, ok := rec["node"].(map[string]any)
			if !ok {
				continue
			}
			rec = node
		}
		if tag, _ := rec[pytypes.ClassKey].(string); tag != pynodes.TagFuncDef {
			continue
		}
		def, err := pynodes.DeserializeFuncDef(rec, resolve)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}
