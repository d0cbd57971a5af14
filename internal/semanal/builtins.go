package semanal

import (
	"github.com/phobologic/catcheck/internal/pynodes"
	"github.com/phobologic/catcheck/internal/pytypes"
)

// builtinNames lists the builtins the analyzer models, with their declared
// type parameters.
var builtinNames = map[string][]string{
	"object":   nil,
	"type":     nil,
	"function": nil,
	"str":      nil,
	"bytes":    nil,
	"int":      nil,
	"float":    nil,
	"bool":     nil,
	"dict":     {"_KT", "_VT"},
	"list":     {"_T"},
	"set":      {"_T"},
	"tuple":    {"_T"},
}

func newBuiltins() map[string]*pynodes.TypeInfo {
	table := make(map[string]*pynodes.TypeInfo, len(builtinNames))
	for name, params := range builtinNames {
		fqn := "builtins." + name
		info := &pynodes.TypeInfo{
			Name:     name,
			FullName: fqn,
			Names:    pynodes.SymbolTable{},
			File:     "builtins",
		}
		for i, p := range params {
			info.TypeVars = append(info.TypeVars, pytypes.TypeVarDef{
				Name:     p,
				FullName: fqn + "." + p,
				ID:       i + 1,
			})
		}
		table[fqn] = info
	}
	return table
}
