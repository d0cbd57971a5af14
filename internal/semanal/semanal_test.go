package semanal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/catcheck/internal/pyast"
	"github.com/phobologic/catcheck/internal/pynodes"
	"github.com/phobologic/catcheck/internal/pytypes"
)

func analyze(t *testing.T, a *Analyzer, path, source string) *ModuleInfo {
	t.Helper()
	mod, err := pyast.ParseModule(pyast.NewParser(), path, []byte(source))
	require.NoError(t, err)
	return a.AnalyzeModule(mod)
}

func TestAnalyzeClassFields(t *testing.T) {
	t.Parallel()

	a := New()
	mi := analyze(t, a, "pets.py", `
from typing import Any, Dict, Optional

class Kitten:
    name: str
    tags: Dict[str, Any]
    nickname: Optional[str] = None
`)

	info := mi.Classes["Kitten"]
	require.NotNil(t, info)
	assert.Equal(t, "pets.Kitten", info.FullName)
	assert.Equal(t, "pets.py", info.File)

	name, ok := info.Names["name"].Node.(*pynodes.Var)
	require.True(t, ok)
	assert.Equal(t, "builtins.str", name.Type.String())

	tags, _ := info.Names["tags"].Node.(*pynodes.Var)
	require.NotNil(t, tags)
	assert.Equal(t, "builtins.dict[builtins.str, Any]", tags.Type.String())

	// Optional collapses to its payload type; the analyzer has no union
	// model.
	nickname, _ := info.Names["nickname"].Node.(*pynodes.Var)
	require.NotNil(t, nickname)
	assert.Equal(t, "builtins.str", nickname.Type.String())

	// Implicit object base.
	require.Len(t, info.Bases, 1)
	assert.Equal(t, "builtins.object", info.Bases[0].Class.QualifiedName())
}

func TestAnalyzeGenericClass(t *testing.T) {
	t.Parallel()

	a := New()
	mi := analyze(t, a, "box.py", `
from typing import Generic, TypeVar

T = TypeVar("T")

class Box(Generic[T]):
    value: T
`)

	info := mi.Classes["Box"]
	require.NotNil(t, info)
	require.Len(t, info.TypeVars, 1)
	assert.Equal(t, "T", info.TypeVars[0].Name)
	assert.Equal(t, "box.T", info.TypeVars[0].FullName)
	assert.Equal(t, 1, info.TypeVars[0].ID)

	value, _ := info.Names["value"].Node.(*pynodes.Var)
	require.NotNil(t, value)
	tv, ok := value.Type.(*pytypes.TypeVar)
	require.True(t, ok, "field typed by a class type parameter resolves to a type variable")
	assert.Equal(t, "T", tv.Name)
}

func TestAnalyzeMethod(t *testing.T) {
	t.Parallel()

	a := New()
	mi := analyze(t, a, "pets.py", `
from typing import Any, Dict

class Kitten:
    def unstruc(self) -> Dict[str, Any]:
        return {}
`)

	info := mi.Classes["Kitten"]
	def, ok := info.Names["unstruc"].Node.(*pynodes.FuncDef)
	require.True(t, ok)
	assert.False(t, def.IsStatic)
	assert.Equal(t, "pets.Kitten.unstruc", def.FullName)
	require.NotNil(t, def.Type)
	require.Len(t, def.Type.ArgTypes, 1)
	assert.Equal(t, "pets.Kitten", def.Type.ArgTypes[0].String())
	assert.Equal(t, "builtins.dict[builtins.str, Any]", def.Type.Ret.String())
	assert.Equal(t, "builtins.function", def.Type.Fallback.Class.QualifiedName())

	// The entry is user-written, not synthesized.
	assert.False(t, info.Names["unstruc"].PluginGenerated)
}

func TestAnalyzeCrossModuleReference(t *testing.T) {
	t.Parallel()

	a := New()
	analyze(t, a, "pets.py", `
class Kitten:
    name: str
`)
	mi := analyze(t, a, "app.py", `
from pets import Kitten

class Home:
    pet: Kitten
`)

	home := mi.Classes["Home"]
	pet, _ := home.Names["pet"].Node.(*pynodes.Var)
	require.NotNil(t, pet)
	inst, ok := pet.Type.(*pytypes.Instance)
	require.True(t, ok)
	assert.Equal(t, "pets.Kitten", inst.Class.QualifiedName())

	// Same record, not a placeholder copy.
	kitten, ok := a.LookupClass("pets.Kitten")
	require.True(t, ok)
	assert.Same(t, kitten, inst.Class)
}

type recordingPlugin struct {
	marker  string
	reasons []string
}

func (p *recordingPlugin) ClassDecoratorHook(fullname string) ClassHook {
	if fullname != p.marker {
		return nil
	}
	return func(ctx *ClassDefContext) {
		p.reasons = append(p.reasons, ctx.Reason+":"+ctx.Cls.Info.FullName)
	}
}

func TestHookDispatch(t *testing.T) {
	t.Parallel()

	p := &recordingPlugin{marker: "typecats.Cat"}
	a := New(p)
	analyze(t, a, "pets.py", `
from typecats import Cat

@Cat
class Kitten:
    name: str

@Cat
class Puppy:
    name: str

class Plain:
    name: str
`)

	assert.Equal(t, []string{"typecats.Cat:pets.Kitten", "typecats.Cat:pets.Puppy"}, p.reasons)
}

func TestHookNotDispatchedForOtherDecorators(t *testing.T) {
	t.Parallel()

	p := &recordingPlugin{marker: "typecats.Cat"}
	a := New(p)
	analyze(t, a, "pets.py", `
import functools

@functools.cache
class Odd:
    pass
`)

	assert.Empty(t, p.reasons)
}

func TestNamedTypePlaceholder(t *testing.T) {
	t.Parallel()

	a := New()
	inst := a.NamedType("somewhere.Unknown")
	assert.Equal(t, "somewhere.Unknown", inst.Class.QualifiedName())

	// Total and stable: the same placeholder record comes back.
	again := a.NamedType("somewhere.Unknown")
	assert.Same(t, inst.Class, again.Class)
}

func TestFailCollectsDiagnostics(t *testing.T) {
	t.Parallel()

	a := New()
	analyze(t, a, "pets.py", "class C:\n    pass\n")
	a.Fail("boom", 3)

	diags := a.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, "pets.py:3: boom", diags[0].String())
}

func classCtx(t *testing.T, a *Analyzer, mi *ModuleInfo, name string) *ClassDefContext {
	t.Helper()
	info := mi.Classes[name]
	require.NotNil(t, info)
	return &ClassDefContext{Cls: info.Defn, API: a}
}

func TestAddMethod(t *testing.T) {
	t.Parallel()

	a := New()
	mi := analyze(t, a, "pets.py", "class Kitten:\n    name: str\n")
	ctx := classCtx(t, a, mi, "Kitten")
	info := ctx.Cls.Info

	dict := a.NamedType("builtins.dict", a.NamedType("builtins.str"), pytypes.Any{})
	added := AddMethod(ctx, "unstruc", nil, dict)
	require.True(t, added)

	def, ok := info.Names["unstruc"].Node.(*pynodes.FuncDef)
	require.True(t, ok)
	assert.True(t, info.Names["unstruc"].PluginGenerated)
	require.Len(t, def.Args, 1)
	assert.Equal(t, "self", def.Args[0].Var.Name)
	assert.Equal(t, "pets.Kitten", def.Args[0].Annotation.String())
	assert.Equal(t, "builtins.dict[builtins.str, Any]", def.Type.Ret.String())

	// Body statement added alongside the member table entry.
	assert.Same(t, def, info.Defn.Body[len(info.Defn.Body)-1])

	// Second add is a no-op.
	before := len(info.Defn.Body)
	assert.False(t, AddMethod(ctx, "unstruc", nil, dict))
	assert.Len(t, info.Defn.Body, before)
}

func TestAddMethodUnannotatedArgumentPanics(t *testing.T) {
	t.Parallel()

	a := New()
	mi := analyze(t, a, "pets.py", "class Kitten:\n    name: str\n")
	ctx := classCtx(t, a, mi, "Kitten")

	bad := []*pynodes.Argument{{Var: &pynodes.Var{Name: "d"}, Kind: pytypes.ArgPos}}
	assert.Panics(t, func() {
		AddMethod(ctx, "broken", bad, pytypes.None{})
	})
	// The member must not land half-built.
	_, ok := ctx.Cls.Info.Names["broken"]
	assert.False(t, ok)
}

func TestReanalysisKeepsRecords(t *testing.T) {
	t.Parallel()

	p := &recordingPlugin{marker: "typecats.Cat"}
	a := New(p)
	source := `
from typecats import Cat

@Cat
class Kitten:
    name: str
`
	first := analyze(t, a, "pets.py", source)
	info := first.Classes["Kitten"]

	second := analyze(t, a, "pets.py", source)
	assert.Same(t, info, second.Classes["Kitten"])

	// Hooks re-ran on the same record.
	assert.Len(t, p.reasons, 2)
	// No duplicated body statements from re-analysis itself.
	assert.Len(t, info.Defn.Body, 1)
}
