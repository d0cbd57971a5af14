package pytypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClass struct {
	fqn    string
	params []TypeVarDef
}

func (c *fakeClass) QualifiedName() string    { return c.fqn }
func (c *fakeClass) TypeParams() []TypeVarDef { return c.params }

func TestFillTypeVarsGeneric(t *testing.T) {
	t.Parallel()

	cls := &fakeClass{
		fqn: "pets.Cat",
		params: []TypeVarDef{
			{Name: "T", FullName: "pets.T", ID: 1},
		},
	}

	inst := FillTypeVars(cls)
	require.Len(t, inst.Args, 1)

	tv, ok := inst.Args[0].(*TypeVar)
	require.True(t, ok, "expected a type variable, got %T", inst.Args[0])
	assert.Equal(t, "T", tv.Name)
	assert.Equal(t, "pets.T", tv.FullName)
	assert.Equal(t, 1, tv.ID)
	assert.Equal(t, "pets.Cat[T]", inst.String())
}

func TestFillTypeVarsFresh(t *testing.T) {
	t.Parallel()

	cls := &fakeClass{
		fqn:    "pets.Cat",
		params: []TypeVarDef{{Name: "T", FullName: "pets.T", ID: 1}},
	}

	first := FillTypeVars(cls)
	second := FillTypeVars(cls)

	// Each fill produces fresh variables standing for the same parameters.
	assert.NotSame(t, first.Args[0], second.Args[0])
	assert.Equal(t, first.Args[0].(*TypeVar).ID, second.Args[0].(*TypeVar).ID)
}

func TestFillTypeVarsPlainClass(t *testing.T) {
	t.Parallel()

	inst := FillTypeVars(&fakeClass{fqn: "pets.Cat"})
	assert.Empty(t, inst.Args)
	assert.Equal(t, "pets.Cat", inst.String())
}

func TestCallableString(t *testing.T) {
	t.Parallel()

	dict := &Instance{
		Class: &fakeClass{fqn: "builtins.dict"},
		Args:  []Type{&Instance{Class: &fakeClass{fqn: "builtins.str"}}, Any{}},
	}
	sig := &Callable{
		ArgTypes: []Type{dict},
		ArgKinds: []ArgKind{ArgPos},
		ArgNames: []string{"d"},
		Ret:      &Instance{Class: &fakeClass{fqn: "pets.Cat"}},
		Name:     "pets.Cat.struc",
	}

	assert.Equal(t, "def (d: builtins.dict[builtins.str, Any]) -> pets.Cat", sig.String())
}
