package pytypes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver(classes ...*fakeClass) ClassResolver {
	return func(fullname string) (Class, bool) {
		for _, c := range classes {
			if c.fqn == fullname {
				return c, true
			}
		}
		return nil, false
	}
}

func TestTypeRoundTrip(t *testing.T) {
	t.Parallel()

	cat := &fakeClass{fqn: "pets.Cat", params: []TypeVarDef{{Name: "T", FullName: "pets.T", ID: 1}}}
	dict := &fakeClass{fqn: "builtins.dict"}
	str := &fakeClass{fqn: "builtins.str"}
	fn := &fakeClass{fqn: "builtins.function"}
	resolve := testResolver(cat, dict, str, fn)

	orig := &Callable{
		ArgTypes: []Type{
			&Instance{Class: dict, Args: []Type{&Instance{Class: str}, Any{}}},
		},
		ArgKinds: []ArgKind{ArgPos},
		ArgNames: []string{"d"},
		Ret:      FillTypeVars(cat),
		Fallback: &Instance{Class: fn},
		Name:     "pets.Cat.struc",
	}

	rec := SerializeType(orig)

	// Through encoding/json, as the incremental cache stores it.
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var restored map[string]any
	require.NoError(t, json.Unmarshal(data, &restored))

	got, err := DeserializeType(restored, resolve)
	require.NoError(t, err)

	sig, ok := got.(*Callable)
	require.True(t, ok, "expected callable, got %T", got)
	assert.Equal(t, orig.String(), sig.String())
	assert.Equal(t, "pets.Cat.struc", sig.Name)
	assert.Equal(t, []ArgKind{ArgPos}, sig.ArgKinds)
	require.NotNil(t, sig.Fallback)
	assert.Equal(t, "builtins.function", sig.Fallback.Class.QualifiedName())

	ret, ok := sig.Ret.(*Instance)
	require.True(t, ok)
	require.Len(t, ret.Args, 1)
	tv, ok := ret.Args[0].(*TypeVar)
	require.True(t, ok, "return type argument should be a type variable")
	assert.Equal(t, 1, tv.ID)
}

func TestDeserializeUnknownClassRef(t *testing.T) {
	t.Parallel()

	rec := SerializeType(&Instance{Class: &fakeClass{fqn: "gone.Missing"}})
	_, err := DeserializeType(rec, testResolver())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone.Missing")
}

func TestDeserializeUnknownTag(t *testing.T) {
	t.Parallel()

	_, err := DeserializeType(map[string]any{ClassKey: "Mystery"}, testResolver())
	require.Error(t, err)
}
