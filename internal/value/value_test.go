package value_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/bizunit/internal/value"
)

func TestTypeName(t *testing.T) {
	assert.Equal(t, value.TypeNull, value.TypeName(nil))
	assert.Equal(t, value.TypeBool, value.TypeName(true))
	assert.Equal(t, value.TypeInteger, value.TypeName(int64(1)))
	assert.Equal(t, value.TypeFloat, value.TypeName(1.5))
	assert.Equal(t, value.TypeString, value.TypeName("x"))
	assert.Equal(t, value.TypeSequence, value.TypeName(value.NewSequence()))
	assert.Equal(t, value.TypeHashMap, value.TypeName(value.NewHashMap()))
	assert.Equal(t, value.TypeUnknown, value.TypeName(struct{}{}))
}

func TestFromJSON(t *testing.T) {
	v, err := value.ParseJSON([]byte(`{"a": 1, "b": [1.5, "x", null], "c": true}`))
	require.NoError(t, err)

	m, ok := v.(*value.HashMap)
	require.True(t, ok)

	a, _ := m.Get(value.StringKey("a"))
	assert.Equal(t, int64(1), a)

	b, _ := m.Get(value.StringKey("b"))
	seq, ok := b.(*value.Sequence)
	require.True(t, ok)
	assert.Equal(t, []any{1.5, "x", nil}, seq.Items())

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1, "b": [1.5, "x", null], "c": true}`, string(out))
}

func TestFromJSONUnsupported(t *testing.T) {
	_, err := value.FromJSON(struct{}{})
	assert.ErrorIs(t, err, value.ErrUnsupportedValue)
}

func TestMakeKey(t *testing.T) {
	k, err := value.MakeKey("a")
	require.NoError(t, err)
	assert.Equal(t, "a", k.Value())
	assert.False(t, k.IsInt())

	k, err = value.MakeKey(int64(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), k.Value())
	assert.Equal(t, "7", k.String())

	_, err = value.MakeKey(1.5)
	assert.ErrorIs(t, err, value.ErrInvalidKey)

	_, err = value.MakeKey(value.NewHashMap())
	assert.ErrorIs(t, err, value.ErrInvalidKey)
}

func TestParseKey(t *testing.T) {
	for name, expected := range map[string]any{
		"0":                    int64(0),
		"42":                   int64(42),
		"-7":                   int64(-7),
		"01":                   "01",
		"+1":                   "+1",
		"-0":                   "-0",
		"1.5":                  "1.5",
		"name":                 "name",
		"":                     "",
		"99999999999999999999": "99999999999999999999",
	} {
		assert.Equal(t, expected, value.ParseKey(name).Value(), name)
	}
}

func TestHashMapKeysOrdered(t *testing.T) {
	m := value.NewHashMap()
	m.Set(value.StringKey("b"), 1)
	m.Set(value.IntKey(2), 2)
	m.Set(value.StringKey("a"), 3)
	m.Set(value.IntKey(1), 4)

	var keys []any
	for k := range m.All() {
		keys = append(keys, k.Value())
	}
	assert.Equal(t, []any{int64(1), int64(2), "a", "b"}, keys)
}

func TestHashMapMergeClones(t *testing.T) {
	inner := value.NewSequence(int64(1))
	src := value.HashMapOf(map[string]any{"list": inner})

	dst := value.HashMapOf(map[string]any{"a": int64(1)})
	dst.Merge(src)
	inner.Append(int64(2))

	got, _ := dst.Get(value.StringKey("list"))
	assert.Equal(t, 1, got.(*value.Sequence).Len())
	assert.Equal(t, 2, dst.Len())
}

func TestSequenceBounds(t *testing.T) {
	seq := value.NewSequence("a")

	_, err := seq.Get(1)
	assert.ErrorIs(t, err, value.ErrIndexOutOfRange)
	assert.ErrorIs(t, seq.Set(-1, "x"), value.ErrIndexOutOfRange)

	assert.NoError(t, seq.Set(0, "b"))
	v, err := seq.Get(0)
	assert.NoError(t, err)
	assert.Equal(t, "b", v)
	assert.True(t, seq.Contains("b"))
}

func TestEqual(t *testing.T) {
	assert.True(t, value.Equal(int64(1), 1.0))
	assert.True(t, value.Equal("a", "a"))
	assert.False(t, value.Equal("1", int64(1)))
	assert.True(t, value.Equal(
		value.NewSequence(int64(1), "a"), value.NewSequence(1.0, "a"),
	))
	assert.False(t, value.Equal(value.NewSequence(), value.NewHashMap()))
}

func TestCloneIsDeep(t *testing.T) {
	orig := value.HashMapOf(map[string]any{
		"nested": value.HashMapOf(map[string]any{"x": int64(1)}),
	})
	cp := value.Clone(orig).(*value.HashMap)

	nested, _ := cp.Get(value.StringKey("nested"))
	nested.(*value.HashMap).Set(value.StringKey("y"), int64(2))

	origNested, _ := orig.Get(value.StringKey("nested"))
	assert.Equal(t, 1, origNested.(*value.HashMap).Len())
}
