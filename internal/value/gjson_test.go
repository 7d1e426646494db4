package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/kode4food/bizunit/internal/value"
)

func TestFromResultScalars(t *testing.T) {
	assert.Nil(t, value.FromResult(gjson.Parse("null")))
	assert.Equal(t, true, value.FromResult(gjson.Parse("true")))
	assert.Equal(t, false, value.FromResult(gjson.Parse("false")))
	assert.Equal(t, "hi", value.FromResult(gjson.Parse(`"hi"`)))
	assert.Equal(t, int64(42), value.FromResult(gjson.Parse("42")))
	assert.Equal(t, 1.5, value.FromResult(gjson.Parse("1.5")))
}

func TestFromResultContainers(t *testing.T) {
	res := value.FromResult(gjson.Parse(`{"a":[1,"b",{"c":null}],"d":2.5}`))
	m, ok := res.(*value.HashMap)
	if assert.True(t, ok) {
		assert.Equal(t, 2, m.Len())

		a, ok := m.Get(value.StringKey("a"))
		assert.True(t, ok)
		seq, ok := a.(*value.Sequence)
		if assert.True(t, ok) {
			assert.Equal(t, 3, seq.Len())
			first, err := seq.Get(0)
			assert.NoError(t, err)
			assert.Equal(t, int64(1), first)
		}

		d, ok := m.Get(value.StringKey("d"))
		assert.True(t, ok)
		assert.Equal(t, 2.5, d)
	}
}

func TestFromResultMissing(t *testing.T) {
	res := gjson.Get(`{"a":1}`, "b")
	assert.False(t, res.Exists())
	assert.Nil(t, value.FromResult(res))
}
