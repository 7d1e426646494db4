package api_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/bizunit/pkg/api"
)

func TestChildShapes(t *testing.T) {
	src := `{
		"type": "hashmap",
		"action": "create",
		"extra": {"id": "b1"},
		"template": {
			"single": {"type": "primitive", "action": "integer", "value": 0},
			"list": [
				{"type": "primitive", "action": "boolean", "value": false}
			],
			"named": {
				"a": {"type": "primitive", "action": "string", "value": ""}
			}
		}
	}`

	var tmpl api.Template
	require.NoError(t, json.Unmarshal([]byte(src), &tmpl))

	assert.Equal(t, "hashmap", tmpl.Type)
	assert.Equal(t, "create", tmpl.Action)
	assert.Equal(t, "b1", tmpl.Extra["id"])

	single, ok := tmpl.Child("single")
	require.True(t, ok)
	assert.Equal(t, api.ChildBlock, single.Kind())
	assert.Equal(t, "integer", single.Block.Action)
	assert.JSONEq(t, "0", string(single.Block.Value))

	list, ok := tmpl.Child("list")
	require.True(t, ok)
	assert.Equal(t, api.ChildList, list.Kind())
	assert.Len(t, list.List, 1)

	named, ok := tmpl.Child("named")
	require.True(t, ok)
	assert.Equal(t, api.ChildMap, named.Kind())
	assert.Contains(t, named.Map, "a")

	out, err := json.Marshal(&tmpl)
	require.NoError(t, err)
	assert.JSONEq(t, src, string(out))
}

func TestChildMissing(t *testing.T) {
	tmpl := api.NewTemplate("variable", "get")
	_, ok := tmpl.Child("name")
	assert.False(t, ok)
}

func TestChildInvalid(t *testing.T) {
	var c api.Child
	assert.ErrorIs(t, json.Unmarshal([]byte(`42`), &c), api.ErrInvalidChild)
	assert.ErrorIs(t, json.Unmarshal([]byte(`"x"`), &c), api.ErrInvalidChild)
}

func TestBuilder(t *testing.T) {
	tmpl := api.NewTemplate("variable", "set").
		WithExtra(api.Extra{"id": "n1"}).
		WithBlock("name", api.NewTemplate("primitive", "string").WithValue("x")).
		WithList("items").
		WithMap("entries", nil)

	out, err := json.Marshal(tmpl)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "variable",
		"action": "set",
		"extra": {"id": "n1"},
		"template": {
			"name": {"type": "primitive", "action": "string", "value": "x"},
			"items": [],
			"entries": {}
		}
	}`, string(out))

	var name string
	c, _ := tmpl.Child("name")
	assert.NoError(t, c.Block.DecodeValue(&name))
	assert.Equal(t, "x", name)
}

func TestDecodeValueMissing(t *testing.T) {
	var v any
	err := api.NewTemplate("primitive", "null").DecodeValue(&v)
	assert.ErrorIs(t, err, api.ErrInvalidChild)
}
