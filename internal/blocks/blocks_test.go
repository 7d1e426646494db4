package blocks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	as "github.com/kode4food/bizunit/internal/assert"
	h "github.com/kode4food/bizunit/internal/assert/helpers"
	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks"
	"github.com/kode4food/bizunit/internal/blocks/blob"
	"github.com/kode4food/bizunit/internal/blocks/crypt"
	"github.com/kode4food/bizunit/internal/blocks/debug"
	"github.com/kode4food/bizunit/internal/blocks/document"
	"github.com/kode4food/bizunit/internal/blocks/hashmap"
	"github.com/kode4food/bizunit/internal/blocks/kv"
	"github.com/kode4food/bizunit/internal/blocks/logging"
	"github.com/kode4food/bizunit/internal/blocks/meta"
	"github.com/kode4food/bizunit/internal/blocks/query"
	"github.com/kode4food/bizunit/internal/blocks/request"
	"github.com/kode4food/bizunit/internal/blocks/response"
	"github.com/kode4food/bizunit/internal/blocks/rest"
	"github.com/kode4food/bizunit/internal/blocks/scripting"
	"github.com/kode4food/bizunit/internal/blocks/sequence"
	"github.com/kode4food/bizunit/internal/blocks/text"
	"github.com/kode4food/bizunit/pkg/api"
)

func TestNewRegistry(t *testing.T) {
	r := blocks.NewRegistry()
	assert.Equal(t, []string{
		"blob", "control", "crypto", "debug", "expression", "hashmap",
		"json", "kv", "log", "meta", "primitive", "request", "response",
		"rest", "script", "sequence", "sql", "text", "variable",
	}, r.Types())
	assert.Len(t, r.Types(), len(blocks.Families))
	assert.Equal(t, []string{"ale", "lua"}, r.Actions(scripting.Type))
}

func TestRegisterTwice(t *testing.T) {
	r := blocks.NewRegistry()
	assert.ErrorIs(t, blocks.Register(r), block.ErrDuplicateBlock)
}

func TestUnknownBlock(t *testing.T) {
	r := blocks.NewRegistry()
	_, err := r.Load(api.NewTemplate("missing", "block"))
	assert.ErrorIs(t, err, block.ErrUnknownBlock)
	_, err = r.Load(api.NewTemplate("primitive", "missing"))
	assert.ErrorIs(t, err, block.ErrUnknownBlock)
}

func TestRoundTrip(t *testing.T) {
	r := blocks.NewRegistry()
	extra := api.Extra{"id": "block-1", "x": float64(10)}

	tests := map[string]*api.Template{
		"string":  h.Str("hello"),
		"integer": h.Int(42),
		"float":   h.Float(2.5),
		"boolean": h.Bool(true),
		"null":    h.Null(),
		"extra":   h.Str("tagged").WithExtra(extra),

		"variable_create": h.Create("x"),
		"variable_get":    h.Get("x"),
		"variable_set":    h.Set("x", h.Int(1)),
		"variable_exists": h.Exists("x"),

		"sequence_create": h.Seq(h.Int(1), h.Str("two")),
		"sequence_empty":  h.Seq(),
		"sequence_get": h.Block(sequence.Type, sequence.ActionGet, h.Args{
			sequence.SlotTarget: h.Get("s"),
			sequence.SlotIndex:  h.Int(0),
		}),
		"sequence_append": h.Block(
			sequence.Type, sequence.ActionAppend, h.Args{
				sequence.SlotName:  h.Str("s"),
				sequence.SlotValue: h.Int(3),
			},
		),

		"hashmap_create": h.Map(map[string]*api.Template{
			"a": h.Int(1),
			"b": h.Str("two"),
		}),
		"hashmap_add": h.Block(hashmap.Type, hashmap.ActionAdd, h.Args{
			hashmap.SlotName:  h.Str("m"),
			hashmap.SlotValue: h.Map(nil),
		}).WithList(hashmap.SlotPath, h.Str("outer"), h.Str("inner")),
		"hashmap_keys": h.Block(hashmap.Type, hashmap.ActionKeys, h.Args{
			hashmap.SlotTarget: h.Get("m"),
		}),

		"if": h.If(h.Compare(h.Int(1), "<", h.Int(2)),
			h.Set("x", h.Int(1))),
		"if_else": h.IfElse(h.Condition(h.Operand(h.Bool(true))),
			[]*api.Template{h.Str("then")},
			[]*api.Template{h.Str("else")}),
		"group": h.Group(h.Str("a"), h.Str("b")),
		"for": h.For(
			h.Let("i", h.Int(0)),
			h.Compare(h.Get("i"), "<", h.Int(3)),
			[]*api.Template{h.Increment("i")},
			h.Continue(),
		),
		"for_no_condition": h.For(nil, nil, nil, h.Break()),
		"while": h.While(h.Condition(h.Operand(h.Bool(false))),
			h.Break()),
		"foreach": h.ForEach(h.Seq(h.Int(1)), "k", "v", h.Get("v")),

		"condition": h.Condition(
			h.Not(), h.Open(), h.Operand(h.Bool(false)), h.Op("||"),
			h.Operand(h.Bool(false)), h.Close(),
		),
		"evaluate": h.Arith(h.Int(2), "*", h.Int(3)),

		"text_concat": api.NewTemplate(text.Type, text.ActionConcat).
			WithList(text.SlotValues, h.Str("a"), h.Str("b")),
		"text_substring": h.Block(text.Type, text.ActionSubstring, h.Args{
			text.SlotValue: h.Str("hello"),
			text.SlotStart: h.Int(1),
		}),

		"json_path": h.Block(document.Type, document.ActionPath, h.Args{
			document.SlotValue: h.Str(`{"a":1}`),
			document.SlotPath:  h.Str("a"),
		}),
		"request_header": h.Block(request.Type, request.ActionHeader,
			h.Args{request.SlotName: h.Str("X-Test")}),
		"request_method": h.Block(request.Type, request.ActionMethod, nil),

		"response_return": h.Block(response.Type, response.ActionReturn,
			h.Args{
				response.SlotStatus: h.Int(201),
				response.SlotBody:   h.Str("created"),
			}),
		"kv_set": h.Block(kv.Type, kv.ActionSet, h.Args{
			kv.SlotKey:   h.Str("k"),
			kv.SlotValue: h.Str("v"),
			kv.SlotTTL:   h.Int(60),
		}),
		"sql_query": api.NewTemplate(query.Type, query.ActionQuery).
			WithBlock(query.SlotQuery, h.Str("SELECT ?")).
			WithList(query.SlotParameters, h.Int(1)),
		"sql_commit": h.Block(query.Type, query.ActionCommit, nil),
		"blob_list":  h.Block(blob.Type, blob.ActionList, nil),
		"crypto_hash": h.Block(crypt.Type, crypt.ActionHash, h.Args{
			crypt.SlotAlgorithm: h.Str("sha256"),
			crypt.SlotValue:     h.Str("abc"),
		}),
		"script_lua": h.Block(scripting.Type, scripting.ActionLua,
			h.Args{scripting.SlotSource: h.Str("return 1")}),
		"rest_request": h.Block(rest.Type, rest.ActionRequest, h.Args{
			rest.SlotURL:    h.Str("http://example.com"),
			rest.SlotMethod: h.Str("POST"),
		}),
		"log_info": h.Block(logging.Type, logging.ActionInfo, h.Args{
			logging.SlotMessage: h.Str("hello"),
		}),
		"meta_account": h.Block(meta.Type, meta.ActionAccount, nil),
		"debug_breakpoint": h.Block(debug.Type, debug.ActionBreakpoint,
			nil),
	}

	for name, tmpl := range tests {
		t.Run(name, func(t *testing.T) {
			as.New(t).RoundTrip(r, tmpl)
		})
	}
}

func TestStructureErrors(t *testing.T) {
	r := blocks.NewRegistry()

	tests := map[string]*api.Template{
		"missing_value": api.NewTemplate("primitive", "string"),
		"wrong_payload": api.NewTemplate("primitive", "integer").
			WithValue("seven"),
		"fractional_integer": api.NewTemplate("primitive", "integer").
			WithValue(1.5),
		"non_null": api.NewTemplate("primitive", "null").WithValue(1),
		"missing_child": api.NewTemplate("variable", "set").
			WithBlock("name", h.Str("x")),
		"list_for_block": api.NewTemplate("variable", "get").
			WithList("name", h.Str("x")),
		"break_outside_loop": h.Group(h.Break()),
		"continue_outside_loop": h.If(
			h.Compare(h.Int(1), "==", h.Int(1)), h.Continue(),
		),
		"unknown_operator": h.Condition(
			h.Operand(h.Int(1)), h.Op("^^"),
		),
		"dangling_operator": h.Condition(h.Operand(h.Int(1)), h.Op("+")),
		"non_fragment":      h.Condition(h.Int(1)),
		"unbalanced":        h.Condition(h.Open(), h.Operand(h.Int(1))),
	}

	for name, tmpl := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := r.Load(tmpl)
			assert.Error(t, err)
		})
	}
}
