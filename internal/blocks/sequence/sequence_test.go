package sequence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	as "github.com/kode4food/bizunit/internal/assert"
	h "github.com/kode4food/bizunit/internal/assert/helpers"
	"github.com/kode4food/bizunit/internal/blocks/sequence"
	"github.com/kode4food/bizunit/internal/value"
	"github.com/kode4food/bizunit/pkg/api"
)

func seqOp(action string, args h.Args) *api.Template {
	return h.Block(sequence.Type, action, args)
}

func TestSequence(t *testing.T) {
	env := h.NewTestEnv(t)
	st := env.Session(t)

	_, err := env.ExecIn(t, st, h.Let("s", h.Seq(h.Int(1), h.Str("two")))...)
	assert.NoError(t, err)

	t.Run("get", func(t *testing.T) {
		res, err := env.ExecIn(t, st, seqOp(sequence.ActionGet, h.Args{
			sequence.SlotTarget: h.Get("s"),
			sequence.SlotIndex:  h.Int(1),
		}))
		assert.NoError(t, err)
		assert.Equal(t, "two", res)
	})

	t.Run("get_out_of_range", func(t *testing.T) {
		_, err := env.ExecIn(t, st, seqOp(sequence.ActionGet, h.Args{
			sequence.SlotTarget: h.Get("s"),
			sequence.SlotIndex:  h.Int(5),
		}))
		as.New(t).InvalidArgument(err)
	})

	t.Run("append_and_count", func(t *testing.T) {
		res, err := env.ExecIn(t, st,
			seqOp(sequence.ActionAppend, h.Args{
				sequence.SlotName:  h.Str("s"),
				sequence.SlotValue: h.Bool(true),
			}),
			seqOp(sequence.ActionCount, h.Args{
				sequence.SlotTarget: h.Get("s"),
			}),
		)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), res)
	})

	t.Run("set", func(t *testing.T) {
		res, err := env.ExecIn(t, st, seqOp(sequence.ActionSet, h.Args{
			sequence.SlotName:  h.Str("s"),
			sequence.SlotIndex: h.Int(0),
			sequence.SlotValue: h.Str("one"),
		}))
		assert.NoError(t, err)
		as.New(t).ValueEqual(value.NewSequence("one", "two", true), res)
	})

	t.Run("contains", func(t *testing.T) {
		res, err := env.ExecIn(t, st, seqOp(sequence.ActionContains, h.Args{
			sequence.SlotTarget: h.Get("s"),
			sequence.SlotValue:  h.Str("two"),
		}))
		assert.NoError(t, err)
		assert.Equal(t, true, res)
	})
}

func TestSequenceTypes(t *testing.T) {
	env := h.NewTestEnv(t)

	t.Run("target_not_sequence", func(t *testing.T) {
		_, err := env.Exec(t, seqOp(sequence.ActionCount, h.Args{
			sequence.SlotTarget: h.Str("nope"),
		}))
		as.New(t).WrongType(err)
	})

	t.Run("variable_not_sequence", func(t *testing.T) {
		_, err := env.Exec(t, h.Flatten(
			h.Let("s", h.Int(1)),
			[]*api.Template{seqOp(sequence.ActionAppend, h.Args{
				sequence.SlotName:  h.Str("s"),
				sequence.SlotValue: h.Int(2),
			})},
		)...)
		as.New(t).WrongType(err)
	})

	t.Run("index_not_integer", func(t *testing.T) {
		_, err := env.Exec(t, seqOp(sequence.ActionGet, h.Args{
			sequence.SlotTarget: h.Seq(),
			sequence.SlotIndex:  h.Str("0"),
		}))
		as.New(t).WrongType(err)
	})
}
