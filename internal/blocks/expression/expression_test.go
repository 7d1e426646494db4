package expression_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	as "github.com/kode4food/bizunit/internal/assert"
	h "github.com/kode4food/bizunit/internal/assert/helpers"
	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/expr"
	"github.com/kode4food/bizunit/pkg/api"
)

func TestEvaluate(t *testing.T) {
	env := h.NewTestEnv(t)

	tests := []struct {
		name     string
		tmpl     *api.Template
		expected any
	}{
		{
			name: "precedence",
			tmpl: h.Evaluate(
				h.Operand(h.Int(2)), h.Op("+"), h.Operand(h.Int(3)),
				h.Op("*"), h.Operand(h.Int(4)),
			),
			expected: int64(14),
		},
		{
			name: "parentheses",
			tmpl: h.Evaluate(
				h.Open(), h.Operand(h.Int(2)), h.Op("+"),
				h.Operand(h.Int(3)), h.Close(), h.Op("*"),
				h.Operand(h.Int(4)),
			),
			expected: int64(20),
		},
		{
			name:     "mixed_numbers",
			tmpl:     h.Arith(h.Int(1), "+", h.Float(0.5)),
			expected: 1.5,
		},
		{
			name:     "concatenation",
			tmpl:     h.Arith(h.Str("a"), "+", h.Str("b")),
			expected: "ab",
		},
		{
			name:     "single_operand",
			tmpl:     h.Evaluate(h.Operand(h.Str("x"))),
			expected: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.Exec(t, tt.tmpl)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, res)
		})
	}
}

func TestCondition(t *testing.T) {
	env := h.NewTestEnv(t)

	t.Run("logic", func(t *testing.T) {
		res, err := env.Exec(t, h.Condition(
			h.Operand(h.Bool(true)), h.Op("&&"), h.Not(),
			h.Operand(h.Bool(false)),
		))
		assert.NoError(t, err)
		assert.Equal(t, true, res)
	})

	t.Run("short_circuit", func(t *testing.T) {
		res, err := env.Exec(t, h.Condition(
			h.Operand(h.Bool(false)), h.Op("&&"),
			h.Operand(h.Get("undeclared")),
		))
		assert.NoError(t, err)
		assert.Equal(t, false, res)
	})

	t.Run("requires_boolean", func(t *testing.T) {
		_, err := env.Exec(t, h.Condition(h.Operand(h.Int(1))))
		as.New(t).WrongType(err)
	})

	t.Run("type_mismatch", func(t *testing.T) {
		_, err := env.Exec(t, h.Compare(h.Int(1), "<", h.Str("a")))
		as.New(t).InvalidArgument(err)
	})

	t.Run("operand_failure_passes_through", func(t *testing.T) {
		_, err := env.Exec(t, h.Compare(h.Get("missing"), "==", h.Int(1)))
		be := as.New(t).NotFound(err)
		assert.Equal(t, "variable", be.Type)
	})
}

func TestDivideByZero(t *testing.T) {
	env := h.NewTestEnv(t)
	_, err := env.Exec(t, h.Arith(h.Int(1), "/", h.Int(0)))
	be := as.New(t).InvalidArgument(err)
	assert.Equal(t, "expression", be.Type)
	assert.NotErrorIs(t, err, block.ErrRuntime)
}

func TestIntegerOverflow(t *testing.T) {
	env := h.NewTestEnv(t)
	_, err := env.Exec(t, h.Arith(h.Int(math.MaxInt64), "*", h.Int(2)))
	be := as.New(t).InvalidArgument(err)
	assert.ErrorIs(t, be, expr.ErrOverflow)
	assert.Equal(t, "expression", be.Type)
}
