package expr

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/value"
)

type (
	// Node is an evaluable expression tree node
	Node interface {
		Eval(ctx context.Context, st *session.Storage) (any, error)
	}

	operandNode struct {
		block block.Block
	}

	notNode struct {
		expr Node
	}

	negNode struct {
		expr Node
	}

	binaryNode struct {
		left  Node
		right Node
		op    string
	}
)

var (
	ErrTypeMismatch = errors.New("operand type mismatch")
	ErrDivideByZero = errors.New("division by zero")
	ErrOverflow     = errors.New("integer overflow")
)

func (n *operandNode) Eval(
	ctx context.Context, st *session.Storage,
) (any, error) {
	return block.Eval(ctx, st, n.block)
}

func (n *notNode) Eval(ctx context.Context, st *session.Storage) (any, error) {
	v, err := n.expr.Eval(ctx, st)
	if err != nil {
		return nil, err
	}
	b, ok := v.(bool)
	if !ok {
		return nil, mismatch("!", v)
	}
	return !b, nil
}

func (n *negNode) Eval(ctx context.Context, st *session.Storage) (any, error) {
	v, err := n.expr.Eval(ctx, st)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case int64:
		if v == math.MinInt64 {
			return nil, overflow(OpSub, v)
		}
		return -v, nil
	case float64:
		return -v, nil
	default:
		return nil, mismatch(OpSub, v)
	}
}

func (n *binaryNode) Eval(
	ctx context.Context, st *session.Storage,
) (any, error) {
	l, err := n.left.Eval(ctx, st)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case OpAnd, OpOr:
		return n.logical(ctx, st, l)
	}

	r, err := n.right.Eval(ctx, st)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case OpEq, OpNeq:
		if !value.IsScalar(l) || !value.IsScalar(r) {
			return nil, mismatch(n.op, l, r)
		}
		eq := value.Equal(l, r)
		return eq == (n.op == OpEq), nil
	case OpLt, OpLte, OpGt, OpGte:
		return compare(n.op, l, r)
	default:
		return arithmetic(n.op, l, r)
	}
}

func (n *binaryNode) logical(
	ctx context.Context, st *session.Storage, l any,
) (any, error) {
	lb, ok := l.(bool)
	if !ok {
		return nil, mismatch(n.op, l)
	}
	if n.op == OpAnd && !lb || n.op == OpOr && lb {
		return lb, nil
	}
	r, err := n.right.Eval(ctx, st)
	if err != nil {
		return nil, err
	}
	rb, ok := r.(bool)
	if !ok {
		return nil, mismatch(n.op, r)
	}
	return rb, nil
}

func compare(op string, l, r any) (any, error) {
	var c int
	if ls, ok := l.(string); ok {
		rs, ok := r.(string)
		if !ok {
			return nil, mismatch(op, l, r)
		}
		c = cmpOrdered(ls, rs)
	} else {
		lf, lok := toFloat(l)
		rf, rok := toFloat(r)
		if !lok || !rok {
			return nil, mismatch(op, l, r)
		}
		if li, ok := l.(int64); ok {
			if ri, ok := r.(int64); ok {
				c = cmpOrdered(li, ri)
				return compareResult(op, c), nil
			}
		}
		c = cmpOrdered(lf, rf)
	}
	return compareResult(op, c), nil
}

func compareResult(op string, c int) bool {
	switch op {
	case OpLt:
		return c < 0
	case OpLte:
		return c <= 0
	case OpGt:
		return c > 0
	default:
		return c >= 0
	}
}

func cmpOrdered[T int64 | float64 | string](l, r T) int {
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

func arithmetic(op string, l, r any) (any, error) {
	if op == OpAdd {
		if ls, ok := l.(string); ok {
			if rs, ok := r.(string); ok {
				return ls + rs, nil
			}
			return nil, mismatch(op, l, r)
		}
	}

	li, lInt := l.(int64)
	ri, rInt := r.(int64)
	if lInt && rInt {
		return intArithmetic(op, li, ri)
	}

	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if !lok || !rok {
		return nil, mismatch(op, l, r)
	}
	return floatArithmetic(op, lf, rf)
}

func intArithmetic(op string, l, r int64) (any, error) {
	switch op {
	case OpAdd:
		res := l + r
		if (r > 0 && res < l) || (r < 0 && res > l) {
			return nil, overflow(op, l, r)
		}
		return res, nil
	case OpSub:
		res := l - r
		if (r < 0 && res < l) || (r > 0 && res > l) {
			return nil, overflow(op, l, r)
		}
		return res, nil
	case OpMul:
		if l == 0 || r == 0 {
			return int64(0), nil
		}
		res := l * r
		if res/r != l || (l == -1 && r == math.MinInt64) ||
			(r == -1 && l == math.MinInt64) {
			return nil, overflow(op, l, r)
		}
		return res, nil
	case OpDiv:
		if r == 0 {
			return nil, ErrDivideByZero
		}
		if l == math.MinInt64 && r == -1 {
			return nil, overflow(op, l, r)
		}
		if l%r == 0 {
			return l / r, nil
		}
		return float64(l) / float64(r), nil
	case OpMod:
		if r == 0 {
			return nil, ErrDivideByZero
		}
		return l % r, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}
}

func floatArithmetic(op string, l, r float64) (any, error) {
	switch op {
	case OpAdd:
		return l + r, nil
	case OpSub:
		return l - r, nil
	case OpMul:
		return l * r, nil
	case OpDiv:
		if r == 0 {
			return nil, ErrDivideByZero
		}
		return l / r, nil
	case OpMod:
		if r == 0 {
			return nil, ErrDivideByZero
		}
		return math.Mod(l, r), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func mismatch(op string, vals ...any) error {
	names := make([]string, len(vals))
	for i, v := range vals {
		names[i] = value.TypeName(v)
	}
	return fmt.Errorf("%w: %s on %v", ErrTypeMismatch, op, names)
}

func overflow(op string, vals ...any) error {
	return fmt.Errorf("%w: %s on %v", ErrOverflow, op, vals)
}
