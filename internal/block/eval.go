package block

import (
	"context"
	"fmt"

	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/value"
	"github.com/kode4food/bizunit/pkg/log"
)

// Eval is the single boundary through which a block runs a child. Block
// errors and control-flow signals pass through unchanged. Any other failure,
// including a panic, is logged with full detail and normalized into a
// runtime error attributed to the child
func Eval(
	ctx context.Context, st *session.Storage, b Block,
) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = normalize(st, b, fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()

	res, err = b.Execute(ctx, st)
	if err == nil {
		return res, nil
	}
	if IsSignal(err) {
		return nil, err
	}
	if _, ok := AsError(err); ok {
		return nil, err
	}
	return nil, normalize(st, b, err)
}

func normalize(st *session.Storage, b Block, cause error) error {
	st.Logger().Error("Block failed",
		log.BlockType(b.Type()),
		log.BlockAction(b.Action()),
		log.Extra(b.Extra()),
		log.Error(cause))
	return &Error{
		Kind:   ErrRuntime,
		Reason: ErrFailed,
		Extra:  b.Extra(),
		Type:   b.Type(),
		Action: b.Action(),
		cause:  cause,
	}
}

// StorageFailure logs a collaborator failure and returns it as a storage
// error attributed to this block
func (b *Base) StorageFailure(st *session.Storage, cause error) *Error {
	st.Logger().Error("Collaborator failed",
		log.BlockType(b.typ),
		log.BlockAction(b.action),
		log.Extra(b.extra),
		log.Error(cause))
	return b.Fail(ErrStorage, ErrUnavailable, cause)
}

// CheckContext fails with a runtime error once ctx is done
func (b *Base) CheckContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return b.Fail(ErrRuntime, err, err)
	}
	return nil
}

// EvalAny evaluates child without asserting its type
func (b *Base) EvalAny(
	ctx context.Context, st *session.Storage, child Block,
) (any, error) {
	return Eval(ctx, st, child)
}

// EvalString evaluates child and asserts a string result
func (b *Base) EvalString(
	ctx context.Context, st *session.Storage, child Block,
) (string, error) {
	return evalAs[string](ctx, st, b, child, value.TypeString)
}

// EvalInt evaluates child and asserts an integer result
func (b *Base) EvalInt(
	ctx context.Context, st *session.Storage, child Block,
) (int64, error) {
	return evalAs[int64](ctx, st, b, child, value.TypeInteger)
}

// EvalBool evaluates child and asserts a boolean result
func (b *Base) EvalBool(
	ctx context.Context, st *session.Storage, child Block,
) (bool, error) {
	return evalAs[bool](ctx, st, b, child, value.TypeBool)
}

// EvalNumber evaluates child and asserts an integer or float result,
// returned as a float
func (b *Base) EvalNumber(
	ctx context.Context, st *session.Storage, child Block,
) (float64, error) {
	res, err := Eval(ctx, st, child)
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, b.WrongType("number", res)
	}
}

// EvalHashMap evaluates child and asserts a hashmap result
func (b *Base) EvalHashMap(
	ctx context.Context, st *session.Storage, child Block,
) (*value.HashMap, error) {
	return evalAs[*value.HashMap](ctx, st, b, child, value.TypeHashMap)
}

// EvalSequence evaluates child and asserts a sequence result
func (b *Base) EvalSequence(
	ctx context.Context, st *session.Storage, child Block,
) (*value.Sequence, error) {
	return evalAs[*value.Sequence](ctx, st, b, child, value.TypeSequence)
}

// EvalKey evaluates child and asserts a valid hashmap key
func (b *Base) EvalKey(
	ctx context.Context, st *session.Storage, child Block,
) (value.Key, error) {
	res, err := Eval(ctx, st, child)
	if err != nil {
		return value.Key{}, err
	}
	k, err := value.MakeKey(res)
	if err != nil {
		return value.Key{}, b.Invalid("%w", err)
	}
	return k, nil
}

// EvalScalar evaluates child and asserts a scalar result
func (b *Base) EvalScalar(
	ctx context.Context, st *session.Storage, child Block,
) (any, error) {
	res, err := Eval(ctx, st, child)
	if err != nil {
		return nil, err
	}
	if !value.IsScalar(res) {
		return nil, b.WrongType("scalar", res)
	}
	return res, nil
}

func evalAs[T any](
	ctx context.Context, st *session.Storage, b *Base, child Block,
	typeName string,
) (T, error) {
	var zero T
	res, err := Eval(ctx, st, child)
	if err != nil {
		return zero, err
	}
	v, ok := res.(T)
	if !ok {
		return zero, b.WrongType(typeName, res)
	}
	return v, nil
}
