package block_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/events"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/value"
	"github.com/kode4food/bizunit/pkg/api"
	"github.com/kode4food/bizunit/pkg/log"
)

type (
	constBlock struct {
		block.Base
		val any
	}

	funcBlock struct {
		block.Base
		fn func() (any, error)
	}

	holderBlock struct {
		block.Base
		child block.Block
	}
)

func (b *constBlock) Execute(context.Context, *session.Storage) (any, error) {
	return b.val, nil
}

func (b *constBlock) Template() *api.Template {
	return b.Header().WithValue(b.val)
}

func (b *funcBlock) Execute(context.Context, *session.Storage) (any, error) {
	return b.fn()
}

func (b *funcBlock) Template() *api.Template {
	return b.Header()
}

func (b *holderBlock) Execute(
	ctx context.Context, st *session.Storage,
) (any, error) {
	return b.EvalString(ctx, st, b.child)
}

func (b *holderBlock) Template() *api.Template {
	return b.Header().WithBlock("value", b.child.Template())
}

func newStorage(t *testing.T) *session.Storage {
	t.Helper()
	st, err := session.New(&session.Dependencies{
		Logger: log.Discard(),
		Events: events.Discard,
	}, nil, nil)
	require.NoError(t, err)
	return st
}

func newConst(v any) *constBlock {
	return &constBlock{
		Base: block.NewBase(api.NewTemplate("test", "const")),
		val:  v,
	}
}

func newFunc(fn func() (any, error)) *funcBlock {
	t := api.NewTemplate("test", "func").WithExtra(api.Extra{"id": "f1"})
	return &funcBlock{Base: block.NewBase(t), fn: fn}
}

func newRegistry(t *testing.T) *block.Registry {
	t.Helper()
	reg := block.NewRegistry()
	require.NoError(t, reg.RegisterFamily("test", block.Actions{
		"const": func(_ *block.Loader, t *api.Template) (block.Block, error) {
			var v any
			if err := t.DecodeValue(&v); err != nil {
				return nil, err
			}
			return &constBlock{Base: block.NewBase(t), val: v}, nil
		},
		"holder": func(l *block.Loader, t *api.Template) (block.Block, error) {
			child, err := l.Child(t, "value")
			if err != nil {
				return nil, err
			}
			return &holderBlock{Base: block.NewBase(t), child: child}, nil
		},
	}))
	return reg
}

func TestEvalPassesDomainErrors(t *testing.T) {
	st := newStorage(t)
	inner := newConst(nil).Invalid("bad input")
	b := newFunc(func() (any, error) { return nil, inner })

	_, err := block.Eval(context.Background(), st, b)
	assert.Same(t, inner, err)
}

func TestEvalPassesSignals(t *testing.T) {
	st := newStorage(t)
	b := newFunc(func() (any, error) { return nil, &block.BreakSignal{} })

	_, err := block.Eval(context.Background(), st, b)
	var sig *block.BreakSignal
	assert.ErrorAs(t, err, &sig)
	_, isErr := block.AsError(err)
	assert.False(t, isErr)
}

func TestEvalWrapsFailures(t *testing.T) {
	st := newStorage(t)
	cause := errors.New("connection reset")
	b := newFunc(func() (any, error) { return nil, cause })

	_, err := block.Eval(context.Background(), st, b)
	e, ok := block.AsError(err)
	require.True(t, ok)
	assert.ErrorIs(t, err, block.ErrRuntime)
	assert.NotErrorIs(t, err, cause)
	assert.Equal(t, cause, e.Cause())
	assert.Equal(t, "test", e.Type)
	assert.Equal(t, "func", e.Action)
	assert.Equal(t, api.Extra{"id": "f1"}, e.Extra)
}

func TestEvalRecoversPanics(t *testing.T) {
	st := newStorage(t)
	b := newFunc(func() (any, error) { panic("boom") })

	_, err := block.Eval(context.Background(), st, b)
	assert.ErrorIs(t, err, block.ErrRuntime)
	e, ok := block.AsError(err)
	require.True(t, ok)
	assert.ErrorIs(t, e.Cause(), block.ErrPanic)
}

func TestTypedAccessors(t *testing.T) {
	st := newStorage(t)
	ctx := context.Background()
	owner := newConst(nil)

	s, err := owner.EvalString(ctx, st, newConst("hi"))
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	_, err = owner.EvalString(ctx, st, newConst(int64(1)))
	assert.ErrorIs(t, err, block.ErrInvalidArgument)
	assert.ErrorIs(t, err, block.ErrWrongType)

	n, err := owner.EvalNumber(ctx, st, newConst(int64(3)))
	require.NoError(t, err)
	assert.Equal(t, 3.0, n)

	_, err = owner.EvalInt(ctx, st, newConst(3.5))
	assert.ErrorIs(t, err, block.ErrInvalidArgument)

	_, err = owner.EvalBool(ctx, st, newConst("true"))
	assert.ErrorIs(t, err, block.ErrInvalidArgument)

	k, err := owner.EvalKey(ctx, st, newConst(int64(7)))
	require.NoError(t, err)
	assert.Equal(t, value.IntKey(7), k)

	_, err = owner.EvalKey(ctx, st, newConst(value.NewSequence()))
	assert.ErrorIs(t, err, block.ErrInvalidArgument)
	assert.ErrorIs(t, err, value.ErrInvalidKey)

	_, err = owner.EvalScalar(ctx, st, newConst(value.NewHashMap()))
	assert.ErrorIs(t, err, block.ErrInvalidArgument)

	_, err = owner.EvalSequence(ctx, st, newConst(value.NewHashMap()))
	assert.ErrorIs(t, err, block.ErrInvalidArgument)

	_, err = owner.EvalHashMap(ctx, st, newConst(value.NewSequence()))
	assert.ErrorIs(t, err, block.ErrInvalidArgument)
}

func TestAggregator(t *testing.T) {
	st := newStorage(t)
	ctx := context.Background()

	agg := block.NewAggregator()
	assert.True(t, agg.IsEmpty())
	res, err := agg.Execute(ctx, st)
	require.NoError(t, err)
	assert.Nil(t, res)

	agg.Append(newConst(int64(1)))
	agg.Append(newConst(int64(2)))
	assert.Equal(t, 2, agg.Len())

	res, err = agg.Execute(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res)

	vals, err := agg.Values(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, vals)

	count := 0
	for range agg.All() {
		count++
	}
	assert.Equal(t, 2, count)
	assert.Len(t, agg.Templates(), 2)
}

func TestAggregatorStopsOnError(t *testing.T) {
	st := newStorage(t)
	ran := false
	agg := block.NewAggregator(
		newFunc(func() (any, error) { return nil, &block.ContinueSignal{} }),
		newFunc(func() (any, error) { ran = true; return nil, nil }),
	)

	_, err := agg.Execute(context.Background(), st)
	assert.True(t, block.IsSignal(err))
	assert.False(t, ran)
}

func TestRegistry(t *testing.T) {
	reg := newRegistry(t)
	assert.Equal(t, []string{"test"}, reg.Types())
	assert.Equal(t, []string{"const", "holder"}, reg.Actions("test"))

	_, err := reg.Lookup("test", "nope")
	assert.ErrorIs(t, err, block.ErrUnknownBlock)

	err = reg.Register("test", "const", nil)
	assert.ErrorIs(t, err, block.ErrDuplicateBlock)
}

func TestLoaderRoundTrip(t *testing.T) {
	reg := newRegistry(t)
	tmpl := api.NewTemplate("test", "holder").
		WithExtra(api.Extra{"pos": "1"}).
		WithBlock("value", api.NewTemplate("test", "const").WithValue("x"))

	b, err := reg.Load(tmpl)
	require.NoError(t, err)
	assert.Equal(t, tmpl, b.Template())

	res, err := block.Eval(context.Background(), newStorage(t), b)
	require.NoError(t, err)
	assert.Equal(t, "x", res)
}

func TestLoaderStructure(t *testing.T) {
	reg := newRegistry(t)

	t.Run("missing_child", func(t *testing.T) {
		_, err := reg.Load(api.NewTemplate("test", "holder"))
		assert.ErrorIs(t, err, block.ErrStructure)
	})

	t.Run("wrong_shape", func(t *testing.T) {
		tmpl := api.NewTemplate("test", "holder").WithList("value")
		_, err := reg.Load(tmpl)
		assert.ErrorIs(t, err, block.ErrStructure)
	})

	t.Run("unknown_child", func(t *testing.T) {
		tmpl := api.NewTemplate("test", "holder").
			WithBlock("value", api.NewTemplate("nope", "nope"))
		_, err := reg.Load(tmpl)
		assert.ErrorIs(t, err, block.ErrUnknownBlock)
	})

	t.Run("nil_template", func(t *testing.T) {
		_, err := reg.Load(nil)
		assert.ErrorIs(t, err, block.ErrStructure)
	})
}

func TestLoaderLoopDepth(t *testing.T) {
	l := block.NewRegistry().NewLoader()
	assert.False(t, l.InLoop())
	err := l.Loop(func() error {
		assert.True(t, l.InLoop())
		return l.Loop(func() error {
			assert.True(t, l.InLoop())
			return nil
		})
	})
	require.NoError(t, err)
	assert.False(t, l.InLoop())
}

func TestErrorMessage(t *testing.T) {
	err := newConst(nil).NotFound("x")
	assert.Equal(t, "test/const: invalid argument: not found: x", err.Error())
	assert.ErrorIs(t, err, block.ErrNotFound)
}
