package control

import (
	"context"
	"errors"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/scope"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/value"
	"github.com/kode4food/bizunit/pkg/api"
)

type (
	// For runs init once, then body and counter while condition holds.
	// An absent condition is always true
	For struct {
		block.Base
		init      *block.Aggregator
		condition block.Block
		counter   *block.Aggregator
		body      *block.Aggregator
	}

	// While runs body while condition holds
	While struct {
		block.Base
		condition block.Block
		body      *block.Aggregator
	}

	// ForEach runs body once per element of a sequence or hashmap, binding
	// the element's key and value to variables in the loop frame
	ForEach struct {
		block.Base
		source block.Block
		key    block.Block
		value  block.Block
		body   *block.Aggregator
	}

	// outcome is how one pass over a loop body ended
	outcome int
)

const (
	proceed outcome = iota
	stop
)

var (
	_ block.Block = (*For)(nil)
	_ block.Block = (*While)(nil)
	_ block.Block = (*ForEach)(nil)
)

func loadFor(l *block.Loader, t *api.Template) (block.Block, error) {
	initial, err := l.OptionalList(t, SlotInit)
	if err != nil {
		return nil, err
	}
	cond, err := l.OptionalChild(t, SlotCondition)
	if err != nil {
		return nil, err
	}
	counter, err := l.OptionalList(t, SlotCounter)
	if err != nil {
		return nil, err
	}
	body, err := loadBody(l, t)
	if err != nil {
		return nil, err
	}
	return &For{
		Base:      block.NewBase(t),
		init:      initial,
		condition: cond,
		counter:   counter,
		body:      body,
	}, nil
}

// Execute pushes one frame for the whole loop. A continue still runs the
// counter; a break skips it
func (b *For) Execute(
	ctx context.Context, st *session.Storage,
) (any, error) {
	st.Stack.Push()
	defer popFrame(st)

	if _, err := b.init.Execute(ctx, st); err != nil {
		return nil, err
	}
	for {
		if err := b.CheckContext(ctx); err != nil {
			return nil, err
		}
		ok, err := b.test(ctx, st)
		if err != nil || !ok {
			return nil, err
		}
		res, err := runBody(ctx, st, b.body)
		if err != nil || res == stop {
			return nil, err
		}
		if _, err := b.counter.Execute(ctx, st); err != nil {
			return nil, err
		}
	}
}

func (b *For) test(ctx context.Context, st *session.Storage) (bool, error) {
	if b.condition == nil {
		return true, nil
	}
	return b.EvalBool(ctx, st, b.condition)
}

func (b *For) Template() *api.Template {
	res := block.WithList(b.Header(), SlotInit, b.init)
	res = block.WithBlock(res, SlotCondition, b.condition)
	res = block.WithList(res, SlotCounter, b.counter)
	return res.WithList(SlotBody, b.body.Templates()...)
}

func loadWhile(l *block.Loader, t *api.Template) (block.Block, error) {
	cond, err := l.Child(t, SlotCondition)
	if err != nil {
		return nil, err
	}
	body, err := loadBody(l, t)
	if err != nil {
		return nil, err
	}
	return &While{
		Base:      block.NewBase(t),
		condition: cond,
		body:      body,
	}, nil
}

func (b *While) Execute(
	ctx context.Context, st *session.Storage,
) (any, error) {
	st.Stack.Push()
	defer popFrame(st)

	for {
		if err := b.CheckContext(ctx); err != nil {
			return nil, err
		}
		ok, err := b.EvalBool(ctx, st, b.condition)
		if err != nil || !ok {
			return nil, err
		}
		res, err := runBody(ctx, st, b.body)
		if err != nil || res == stop {
			return nil, err
		}
	}
}

func (b *While) Template() *api.Template {
	return b.Header().
		WithBlock(SlotCondition, b.condition.Template()).
		WithList(SlotBody, b.body.Templates()...)
}

func loadForEach(l *block.Loader, t *api.Template) (block.Block, error) {
	src, err := l.Child(t, SlotSource)
	if err != nil {
		return nil, err
	}
	key, err := l.OptionalChild(t, SlotKey)
	if err != nil {
		return nil, err
	}
	val, err := l.OptionalChild(t, SlotValue)
	if err != nil {
		return nil, err
	}
	body, err := loadBody(l, t)
	if err != nil {
		return nil, err
	}
	return &ForEach{
		Base:   block.NewBase(t),
		source: src,
		key:    key,
		value:  val,
		body:   body,
	}, nil
}

func (b *ForEach) Execute(
	ctx context.Context, st *session.Storage,
) (any, error) {
	keyName, err := b.optionalName(ctx, st, b.key)
	if err != nil {
		return nil, err
	}
	valName, err := b.optionalName(ctx, st, b.value)
	if err != nil {
		return nil, err
	}
	src, err := b.EvalAny(ctx, st, b.source)
	if err != nil {
		return nil, err
	}

	var keys, vals []any
	switch src := src.(type) {
	case *value.Sequence:
		for i, v := range src.All() {
			keys = append(keys, i)
			vals = append(vals, v)
		}
	case *value.HashMap:
		for k, v := range src.All() {
			keys = append(keys, k.Value())
			vals = append(vals, v)
		}
	default:
		return nil, b.WrongType("sequence or hashmap", src)
	}

	frame := st.Stack.Push()
	defer popFrame(st)

	for i := range keys {
		if err := b.CheckContext(ctx); err != nil {
			return nil, err
		}
		bind(frame, keyName, keys[i])
		bind(frame, valName, value.Clone(vals[i]))
		res, err := runBody(ctx, st, b.body)
		if err != nil || res == stop {
			return nil, err
		}
	}
	return nil, nil
}

func (b *ForEach) optionalName(
	ctx context.Context, st *session.Storage, c block.Block,
) (string, error) {
	if c == nil {
		return "", nil
	}
	return b.EvalString(ctx, st, c)
}

func (b *ForEach) Template() *api.Template {
	res := b.Header().WithBlock(SlotSource, b.source.Template())
	res = block.WithBlock(res, SlotKey, b.key)
	res = block.WithBlock(res, SlotValue, b.value)
	return res.WithList(SlotBody, b.body.Templates()...)
}

func loadBody(l *block.Loader, t *api.Template) (*block.Aggregator, error) {
	var body *block.Aggregator
	err := l.Loop(func() error {
		var err error
		body, err = l.List(t, SlotBody)
		return err
	})
	return body, err
}

// runBody runs one iteration, absorbing the loop control signals
func runBody(
	ctx context.Context, st *session.Storage, body *block.Aggregator,
) (outcome, error) {
	_, err := body.Execute(ctx, st)
	if err == nil {
		return proceed, nil
	}
	var brk *block.BreakSignal
	if errors.As(err, &brk) {
		return stop, nil
	}
	var cont *block.ContinueSignal
	if errors.As(err, &cont) {
		return proceed, nil
	}
	return stop, err
}

func bind(f scope.Frame, name string, v any) {
	if name != "" {
		f[name] = v
	}
}

func popFrame(st *session.Storage) {
	if err := st.Stack.Pop(); err != nil {
		st.Logger().Error("Loop frame missing on exit")
	}
}
