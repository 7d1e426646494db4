// Package control provides branching, grouping and looping blocks, and the
// loop control blocks that raise break and continue signals
package control

import (
	"context"
	"fmt"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/pkg/api"
)

type (
	// If runs one of two branches depending on a boolean condition
	If struct {
		block.Base
		condition block.Block
		then      *block.Aggregator
		otherwise *block.Aggregator
	}

	// Sequence runs its body as a group, returning the last value
	Sequence struct {
		block.Base
		body *block.Aggregator
	}

	// Break stops the nearest enclosing loop
	Break struct {
		block.Base
	}

	// Continue ends the current iteration of the nearest enclosing loop
	Continue struct {
		block.Base
	}
)

const Type = "control"

const (
	ActionIf       = "if"
	ActionSequence = "sequence"
	ActionFor      = "for"
	ActionWhile    = "while"
	ActionForEach  = "foreach"
	ActionBreak    = "break"
	ActionContinue = "continue"
)

// Child slots
const (
	SlotCondition = "condition"
	SlotThen      = "then"
	SlotElse      = "else"
	SlotBody      = "body"
	SlotInit      = "init"
	SlotCounter   = "counter"
	SlotSource    = "source"
	SlotKey       = "key"
	SlotValue     = "value"
)

var (
	_ block.Block = (*If)(nil)
	_ block.Block = (*Sequence)(nil)
	_ block.Block = (*Break)(nil)
	_ block.Block = (*Continue)(nil)
)

// Register adds the control family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionIf:       loadIf,
		ActionSequence: loadSequence,
		ActionFor:      loadFor,
		ActionWhile:    loadWhile,
		ActionForEach:  loadForEach,
		ActionBreak:    loadBreak,
		ActionContinue: loadContinue,
	})
}

func loadIf(l *block.Loader, t *api.Template) (block.Block, error) {
	cond, err := l.Child(t, SlotCondition)
	if err != nil {
		return nil, err
	}
	then, err := l.List(t, SlotThen)
	if err != nil {
		return nil, err
	}
	otherwise, err := l.OptionalList(t, SlotElse)
	if err != nil {
		return nil, err
	}
	return &If{
		Base:      block.NewBase(t),
		condition: cond,
		then:      then,
		otherwise: otherwise,
	}, nil
}

func (b *If) Execute(ctx context.Context, st *session.Storage) (any, error) {
	ok, err := b.EvalBool(ctx, st, b.condition)
	if err != nil {
		return nil, err
	}
	if ok {
		return b.then.Execute(ctx, st)
	}
	return b.otherwise.Execute(ctx, st)
}

func (b *If) Template() *api.Template {
	res := b.Header().
		WithBlock(SlotCondition, b.condition.Template()).
		WithList(SlotThen, b.then.Templates()...)
	return block.WithList(res, SlotElse, b.otherwise)
}

func loadSequence(l *block.Loader, t *api.Template) (block.Block, error) {
	body, err := l.List(t, SlotBody)
	if err != nil {
		return nil, err
	}
	return &Sequence{
		Base: block.NewBase(t),
		body: body,
	}, nil
}

func (b *Sequence) Execute(
	ctx context.Context, st *session.Storage,
) (any, error) {
	return b.body.Execute(ctx, st)
}

func (b *Sequence) Template() *api.Template {
	return b.Header().WithList(SlotBody, b.body.Templates()...)
}

func loadBreak(l *block.Loader, t *api.Template) (block.Block, error) {
	if err := checkInLoop(l, t); err != nil {
		return nil, err
	}
	return &Break{Base: block.NewBase(t)}, nil
}

func (b *Break) Execute(context.Context, *session.Storage) (any, error) {
	return nil, &block.BreakSignal{}
}

func (b *Break) Template() *api.Template {
	return b.Header()
}

func loadContinue(l *block.Loader, t *api.Template) (block.Block, error) {
	if err := checkInLoop(l, t); err != nil {
		return nil, err
	}
	return &Continue{Base: block.NewBase(t)}, nil
}

func (b *Continue) Execute(context.Context, *session.Storage) (any, error) {
	return nil, &block.ContinueSignal{}
}

func (b *Continue) Template() *api.Template {
	return b.Header()
}

func checkInLoop(l *block.Loader, t *api.Template) error {
	if l.InLoop() {
		return nil
	}
	return fmt.Errorf("%w: %s/%s", block.ErrOutsideLoop, t.Type, t.Action)
}
