// Package expression provides conditional and arithmetic expressions. An
// expression is an ordered list of fragment blocks, parsed into a syntax
// tree when the plan is loaded
package expression

import (
	"context"
	"fmt"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/expr"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/pkg/api"
)

type (
	// Expression evaluates a parsed fragment list. A condition requires a
	// boolean result; an evaluation returns any value
	Expression struct {
		block.Base
		frags []expr.Fragment
		root  expr.Node
		cond  bool
	}

	// Operand wraps a child block as an expression operand
	Operand struct {
		block.Base
		value block.Block
	}

	// Symbol is a fragment contributing only syntax: an operator, a
	// negation or a parenthesis
	Symbol struct {
		block.Base
		op   string
		kind expr.Kind
	}
)

const Type = "expression"

const (
	ActionCondition = "condition"
	ActionEvaluate  = "evaluate"
	ActionOperand   = "operand"
	ActionOperator  = "operator"
	ActionNot       = "not"
	ActionOpen      = "open"
	ActionClose     = "close"
)

// Child slots
const (
	SlotExpression = "expression"
	SlotValue      = "value"
)

var (
	_ block.Block   = (*Expression)(nil)
	_ expr.Fragment = (*Operand)(nil)
	_ expr.Fragment = (*Symbol)(nil)
)

// Register adds the expression family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionCondition: loadExpression(true),
		ActionEvaluate:  loadExpression(false),
		ActionOperand:   loadOperand,
		ActionOperator:  loadOperator,
		ActionNot:       loadSymbol(expr.KindNot, "!"),
		ActionOpen:      loadSymbol(expr.KindOpen, "("),
		ActionClose:     loadSymbol(expr.KindClose, ")"),
	})
}

func loadExpression(cond bool) block.Constructor {
	return func(l *block.Loader, t *api.Template) (block.Block, error) {
		list, err := l.List(t, SlotExpression)
		if err != nil {
			return nil, err
		}
		frags := make([]expr.Fragment, 0, list.Len())
		for _, b := range list.All() {
			f, ok := b.(expr.Fragment)
			if !ok {
				return nil, fmt.Errorf("%w: %s/%s: %s/%s is not a fragment",
					block.ErrStructure, t.Type, t.Action, b.Type(), b.Action())
			}
			frags = append(frags, f)
		}
		root, err := expr.Parse(expr.Tokens(frags...))
		if err != nil {
			return nil, fmt.Errorf("%w: %s/%s: %w",
				block.ErrStructure, t.Type, t.Action, err)
		}
		return &Expression{
			Base:  block.NewBase(t),
			frags: frags,
			root:  root,
			cond:  cond,
		}, nil
	}
}

func (e *Expression) Execute(
	ctx context.Context, st *session.Storage,
) (any, error) {
	res, err := e.root.Eval(ctx, st)
	if err != nil {
		if _, ok := block.AsError(err); ok || block.IsSignal(err) {
			return nil, err
		}
		return nil, e.Invalid("%w", err)
	}
	if !e.cond {
		return res, nil
	}
	if _, ok := res.(bool); !ok {
		return nil, e.WrongType("boolean", res)
	}
	return res, nil
}

func (e *Expression) Template() *api.Template {
	children := make([]*api.Template, len(e.frags))
	for i, f := range e.frags {
		children[i] = f.Template()
	}
	return e.Header().WithList(SlotExpression, children...)
}

func loadOperand(l *block.Loader, t *api.Template) (block.Block, error) {
	v, err := l.Child(t, SlotValue)
	if err != nil {
		return nil, err
	}
	return &Operand{
		Base:  block.NewBase(t),
		value: v,
	}, nil
}

func (o *Operand) Token() expr.Token {
	return expr.Token{Kind: expr.KindOperand, Operand: o.value}
}

func (o *Operand) Execute(
	ctx context.Context, st *session.Storage,
) (any, error) {
	return o.EvalAny(ctx, st, o.value)
}

func (o *Operand) Template() *api.Template {
	return o.Header().WithBlock(SlotValue, o.value.Template())
}

func loadOperator(_ *block.Loader, t *api.Template) (block.Block, error) {
	var sym string
	if err := t.DecodeValue(&sym); err != nil {
		return nil, fmt.Errorf("%w: %s/%s: missing operator symbol",
			block.ErrStructure, t.Type, t.Action)
	}
	if !expr.IsOperator(sym) {
		return nil, fmt.Errorf("%w: %s/%s: %w: %s",
			block.ErrStructure, t.Type, t.Action, expr.ErrUnknownOperator, sym)
	}
	return &Symbol{
		Base: block.NewBase(t),
		op:   sym,
		kind: expr.KindOperator,
	}, nil
}

func loadSymbol(kind expr.Kind, sym string) block.Constructor {
	return func(_ *block.Loader, t *api.Template) (block.Block, error) {
		return &Symbol{
			Base: block.NewBase(t),
			op:   sym,
			kind: kind,
		}, nil
	}
}

func (s *Symbol) Token() expr.Token {
	return expr.Token{Kind: s.kind, Op: s.op}
}

// Execute returns the symbol itself; a fragment has no meaning outside of
// its expression
func (s *Symbol) Execute(context.Context, *session.Storage) (any, error) {
	return s.op, nil
}

func (s *Symbol) Template() *api.Template {
	res := s.Header()
	if s.kind == expr.KindOperator {
		return res.WithValue(s.op)
	}
	return res
}
