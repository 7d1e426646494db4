// Package common provides the generic block used by families whose blocks
// evaluate a fixed set of named children and then compute a result
package common

import (
	"context"
	"maps"
	"slices"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/value"
	"github.com/kode4food/bizunit/pkg/api"
)

type (
	// Spec describes the child slots of a block and the function that runs
	// it. Required slots must be present at load time
	Spec struct {
		Run           RunFunc
		Required      []string
		Optional      []string
		Lists         []string
		OptionalLists []string
		Maps          []string
	}

	// RunFunc computes the result of an Op
	RunFunc func(ctx context.Context, st *session.Storage, op *Op) (any, error)

	// Op is a block defined by a Spec
	Op struct {
		block.Base
		run   RunFunc
		slots map[string]block.Block
		lists map[string]*block.Aggregator
		maps  map[string]*block.Named
	}
)

var _ block.Block = (*Op)(nil)

// Define returns a constructor for a block with only required single-block
// children
func Define(run RunFunc, required ...string) block.Constructor {
	return DefineSpec(Spec{
		Run:      run,
		Required: required,
	})
}

// DefineSpec returns a constructor for the block described by s
func DefineSpec(s Spec) block.Constructor {
	return func(l *block.Loader, t *api.Template) (block.Block, error) {
		op := &Op{
			Base:  block.NewBase(t),
			run:   s.Run,
			slots: map[string]block.Block{},
			lists: map[string]*block.Aggregator{},
			maps:  map[string]*block.Named{},
		}
		for _, name := range s.Required {
			b, err := l.Child(t, name)
			if err != nil {
				return nil, err
			}
			op.slots[name] = b
		}
		for _, name := range s.Optional {
			b, err := l.OptionalChild(t, name)
			if err != nil {
				return nil, err
			}
			if b != nil {
				op.slots[name] = b
			}
		}
		for _, name := range s.Lists {
			a, err := l.List(t, name)
			if err != nil {
				return nil, err
			}
			op.lists[name] = a
		}
		for _, name := range s.OptionalLists {
			a, err := l.OptionalList(t, name)
			if err != nil {
				return nil, err
			}
			if a != nil {
				op.lists[name] = a
			}
		}
		for _, name := range s.Maps {
			n, err := l.Map(t, name)
			if err != nil {
				return nil, err
			}
			op.maps[name] = n
		}
		return op, nil
	}
}

func (o *Op) Execute(ctx context.Context, st *session.Storage) (any, error) {
	return o.run(ctx, st, o)
}

func (o *Op) Template() *api.Template {
	res := o.Header()
	for _, name := range sortedKeys(o.slots) {
		res = block.WithBlock(res, name, o.slots[name])
	}
	for _, name := range sortedKeys(o.lists) {
		res = block.WithList(res, name, o.lists[name])
	}
	for _, name := range sortedKeys(o.maps) {
		res = block.WithMap(res, name, o.maps[name])
	}
	return res
}

// Has reports whether the optional child slot name was supplied
func (o *Op) Has(name string) bool {
	_, ok := o.slots[name]
	return ok
}

// Slot returns the child loaded into slot name, or nil
func (o *Op) Slot(name string) block.Block {
	return o.slots[name]
}

// List returns the list loaded into slot name, or nil
func (o *Op) List(name string) *block.Aggregator {
	return o.lists[name]
}

// Map returns the named map loaded into slot name, or nil
func (o *Op) Map(name string) *block.Named {
	return o.maps[name]
}

// AnyArg evaluates slot name without asserting its type
func (o *Op) AnyArg(
	ctx context.Context, st *session.Storage, name string,
) (any, error) {
	c, err := o.slot(name)
	if err != nil {
		return nil, err
	}
	return o.EvalAny(ctx, st, c)
}

// StringArg evaluates slot name and asserts a string
func (o *Op) StringArg(
	ctx context.Context, st *session.Storage, name string,
) (string, error) {
	c, err := o.slot(name)
	if err != nil {
		return "", err
	}
	return o.EvalString(ctx, st, c)
}

// IntArg evaluates slot name and asserts an integer
func (o *Op) IntArg(
	ctx context.Context, st *session.Storage, name string,
) (int64, error) {
	c, err := o.slot(name)
	if err != nil {
		return 0, err
	}
	return o.EvalInt(ctx, st, c)
}

// NumberArg evaluates slot name and asserts a number
func (o *Op) NumberArg(
	ctx context.Context, st *session.Storage, name string,
) (float64, error) {
	c, err := o.slot(name)
	if err != nil {
		return 0, err
	}
	return o.EvalNumber(ctx, st, c)
}

// BoolArg evaluates slot name and asserts a boolean
func (o *Op) BoolArg(
	ctx context.Context, st *session.Storage, name string,
) (bool, error) {
	c, err := o.slot(name)
	if err != nil {
		return false, err
	}
	return o.EvalBool(ctx, st, c)
}

// KeyArg evaluates slot name and asserts a hashmap key
func (o *Op) KeyArg(
	ctx context.Context, st *session.Storage, name string,
) (value.Key, error) {
	c, err := o.slot(name)
	if err != nil {
		return value.Key{}, err
	}
	return o.EvalKey(ctx, st, c)
}

// ScalarArg evaluates slot name and asserts a scalar
func (o *Op) ScalarArg(
	ctx context.Context, st *session.Storage, name string,
) (any, error) {
	c, err := o.slot(name)
	if err != nil {
		return nil, err
	}
	return o.EvalScalar(ctx, st, c)
}

// HashMapArg evaluates slot name and asserts a hashmap
func (o *Op) HashMapArg(
	ctx context.Context, st *session.Storage, name string,
) (*value.HashMap, error) {
	c, err := o.slot(name)
	if err != nil {
		return nil, err
	}
	return o.EvalHashMap(ctx, st, c)
}

// SequenceArg evaluates slot name and asserts a sequence
func (o *Op) SequenceArg(
	ctx context.Context, st *session.Storage, name string,
) (*value.Sequence, error) {
	c, err := o.slot(name)
	if err != nil {
		return nil, err
	}
	return o.EvalSequence(ctx, st, c)
}

// VariableArg evaluates slot name as a variable name and resolves the
// variable, failing with not found when it is undeclared
func (o *Op) VariableArg(
	ctx context.Context, st *session.Storage, slot string,
) (string, any, error) {
	name, err := o.StringArg(ctx, st, slot)
	if err != nil {
		return "", nil, err
	}
	v, ok := st.Lookup(name)
	if !ok {
		return "", nil, o.NotFound(name)
	}
	return name, v, nil
}

func (o *Op) slot(name string) (block.Block, error) {
	if c, ok := o.slots[name]; ok {
		return c, nil
	}
	return nil, o.Invalid("%w: child %q", block.ErrNotFound, name)
}

func sortedKeys[T any](m map[string]T) []string {
	return slices.Sorted(maps.Keys(m))
}
