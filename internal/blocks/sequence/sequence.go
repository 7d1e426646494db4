// Package sequence provides the blocks that build and manipulate ordered
// sequences. Mutators change the sequence held by a named variable in place
package sequence

import (
	"context"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/common"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/value"
)

const Type = "sequence"

const (
	ActionCreate   = "create"
	ActionGet      = "get"
	ActionSet      = "set"
	ActionAppend   = "append"
	ActionCount    = "count"
	ActionContains = "contains"
)

// Child slots
const (
	SlotEntries = "entries"
	SlotTarget  = "target"
	SlotName    = "name"
	SlotIndex   = "index"
	SlotValue   = "value"
)

// Register adds the sequence family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionCreate: common.DefineSpec(common.Spec{
			Run:   create,
			Lists: []string{SlotEntries},
		}),
		ActionGet:      common.Define(get, SlotTarget, SlotIndex),
		ActionSet:      common.Define(set, SlotName, SlotIndex, SlotValue),
		ActionAppend:   common.Define(appendValue, SlotName, SlotValue),
		ActionCount:    common.Define(count, SlotTarget),
		ActionContains: common.Define(contains, SlotTarget, SlotValue),
	})
}

func create(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	res := value.NewSequence()
	for _, b := range op.List(SlotEntries).All() {
		v, err := op.EvalAny(ctx, st, b)
		if err != nil {
			return nil, err
		}
		res.Append(value.Clone(v))
	}
	return res, nil
}

func get(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	seq, err := op.SequenceArg(ctx, st, SlotTarget)
	if err != nil {
		return nil, err
	}
	idx, err := op.IntArg(ctx, st, SlotIndex)
	if err != nil {
		return nil, err
	}
	res, err := seq.Get(idx)
	if err != nil {
		return nil, op.Invalid("%w", err)
	}
	return res, nil
}

func set(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	seq, err := variable(ctx, st, op)
	if err != nil {
		return nil, err
	}
	idx, err := op.IntArg(ctx, st, SlotIndex)
	if err != nil {
		return nil, err
	}
	v, err := op.AnyArg(ctx, st, SlotValue)
	if err != nil {
		return nil, err
	}
	if err := seq.Set(idx, value.Clone(v)); err != nil {
		return nil, op.Invalid("%w", err)
	}
	return seq, nil
}

func appendValue(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	seq, err := variable(ctx, st, op)
	if err != nil {
		return nil, err
	}
	v, err := op.AnyArg(ctx, st, SlotValue)
	if err != nil {
		return nil, err
	}
	seq.Append(value.Clone(v))
	return seq, nil
}

func count(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	seq, err := op.SequenceArg(ctx, st, SlotTarget)
	if err != nil {
		return nil, err
	}
	return int64(seq.Len()), nil
}

func contains(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	seq, err := op.SequenceArg(ctx, st, SlotTarget)
	if err != nil {
		return nil, err
	}
	v, err := op.AnyArg(ctx, st, SlotValue)
	if err != nil {
		return nil, err
	}
	return seq.Contains(v), nil
}

func variable(
	ctx context.Context, st *session.Storage, op *common.Op,
) (*value.Sequence, error) {
	_, v, err := op.VariableArg(ctx, st, SlotName)
	if err != nil {
		return nil, err
	}
	seq, ok := v.(*value.Sequence)
	if !ok {
		return nil, op.WrongType(value.TypeSequence, v)
	}
	return seq, nil
}
