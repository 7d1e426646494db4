// Package variable provides the blocks that declare, read and assign
// variables. Names resolve innermost frame first, falling back to the
// execution memory
package variable

import (
	"context"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/common"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/value"
)

const Type = "variable"

const (
	ActionCreate = "create"
	ActionGet    = "get"
	ActionSet    = "set"
	ActionExists = "exists"
)

// Child slots
const (
	SlotName  = "name"
	SlotValue = "value"
)

// Register adds the variable family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionCreate: common.Define(create, SlotName),
		ActionGet:    common.Define(get, SlotName),
		ActionSet:    common.Define(set, SlotName, SlotValue),
		ActionExists: common.Define(exists, SlotName),
	})
}

func create(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	name, err := op.StringArg(ctx, st, SlotName)
	if err != nil {
		return nil, err
	}
	st.Declare(name)
	return nil, nil
}

func get(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	_, v, err := op.VariableArg(ctx, st, SlotName)
	return v, err
}

func set(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	name, err := op.StringArg(ctx, st, SlotName)
	if err != nil {
		return nil, err
	}
	v, err := op.AnyArg(ctx, st, SlotValue)
	if err != nil {
		return nil, err
	}
	v = value.Clone(v)
	if !st.Assign(name, v) {
		return nil, op.NotFound(name)
	}
	return v, nil
}

func exists(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	name, err := op.StringArg(ctx, st, SlotName)
	if err != nil {
		return nil, err
	}
	_, ok := st.Lookup(name)
	return ok, nil
}
