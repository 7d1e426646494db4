// Package blob provides the blocks backed by the object storage
// collaborator. Object contents are exchanged as strings
package blob

import (
	"context"
	"errors"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/common"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/store/object"
	"github.com/kode4food/bizunit/internal/value"
)

const Type = "blob"

const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
	ActionExists = "exists"
	ActionList   = "list"
)

// Child slots
const (
	SlotKey    = "key"
	SlotValue  = "value"
	SlotPrefix = "prefix"
)

// Register adds the blob family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionRead:   common.Define(read, SlotKey),
		ActionWrite:  common.Define(write, SlotKey, SlotValue),
		ActionDelete: common.Define(remove, SlotKey),
		ActionExists: common.Define(exists, SlotKey),
		ActionList: common.DefineSpec(common.Spec{
			Run:      list,
			Optional: []string{SlotPrefix},
		}),
	})
}

func read(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	objects, key, err := prepare(ctx, st, op)
	if err != nil {
		return nil, err
	}
	data, err := objects.Read(ctx, key)
	switch {
	case errors.Is(err, object.ErrNotFound):
		return nil, op.NotFound(key)
	case err != nil:
		return nil, op.StorageFailure(st, err)
	}
	return string(data), nil
}

func write(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	objects, key, err := prepare(ctx, st, op)
	if err != nil {
		return nil, err
	}
	data, err := op.StringArg(ctx, st, SlotValue)
	if err != nil {
		return nil, err
	}
	if err := objects.Write(ctx, key, []byte(data)); err != nil {
		return nil, op.StorageFailure(st, err)
	}
	return int64(len(data)), nil
}

func remove(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	objects, key, err := prepare(ctx, st, op)
	if err != nil {
		return nil, err
	}
	ok, err := objects.Delete(ctx, key)
	if err != nil {
		return nil, op.StorageFailure(st, err)
	}
	return ok, nil
}

func exists(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	objects, key, err := prepare(ctx, st, op)
	if err != nil {
		return nil, err
	}
	ok, err := objects.Exists(ctx, key)
	if err != nil {
		return nil, op.StorageFailure(st, err)
	}
	return ok, nil
}

func list(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	objects, err := st.Objects()
	if err != nil {
		return nil, op.StorageFailure(st, err)
	}
	var prefix string
	if op.Has(SlotPrefix) {
		if prefix, err = op.StringArg(ctx, st, SlotPrefix); err != nil {
			return nil, err
		}
	}
	keys, err := objects.List(ctx, prefix)
	if err != nil {
		return nil, op.StorageFailure(st, err)
	}
	res := value.NewSequence()
	for _, k := range keys {
		res.Append(k)
	}
	return res, nil
}

func prepare(
	ctx context.Context, st *session.Storage, op *common.Op,
) (object.Store, string, error) {
	objects, err := st.Objects()
	if err != nil {
		return nil, "", op.StorageFailure(st, err)
	}
	key, err := op.StringArg(ctx, st, SlotKey)
	if err != nil {
		return nil, "", err
	}
	if key == "" {
		return nil, "", op.Invalid("%w", object.ErrKeyEmpty)
	}
	return objects, key, nil
}
