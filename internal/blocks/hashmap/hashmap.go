// Package hashmap provides the blocks that build and manipulate keyed maps.
// Keys are integers or strings; any other key fails validation. Entry names
// of hashmap/create that spell an integer produce integer keys
package hashmap

import (
	"context"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/common"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/value"
)

const Type = "hashmap"

const (
	ActionCreate = "create"
	ActionGet    = "get"
	ActionAdd    = "add"
	ActionSet    = "set"
	ActionRemove = "remove"
	ActionHas    = "has"
	ActionKeys   = "keys"
	ActionValues = "values"
	ActionCount  = "count"
)

// Child slots
const (
	SlotEntries = "entries"
	SlotTarget  = "target"
	SlotName    = "name"
	SlotKey     = "key"
	SlotPath    = "path"
	SlotValue   = "value"
)

// Register adds the hashmap family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionCreate: common.DefineSpec(common.Spec{
			Run:  create,
			Maps: []string{SlotEntries},
		}),
		ActionGet: common.Define(get, SlotTarget, SlotKey),
		ActionAdd: common.DefineSpec(common.Spec{
			Run:           add,
			Required:      []string{SlotName, SlotValue},
			OptionalLists: []string{SlotPath},
		}),
		ActionSet:    common.Define(set, SlotName, SlotKey, SlotValue),
		ActionRemove: common.Define(remove, SlotName, SlotKey),
		ActionHas:    common.Define(has, SlotTarget, SlotKey),
		ActionKeys:   common.Define(keys, SlotTarget),
		ActionValues: common.Define(values, SlotTarget),
		ActionCount:  common.Define(count, SlotTarget),
	})
}

func create(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	res := value.NewHashMap()
	for name, b := range op.Map(SlotEntries).All() {
		v, err := op.EvalAny(ctx, st, b)
		if err != nil {
			return nil, err
		}
		res.Set(value.ParseKey(name), value.Clone(v))
	}
	return res, nil
}

func get(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	m, k, err := targetKey(ctx, st, op)
	if err != nil {
		return nil, err
	}
	res, ok := m.Get(k)
	if !ok {
		return nil, op.NotFound(k)
	}
	return res, nil
}

// add walks the key path from the named variable, then merges the entries
// of value into the map it reaches
func add(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	root, err := variable(ctx, st, op)
	if err != nil {
		return nil, err
	}
	cur := root
	for _, b := range op.List(SlotPath).All() {
		k, err := op.EvalKey(ctx, st, b)
		if err != nil {
			return nil, err
		}
		next, ok := cur.Get(k)
		if !ok {
			return nil, op.NotFound(k)
		}
		m, ok := next.(*value.HashMap)
		if !ok {
			return nil, op.WrongType(value.TypeHashMap, next)
		}
		cur = m
	}
	v, err := op.HashMapArg(ctx, st, SlotValue)
	if err != nil {
		return nil, err
	}
	cur.Merge(v)
	return root, nil
}

func set(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	m, err := variable(ctx, st, op)
	if err != nil {
		return nil, err
	}
	k, err := op.KeyArg(ctx, st, SlotKey)
	if err != nil {
		return nil, err
	}
	v, err := op.AnyArg(ctx, st, SlotValue)
	if err != nil {
		return nil, err
	}
	m.Set(k, value.Clone(v))
	return m, nil
}

func remove(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	m, err := variable(ctx, st, op)
	if err != nil {
		return nil, err
	}
	k, err := op.KeyArg(ctx, st, SlotKey)
	if err != nil {
		return nil, err
	}
	return m.Remove(k), nil
}

func has(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	m, k, err := targetKey(ctx, st, op)
	if err != nil {
		return nil, err
	}
	return m.Has(k), nil
}

func keys(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	m, err := op.HashMapArg(ctx, st, SlotTarget)
	if err != nil {
		return nil, err
	}
	res := value.NewSequence()
	for _, k := range m.Keys() {
		res.Append(k.Value())
	}
	return res, nil
}

func values(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	m, err := op.HashMapArg(ctx, st, SlotTarget)
	if err != nil {
		return nil, err
	}
	res := value.NewSequence()
	for _, v := range m.All() {
		res.Append(value.Clone(v))
	}
	return res, nil
}

func count(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	m, err := op.HashMapArg(ctx, st, SlotTarget)
	if err != nil {
		return nil, err
	}
	return int64(m.Len()), nil
}

func targetKey(
	ctx context.Context, st *session.Storage, op *common.Op,
) (*value.HashMap, value.Key, error) {
	m, err := op.HashMapArg(ctx, st, SlotTarget)
	if err != nil {
		return nil, value.Key{}, err
	}
	k, err := op.KeyArg(ctx, st, SlotKey)
	if err != nil {
		return nil, value.Key{}, err
	}
	return m, k, nil
}

func variable(
	ctx context.Context, st *session.Storage, op *common.Op,
) (*value.HashMap, error) {
	_, v, err := op.VariableArg(ctx, st, SlotName)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*value.HashMap)
	if !ok {
		return nil, op.WrongType(value.TypeHashMap, v)
	}
	return m, nil
}
