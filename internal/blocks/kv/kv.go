// Package kv provides the blocks backed by the key/value collaborator
package kv

import (
	"context"
	"time"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/common"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/store/keyvalue"
)

const Type = "kv"

const (
	ActionGet       = "get"
	ActionSet       = "set"
	ActionExists    = "exists"
	ActionDelete    = "delete"
	ActionIncrement = "increment"
	ActionTTL       = "ttl"
)

// Child slots
const (
	SlotKey   = "key"
	SlotValue = "value"
	SlotTTL   = "ttl"
)

type keyFunc func(context.Context, keyvalue.Store, string) (any, error)

// Register adds the kv family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionGet: common.Define(withKey(get), SlotKey),
		ActionSet: common.DefineSpec(common.Spec{
			Run:      set,
			Required: []string{SlotKey, SlotValue},
			Optional: []string{SlotTTL},
		}),
		ActionExists:    common.Define(withKey(exists), SlotKey),
		ActionDelete:    common.Define(withKey(remove), SlotKey),
		ActionIncrement: common.Define(withKey(increment), SlotKey),
		ActionTTL:       common.Define(withKey(ttl), SlotKey),
	})
}

func withKey(fn keyFunc) common.RunFunc {
	return func(
		ctx context.Context, st *session.Storage, op *common.Op,
	) (any, error) {
		kv, key, err := prepare(ctx, st, op)
		if err != nil {
			return nil, err
		}
		res, err := fn(ctx, kv, key)
		if err != nil {
			return nil, op.StorageFailure(st, err)
		}
		return res, nil
	}
}

// get yields nil for a missing key
func get(ctx context.Context, kv keyvalue.Store, key string) (any, error) {
	v, ok, err := kv.Get(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	return v, nil
}

func exists(ctx context.Context, kv keyvalue.Store, key string) (any, error) {
	return kv.Exists(ctx, key)
}

func remove(ctx context.Context, kv keyvalue.Store, key string) (any, error) {
	return kv.Delete(ctx, key)
}

func increment(
	ctx context.Context, kv keyvalue.Store, key string,
) (any, error) {
	return kv.Increment(ctx, key)
}

// ttl reports whole seconds, -1 for a key without expiry and -2 for a
// missing key
func ttl(ctx context.Context, kv keyvalue.Store, key string) (any, error) {
	d, err := kv.TTL(ctx, key)
	if err != nil {
		return nil, err
	}
	switch d {
	case keyvalue.NoExpiry, keyvalue.Missing:
		return int64(d), nil
	default:
		return int64(d / time.Second), nil
	}
}

func set(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	kv, key, err := prepare(ctx, st, op)
	if err != nil {
		return nil, err
	}
	val, err := op.StringArg(ctx, st, SlotValue)
	if err != nil {
		return nil, err
	}
	var expiry time.Duration
	if op.Has(SlotTTL) {
		secs, err := op.IntArg(ctx, st, SlotTTL)
		if err != nil {
			return nil, err
		}
		if secs < 0 {
			return nil, op.Invalid("negative ttl: %d", secs)
		}
		expiry = time.Duration(secs) * time.Second
	}
	if err := kv.Set(ctx, key, val, expiry); err != nil {
		return nil, op.StorageFailure(st, err)
	}
	return val, nil
}

func prepare(
	ctx context.Context, st *session.Storage, op *common.Op,
) (keyvalue.Store, string, error) {
	kv, err := st.KV()
	if err != nil {
		return nil, "", op.StorageFailure(st, err)
	}
	key, err := op.StringArg(ctx, st, SlotKey)
	if err != nil {
		return nil, "", err
	}
	if key == "" {
		return nil, "", op.Invalid("%w", keyvalue.ErrKeyEmpty)
	}
	return kv, key, nil
}
