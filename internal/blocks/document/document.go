// Package document provides the JSON blocks: encoding runtime values,
// decoding JSON text and querying it by path
package document

import (
	"context"
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/common"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/value"
)

const Type = "json"

const (
	ActionEncode = "encode"
	ActionDecode = "decode"
	ActionPath   = "path"
)

// Child slots
const (
	SlotValue = "value"
	SlotPath  = "path"
)

// Register adds the json family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionEncode: common.Define(encode, SlotValue),
		ActionDecode: common.Define(decode, SlotValue),
		ActionPath:   common.Define(path, SlotValue, SlotPath),
	})
}

func encode(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	v, err := op.AnyArg(ctx, st, SlotValue)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(value.ToJSON(v))
	if err != nil {
		return nil, op.Invalid("%w", err)
	}
	return string(data), nil
}

func decode(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	src, err := source(ctx, st, op)
	if err != nil {
		return nil, err
	}
	return value.FromResult(gjson.Parse(src)), nil
}

func path(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	src, err := source(ctx, st, op)
	if err != nil {
		return nil, err
	}
	p, err := op.StringArg(ctx, st, SlotPath)
	if err != nil {
		return nil, err
	}
	res := gjson.Get(src, p)
	if !res.Exists() {
		return nil, op.NotFound(p)
	}
	return value.FromResult(res), nil
}

func source(
	ctx context.Context, st *session.Storage, op *common.Op,
) (string, error) {
	src, err := op.StringArg(ctx, st, SlotValue)
	if err != nil {
		return "", err
	}
	if !gjson.Valid(src) {
		return "", op.Invalid("%w: malformed JSON", block.ErrWrongType)
	}
	return src, nil
}
