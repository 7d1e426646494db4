// Package crypt provides hashing, encoding and password blocks
package crypt

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"hash"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/common"
	"github.com/kode4food/bizunit/internal/session"
)

const Type = "crypto"

const (
	ActionHash           = "hash"
	ActionHMAC           = "hmac"
	ActionBase64Encode   = "base64-encode"
	ActionBase64Decode   = "base64-decode"
	ActionUUID           = "uuid"
	ActionPasswordHash   = "password-hash"
	ActionPasswordVerify = "password-verify"
)

// Child slots
const (
	SlotAlgorithm = "algorithm"
	SlotKey       = "key"
	SlotValue     = "value"
	SlotPassword  = "password"
	SlotHash      = "hash"
)

var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

var algorithms = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
}

// Register adds the crypto family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionHash: common.Define(digest, SlotAlgorithm, SlotValue),
		ActionHMAC: common.Define(mac,
			SlotAlgorithm, SlotKey, SlotValue),
		ActionBase64Encode:   common.Define(encode, SlotValue),
		ActionBase64Decode:   common.Define(decode, SlotValue),
		ActionUUID:           common.Define(newUUID),
		ActionPasswordHash:   common.Define(passwordHash, SlotPassword),
		ActionPasswordVerify: common.Define(verify, SlotPassword, SlotHash),
	})
}

func digest(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	h, err := algorithm(ctx, st, op)
	if err != nil {
		return nil, err
	}
	v, err := op.StringArg(ctx, st, SlotValue)
	if err != nil {
		return nil, err
	}
	hs := h()
	hs.Write([]byte(v))
	return hex.EncodeToString(hs.Sum(nil)), nil
}

func mac(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	h, err := algorithm(ctx, st, op)
	if err != nil {
		return nil, err
	}
	key, err := op.StringArg(ctx, st, SlotKey)
	if err != nil {
		return nil, err
	}
	v, err := op.StringArg(ctx, st, SlotValue)
	if err != nil {
		return nil, err
	}
	hs := hmac.New(h, []byte(key))
	hs.Write([]byte(v))
	return hex.EncodeToString(hs.Sum(nil)), nil
}

func encode(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	v, err := op.StringArg(ctx, st, SlotValue)
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.EncodeToString([]byte(v)), nil
}

func decode(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	v, err := op.StringArg(ctx, st, SlotValue)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, op.Invalid("%w", err)
	}
	return string(data), nil
}

func newUUID(context.Context, *session.Storage, *common.Op) (any, error) {
	return uuid.NewString(), nil
}

func passwordHash(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	pw, err := op.StringArg(ctx, st, SlotPassword)
	if err != nil {
		return nil, err
	}
	res, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, op.Invalid("%w", err)
	}
	return string(res), nil
}

// verify yields false on a mismatch; a malformed hash is invalid
func verify(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	pw, err := op.StringArg(ctx, st, SlotPassword)
	if err != nil {
		return nil, err
	}
	h, err := op.StringArg(ctx, st, SlotHash)
	if err != nil {
		return nil, err
	}
	err = bcrypt.CompareHashAndPassword([]byte(h), []byte(pw))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return nil, op.Invalid("%w", err)
	}
}

func algorithm(
	ctx context.Context, st *session.Storage, op *common.Op,
) (func() hash.Hash, error) {
	name, err := op.StringArg(ctx, st, SlotAlgorithm)
	if err != nil {
		return nil, err
	}
	h, ok := algorithms[name]
	if !ok {
		return nil, op.Invalid("%w: %s", ErrUnknownAlgorithm, name)
	}
	return h, nil
}
