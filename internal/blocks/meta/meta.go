// Package meta provides read access to the account, transaction and access
// metadata travelling with an execution
package meta

import (
	"context"
	"errors"
	"slices"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/common"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/value"
	"github.com/kode4food/bizunit/pkg/api"
)

const Type = "meta"

const (
	ActionAccount     = "account"
	ActionTransaction = "transaction"
	ActionAccess      = "access"
	ActionHasRole     = "has-role"
	ActionRequireRole = "require-role"
	ActionExecutionID = "execution-id"
)

// SlotRole names the role checked by has-role and require-role
const SlotRole = "role"

// Account keys
const (
	KeyID   = "id"
	KeyName = "name"
)

var ErrMissingRole = errors.New("missing required role")

// Register adds the meta family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionAccount:     common.Define(account),
		ActionTransaction: common.Define(transaction),
		ActionAccess:      common.Define(access),
		ActionHasRole:     common.Define(hasRole, SlotRole),
		ActionRequireRole: common.Define(requireRole, SlotRole),
		ActionExecutionID: common.Define(executionID),
	})
}

// account yields nil when the execution carries no account
func account(
	_ context.Context, st *session.Storage, _ *common.Op,
) (any, error) {
	md := st.Metadata()
	id, ok := api.GetMetaString[string](md, api.MetaAccountID)
	if !ok {
		return nil, nil
	}
	name, _ := api.GetMetaString[string](md, api.MetaAccountName)
	res := value.NewHashMap()
	res.Set(value.StringKey(KeyID), id)
	res.Set(value.StringKey(KeyName), name)
	return res, nil
}

func transaction(
	_ context.Context, st *session.Storage, _ *common.Op,
) (any, error) {
	if id, ok := api.GetMetaString[string](
		st.Metadata(), api.MetaTransactionID,
	); ok {
		return id, nil
	}
	return nil, nil
}

func access(
	_ context.Context, st *session.Storage, _ *common.Op,
) (any, error) {
	res := value.NewSequence()
	for _, r := range roles(st) {
		res.Append(r)
	}
	return res, nil
}

func hasRole(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	role, err := op.StringArg(ctx, st, SlotRole)
	if err != nil {
		return nil, err
	}
	return slices.Contains(roles(st), role), nil
}

// requireRole fails with an authorization error when the role is missing
func requireRole(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	role, err := op.StringArg(ctx, st, SlotRole)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(roles(st), role) {
		return nil, op.Fail(block.ErrAuthorization, ErrMissingRole, nil)
	}
	return true, nil
}

func executionID(
	_ context.Context, st *session.Storage, _ *common.Op,
) (any, error) {
	return string(st.ID()), nil
}

func roles(st *session.Storage) []string {
	switch r := st.Metadata()[api.MetaRoles].(type) {
	case []string:
		return r
	case []any:
		res := make([]string, 0, len(r))
		for _, v := range r {
			if s, ok := v.(string); ok {
				res = append(res, s)
			}
		}
		return res
	default:
		return nil
	}
}
