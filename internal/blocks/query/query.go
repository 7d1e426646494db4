// Package query provides the blocks backed by the relational collaborator.
// Every statement of one execution runs in a single lazily begun
// transaction, committed when the plan succeeds
package query

import (
	"context"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/common"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/store/relational"
	"github.com/kode4food/bizunit/internal/value"
)

const Type = "sql"

const (
	ActionQuery     = "query"
	ActionExecute   = "execute"
	ActionProcedure = "procedure"
	ActionCommit    = "commit"
	ActionRollback  = "rollback"
)

// Child slots
const (
	SlotQuery      = "query"
	SlotName       = "name"
	SlotParameters = "parameters"
)

// Result keys of a procedure call
const (
	KeyResult = "result"
	KeyOutput = "output"
)

// Register adds the sql family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionQuery:     statement(SlotQuery, query),
		ActionExecute:   statement(SlotQuery, execute),
		ActionProcedure: statement(SlotName, procedure),
		ActionCommit:    common.Define(commit),
		ActionRollback:  common.Define(rollback),
	})
}

type statementFunc func(
	context.Context, relational.Querier, string, []any,
) (any, error)

func statement(slot string, fn statementFunc) block.Constructor {
	return common.DefineSpec(common.Spec{
		Required:      []string{slot},
		OptionalLists: []string{SlotParameters},
		Run: func(
			ctx context.Context, st *session.Storage, op *common.Op,
		) (any, error) {
			text, err := op.StringArg(ctx, st, slot)
			if err != nil {
				return nil, err
			}
			params, err := parameters(ctx, st, op)
			if err != nil {
				return nil, err
			}
			q, err := st.SQL(ctx)
			if err != nil {
				return nil, op.StorageFailure(st, err)
			}
			res, err := fn(ctx, q, text, params)
			if err != nil {
				return nil, op.StorageFailure(st, err)
			}
			return res, nil
		},
	})
}

func query(
	ctx context.Context, q relational.Querier, text string, params []any,
) (any, error) {
	rows, err := q.Query(ctx, text, params)
	if err != nil {
		return nil, err
	}
	return rowSequence(rows), nil
}

func execute(
	ctx context.Context, q relational.Querier, text string, params []any,
) (any, error) {
	return q.Exec(ctx, text, params)
}

func procedure(
	ctx context.Context, q relational.Querier, name string, params []any,
) (any, error) {
	res, err := q.Procedure(ctx, name, params)
	if err != nil {
		return nil, err
	}
	out := value.NewHashMap()
	out.Set(value.StringKey(KeyResult), rowSequence(res.Result))
	out.Set(value.StringKey(KeyOutput), value.HashMapOf(res.Output))
	return out, nil
}

func commit(
	_ context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	if err := st.Commit(); err != nil {
		return nil, op.StorageFailure(st, err)
	}
	return nil, nil
}

func rollback(
	_ context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	if err := st.Rollback(); err != nil {
		return nil, op.StorageFailure(st, err)
	}
	return nil, nil
}

func parameters(
	ctx context.Context, st *session.Storage, op *common.Op,
) ([]any, error) {
	list := op.List(SlotParameters)
	res := make([]any, 0, list.Len())
	for _, b := range list.All() {
		v, err := op.EvalScalar(ctx, st, b)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}

func rowSequence(rows []map[string]any) *value.Sequence {
	res := value.NewSequence()
	for _, row := range rows {
		res.Append(value.HashMapOf(row))
	}
	return res
}
