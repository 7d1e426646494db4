// Package response provides the blocks that designate the response a plan
// execution produces
package response

import (
	"context"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/common"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/value"
	"github.com/kode4food/bizunit/pkg/api"
)

const Type = "response"

const (
	ActionRespond = "respond"
	ActionReturn  = "return"
)

// Child slots
const (
	SlotStatus  = "status"
	SlotHeaders = "headers"
	SlotBody    = "body"
)

const (
	minStatus = 100
	maxStatus = 599
)

// Register adds the response family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionRespond: define(respond),
		ActionReturn:  define(earlyReturn),
	})
}

func define(run common.RunFunc) block.Constructor {
	return common.DefineSpec(common.Spec{
		Run:      run,
		Required: []string{SlotStatus},
		Optional: []string{SlotHeaders, SlotBody},
	})
}

// respond replaces the return holder; later blocks keep running
func respond(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	res, err := build(ctx, st, op)
	if err != nil {
		return nil, err
	}
	st.SetReturn(res)
	return nil, nil
}

// earlyReturn replaces the return holder and ends the plan
func earlyReturn(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	res, err := build(ctx, st, op)
	if err != nil {
		return nil, err
	}
	st.SetReturn(res)
	return nil, &block.ReturnSignal{Response: res}
}

func build(
	ctx context.Context, st *session.Storage, op *common.Op,
) (*api.Response, error) {
	status, err := op.IntArg(ctx, st, SlotStatus)
	if err != nil {
		return nil, err
	}
	if status < minStatus || status > maxStatus {
		return nil, op.Invalid("status out of range: %d", status)
	}
	res := api.NewResponse()
	res.Status = int(status)

	if op.Has(SlotHeaders) {
		h, err := op.HashMapArg(ctx, st, SlotHeaders)
		if err != nil {
			return nil, err
		}
		for k, v := range h.All() {
			s, ok := v.(string)
			if !ok {
				return nil, op.WrongType(value.TypeString, v)
			}
			res.Headers[k.String()] = s
		}
	}

	if op.Has(SlotBody) {
		body, err := op.AnyArg(ctx, st, SlotBody)
		if err != nil {
			return nil, err
		}
		res.Body = value.ToJSON(body)
	}
	return res, nil
}
