// Package request provides read access to the inbound request snapshot
package request

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/common"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/value"
	"github.com/kode4food/bizunit/pkg/api"
)

const Type = "request"

const (
	ActionMethod  = "method"
	ActionPath    = "path"
	ActionBody    = "body"
	ActionJSON    = "json"
	ActionHeader  = "header"
	ActionHeaders = "headers"
	ActionQuery   = "query"
	ActionParam   = "param"
)

// SlotName names the header, query or path parameter to read
const SlotName = "name"

// Register adds the request family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionMethod: common.Define(field(func(r *api.Request) string {
			return r.Method
		})),
		ActionPath: common.Define(field(func(r *api.Request) string {
			return r.Path
		})),
		ActionBody: common.Define(field(func(r *api.Request) string {
			return r.Body
		})),
		ActionJSON:    common.Define(jsonBody),
		ActionHeaders: common.Define(headers),
		ActionHeader:  common.Define(named(headerOf), SlotName),
		ActionQuery:   common.Define(named(queryOf), SlotName),
		ActionParam:   common.Define(named(paramOf), SlotName),
	})
}

func field(get func(*api.Request) string) common.RunFunc {
	return func(
		_ context.Context, st *session.Storage, _ *common.Op,
	) (any, error) {
		return get(st.Request()), nil
	}
}

// named reads one named entry of the request, yielding nil when absent
func named(get func(*api.Request, string) (string, bool)) common.RunFunc {
	return func(
		ctx context.Context, st *session.Storage, op *common.Op,
	) (any, error) {
		name, err := op.StringArg(ctx, st, SlotName)
		if err != nil {
			return nil, err
		}
		if v, ok := get(st.Request(), name); ok {
			return v, nil
		}
		return nil, nil
	}
}

func headerOf(r *api.Request, name string) (string, bool) {
	return r.Header(name)
}

func queryOf(r *api.Request, name string) (string, bool) {
	v, ok := r.Query[name]
	return v, ok
}

func paramOf(r *api.Request, name string) (string, bool) {
	v, ok := r.Params[name]
	return v, ok
}

func jsonBody(
	_ context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	body := st.Request().Body
	if body == "" {
		return nil, nil
	}
	if !gjson.Valid(body) {
		return nil, op.Invalid("%w: request body is not JSON",
			block.ErrWrongType)
	}
	return value.FromResult(gjson.Parse(body)), nil
}

func headers(
	_ context.Context, st *session.Storage, _ *common.Op,
) (any, error) {
	res := value.NewHashMap()
	for k, v := range st.Request().Headers {
		res.Set(value.StringKey(k), v)
	}
	return res, nil
}
