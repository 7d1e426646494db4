// Package rest provides the outbound HTTP request block, backed by the HTTP
// collaborator
package rest

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/common"
	"github.com/kode4food/bizunit/internal/client"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/value"
)

const Type = "rest"

const ActionRequest = "request"

// Child slots
const (
	SlotMethod  = "method"
	SlotURL     = "url"
	SlotHeaders = "headers"
	SlotBody    = "body"
)

// Result keys
const (
	KeyStatus  = "status"
	KeyHeaders = "headers"
	KeyBody    = "body"
)

const (
	contentType = "Content-Type"
	jsonType    = "application/json"
)

// Register adds the rest family to r
func Register(r *block.Registry) error {
	return r.Register(Type, ActionRequest, common.DefineSpec(common.Spec{
		Run:      request,
		Required: []string{SlotURL},
		Optional: []string{SlotMethod, SlotHeaders, SlotBody},
	}))
}

func request(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	httpClient, err := st.HTTP()
	if err != nil {
		return nil, op.StorageFailure(st, err)
	}
	req, err := build(ctx, st, op)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(ctx, req)
	if err != nil {
		return nil, op.StorageFailure(st, err)
	}
	return result(resp), nil
}

func build(
	ctx context.Context, st *session.Storage, op *common.Op,
) (*client.Request, error) {
	url, err := op.StringArg(ctx, st, SlotURL)
	if err != nil {
		return nil, err
	}
	req := &client.Request{
		URL:     url,
		Headers: map[string]string{},
	}
	if op.Has(SlotMethod) {
		if req.Method, err = op.StringArg(ctx, st, SlotMethod); err != nil {
			return nil, err
		}
	}
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
			req.Headers[k.String()] = s
		}
	}
	if op.Has(SlotBody) {
		body, err := op.AnyArg(ctx, st, SlotBody)
		if err != nil {
			return nil, err
		}
		if err := encodeBody(req, body); err != nil {
			return nil, op.Invalid("%w", err)
		}
	}
	return req, nil
}

// encodeBody sends strings as is and anything else as JSON
func encodeBody(req *client.Request, body any) error {
	if s, ok := body.(string); ok {
		req.Body = []byte(s)
		return nil
	}
	data, err := json.Marshal(value.ToJSON(body))
	if err != nil {
		return err
	}
	req.Body = data
	if _, ok := req.Headers[contentType]; !ok {
		req.Headers[contentType] = jsonType
	}
	return nil
}

func result(resp *client.Response) *value.HashMap {
	headers := value.NewHashMap()
	isJSON := false
	for k, v := range resp.Headers {
		headers.Set(value.StringKey(k), v)
		if strings.EqualFold(k, contentType) && strings.Contains(v, "json") {
			isJSON = true
		}
	}

	var body any = string(resp.Body)
	if isJSON && gjson.ValidBytes(resp.Body) {
		body = value.FromResult(gjson.ParseBytes(resp.Body))
	}

	res := value.NewHashMap()
	res.Set(value.StringKey(KeyStatus), int64(resp.Status))
	res.Set(value.StringKey(KeyHeaders), headers)
	res.Set(value.StringKey(KeyBody), body)
	return res
}
