// Package primitive provides the literal blocks. Each carries its value in
// the template payload, validated when the plan is loaded
package primitive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/pkg/api"
)

type (
	// Primitive is a literal value
	Primitive struct {
		block.Base
		val any
	}

	decoder func(json.RawMessage) (any, error)
)

const Type = "primitive"

const (
	ActionString  = "string"
	ActionInteger = "integer"
	ActionFloat   = "float"
	ActionBoolean = "boolean"
	ActionNull    = "null"
)

var _ block.Block = (*Primitive)(nil)

// Register adds the primitive family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionString:  load(decodeString),
		ActionInteger: load(decodeInteger),
		ActionFloat:   load(decodeFloat),
		ActionBoolean: load(decodeBoolean),
		ActionNull:    loadNull,
	})
}

func load(decode decoder) block.Constructor {
	return func(_ *block.Loader, t *api.Template) (block.Block, error) {
		if !t.HasValue() || isNull(t.Value) {
			return nil, fmt.Errorf("%w: %s/%s: missing value",
				block.ErrStructure, t.Type, t.Action)
		}
		v, err := decode(t.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s/%s: %w",
				block.ErrStructure, t.Type, t.Action, err)
		}
		return &Primitive{
			Base: block.NewBase(t),
			val:  v,
		}, nil
	}
}

func loadNull(_ *block.Loader, t *api.Template) (block.Block, error) {
	if t.HasValue() && !isNull(t.Value) {
		return nil, fmt.Errorf("%w: %s/%s: value must be null",
			block.ErrStructure, t.Type, t.Action)
	}
	return &Primitive{Base: block.NewBase(t)}, nil
}

// Execute returns the literal
func (p *Primitive) Execute(context.Context, *session.Storage) (any, error) {
	return p.val, nil
}

func (p *Primitive) Template() *api.Template {
	res := p.Header()
	if p.val == nil {
		return res
	}
	return res.WithValue(p.val)
}

func decodeString(raw json.RawMessage) (any, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeInteger(raw json.RawMessage) (any, error) {
	n, err := decodeNumber(raw)
	if err != nil {
		return nil, err
	}
	return n.Int64()
}

func decodeFloat(raw json.RawMessage) (any, error) {
	n, err := decodeNumber(raw)
	if err != nil {
		return nil, err
	}
	return n.Float64()
}

func decodeBoolean(raw json.RawMessage) (any, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, err
	}
	return b, nil
}

func decodeNumber(raw json.RawMessage) (json.Number, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return "", err
	}
	return n, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
