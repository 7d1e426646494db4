package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

type (
	// Template is the JSON serialization of a block and its children. The
	// type and action select the concrete block; the template map holds the
	// nested child templates
	Template struct {
		Type     string          `json:"type"`
		Action   string          `json:"action"`
		Extra    Extra           `json:"extra,omitempty"`
		Value    json.RawMessage `json:"value,omitempty"`
		Template Children        `json:"template,omitempty"`
	}

	// Extra is opaque diagnostic metadata attached to a block by the editor.
	// It is echoed into error payloads so a failure can be pinned to the
	// visual block that produced it
	Extra map[string]any

	// Children maps a child slot name to its content
	Children map[string]*Child

	// Child is the content of one child slot: a single template, an ordered
	// list of templates, or a named map of templates
	Child struct {
		Block *Template
		List  []*Template
		Map   map[string]*Template
		kind  ChildKind
	}

	// ChildKind identifies the shape of a Child
	ChildKind int
)

const (
	ChildNone ChildKind = iota
	ChildBlock
	ChildList
	ChildMap
)

var (
	ErrInvalidChild = errors.New("invalid child template")
	ErrEncodeValue  = errors.New("failed to encode template value")
)

// NewTemplate creates an empty template for the given type and action
func NewTemplate(typ, action string) *Template {
	return &Template{
		Type:   typ,
		Action: action,
	}
}

// WithValue returns the template with its scalar payload set to v
func (t *Template) WithValue(v any) *Template {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("%w: %w", ErrEncodeValue, err))
	}
	t.Value = data
	return t
}

// WithExtra returns the template with its extra metadata set
func (t *Template) WithExtra(extra Extra) *Template {
	t.Extra = extra
	return t
}

// WithBlock returns the template with a single-block child slot
func (t *Template) WithBlock(name string, child *Template) *Template {
	return t.WithChild(name, SingleChild(child))
}

// WithList returns the template with an ordered-list child slot
func (t *Template) WithList(name string, children ...*Template) *Template {
	return t.WithChild(name, ListChild(children...))
}

// WithMap returns the template with a named-map child slot
func (t *Template) WithMap(
	name string, children map[string]*Template,
) *Template {
	return t.WithChild(name, MapChild(children))
}

// WithChild returns the template with the named child slot set
func (t *Template) WithChild(name string, child *Child) *Template {
	if t.Template == nil {
		t.Template = Children{}
	}
	t.Template[name] = child
	return t
}

// Child returns the named child slot, if present
func (t *Template) Child(name string) (*Child, bool) {
	if t.Template == nil {
		return nil, false
	}
	c, ok := t.Template[name]
	if !ok || c == nil || c.kind == ChildNone {
		return nil, false
	}
	return c, true
}

// DecodeValue unmarshals the scalar payload into dst
func (t *Template) DecodeValue(dst any) error {
	if len(t.Value) == 0 {
		return ErrInvalidChild
	}
	return json.Unmarshal(t.Value, dst)
}

// HasValue reports whether the template carries a scalar payload
func (t *Template) HasValue() bool {
	return len(t.Value) > 0
}

// CloneExtra returns a shallow copy of the extra metadata, or nil
func (e Extra) CloneExtra() Extra {
	if e == nil {
		return nil
	}
	return maps.Clone(e)
}

// SingleChild wraps a single template as a child slot
func SingleChild(t *Template) *Child {
	return &Child{Block: t, kind: ChildBlock}
}

// ListChild wraps an ordered list of templates as a child slot
func ListChild(ts ...*Template) *Child {
	if ts == nil {
		ts = []*Template{}
	}
	return &Child{List: ts, kind: ChildList}
}

// MapChild wraps a named map of templates as a child slot
func MapChild(m map[string]*Template) *Child {
	if m == nil {
		m = map[string]*Template{}
	}
	return &Child{Map: m, kind: ChildMap}
}

// Kind returns the shape of the child slot
func (c *Child) Kind() ChildKind {
	return c.kind
}

// MarshalJSON encodes the child as an object, an array, or a named map
func (c *Child) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case ChildBlock:
		return json.Marshal(c.Block)
	case ChildList:
		return json.Marshal(c.List)
	case ChildMap:
		return json.Marshal(c.Map)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes an object carrying a string "type" as a single
// template, an array as a list, and any other object as a named map
func (c *Child) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrInvalidChild
	}

	switch data[0] {
	case '[':
		var list []*Template
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidChild, err)
		}
		*c = *ListChild(list...)
		return nil
	case '{':
		return c.unmarshalObject(data)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidChild, string(data))
	}
}

func (c *Child) unmarshalObject(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChild, err)
	}

	if typ, ok := raw["type"]; ok && isJSONString(typ) {
		var t Template
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidChild, err)
		}
		*c = *SingleChild(&t)
		return nil
	}

	m := make(map[string]*Template, len(raw))
	for name, elem := range raw {
		var t Template
		if err := json.Unmarshal(elem, &t); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidChild, name, err)
		}
		m[name] = &t
	}
	*c = *MapChild(m)
	return nil
}

func isJSONString(data json.RawMessage) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '"'
}
