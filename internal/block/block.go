// Package block defines the executable node contract shared by every block
// family, together with the registry that resolves templates into blocks
package block

import (
	"context"

	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/pkg/api"
)

type (
	// Block is the atomic executable and serializable node of a plan.
	// Blocks are immutable once loaded, so a loaded tree may be executed by
	// many goroutines at once, each with its own session.Storage
	Block interface {
		Type() string
		Action() string
		Extra() api.Extra

		// Execute runs the block, returning a value consumed by its parent
		Execute(ctx context.Context, st *session.Storage) (any, error)

		// Template reconstructs a template that loads into an equivalent
		// block
		Template() *api.Template
	}

	// Constructor builds a block from its template, loading children
	// through the Loader
	Constructor func(*Loader, *api.Template) (Block, error)

	// Base carries the identity shared by every block and implements the
	// identity half of the Block interface
	Base struct {
		typ    string
		action string
		extra  api.Extra
	}
)

// NewBase captures the identity of the block described by t
func NewBase(t *api.Template) Base {
	return Base{
		typ:    t.Type,
		action: t.Action,
		extra:  t.Extra.CloneExtra(),
	}
}

func (b *Base) Type() string {
	return b.typ
}

func (b *Base) Action() string {
	return b.action
}

func (b *Base) Extra() api.Extra {
	return b.extra
}

// Header starts a template carrying this block's identity
func (b *Base) Header() *api.Template {
	return &api.Template{
		Type:   b.typ,
		Action: b.action,
		Extra:  b.extra.CloneExtra(),
	}
}

// WithBlock adds the template of b as child name of t, unless b is absent
func WithBlock(t *api.Template, name string, b Block) *api.Template {
	if b == nil {
		return t
	}
	return t.WithBlock(name, b.Template())
}

// WithList adds the templates of a as list child name of t, unless a is
// absent
func WithList(t *api.Template, name string, a *Aggregator) *api.Template {
	if a == nil {
		return t
	}
	return t.WithList(name, a.Templates()...)
}

// WithMap adds the templates of n as map child name of t, unless n is
// absent
func WithMap(t *api.Template, name string, n *Named) *api.Template {
	if n == nil {
		return t
	}
	return t.WithMap(name, n.Templates())
}
