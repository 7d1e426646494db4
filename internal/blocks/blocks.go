// Package blocks assembles every block family into a registry
package blocks

import (
	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/blob"
	"github.com/kode4food/bizunit/internal/blocks/control"
	"github.com/kode4food/bizunit/internal/blocks/crypt"
	"github.com/kode4food/bizunit/internal/blocks/debug"
	"github.com/kode4food/bizunit/internal/blocks/document"
	"github.com/kode4food/bizunit/internal/blocks/expression"
	"github.com/kode4food/bizunit/internal/blocks/hashmap"
	"github.com/kode4food/bizunit/internal/blocks/kv"
	"github.com/kode4food/bizunit/internal/blocks/logging"
	"github.com/kode4food/bizunit/internal/blocks/meta"
	"github.com/kode4food/bizunit/internal/blocks/primitive"
	"github.com/kode4food/bizunit/internal/blocks/query"
	"github.com/kode4food/bizunit/internal/blocks/request"
	"github.com/kode4food/bizunit/internal/blocks/response"
	"github.com/kode4food/bizunit/internal/blocks/rest"
	"github.com/kode4food/bizunit/internal/blocks/scripting"
	"github.com/kode4food/bizunit/internal/blocks/sequence"
	"github.com/kode4food/bizunit/internal/blocks/text"
	"github.com/kode4food/bizunit/internal/blocks/variable"
)

// Family registers one block type and its actions
type Family func(*block.Registry) error

// Families lists every built-in block family
var Families = []Family{
	primitive.Register,
	variable.Register,
	sequence.Register,
	hashmap.Register,
	control.Register,
	expression.Register,
	text.Register,
	document.Register,
	request.Register,
	response.Register,
	kv.Register,
	query.Register,
	blob.Register,
	crypt.Register,
	scripting.Register,
	rest.Register,
	logging.Register,
	meta.Register,
	debug.Register,
}

// Register adds every built-in family to r
func Register(r *block.Registry) error {
	for _, f := range Families {
		if err := f(r); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry creates a registry holding every built-in family
func NewRegistry() *block.Registry {
	r := block.NewRegistry()
	if err := Register(r); err != nil {
		panic(err)
	}
	return r
}
