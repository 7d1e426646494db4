package block

import (
	"iter"

	"github.com/kode4food/bizunit/pkg/api"
)

// Named is a set of blocks keyed by name, loaded from a named-map child
// slot. Iteration follows name order. A nil Named is empty
type Named struct {
	names  []string
	blocks []Block
}

func (n *Named) Len() int {
	if n == nil {
		return 0
	}
	return len(n.names)
}

// All iterates over the named blocks in name order
func (n *Named) All() iter.Seq2[string, Block] {
	return func(yield func(string, Block) bool) {
		if n == nil {
			return
		}
		for i, name := range n.names {
			if !yield(name, n.blocks[i]) {
				return
			}
		}
	}
}

// Templates returns the template of every named block
func (n *Named) Templates() map[string]*api.Template {
	res := make(map[string]*api.Template, n.Len())
	for name, b := range n.All() {
		res[name] = b.Template()
	}
	return res
}
