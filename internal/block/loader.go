package block

import (
	"fmt"
	"maps"
	"slices"

	"github.com/kode4food/bizunit/pkg/api"
)

// Loader resolves templates into blocks during one load pass. It tracks
// loop nesting so loop control blocks can be rejected outside of a loop
type Loader struct {
	registry  *Registry
	loopDepth int
}

// Load resolves t, and recursively its children, into a block
func (l *Loader) Load(t *api.Template) (Block, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: missing template", ErrStructure)
	}
	c, err := l.registry.Lookup(t.Type, t.Action)
	if err != nil {
		return nil, err
	}
	return c(l, t)
}

// Child loads the required single-block child slot name
func (l *Loader) Child(t *api.Template, name string) (Block, error) {
	c, ok := t.Child(name)
	if !ok {
		return nil, missingChild(t, name)
	}
	if c.Kind() != api.ChildBlock {
		return nil, wrongShape(t, name, "block")
	}
	return l.Load(c.Block)
}

// OptionalChild loads the single-block child slot name, or returns nil
// when it is absent
func (l *Loader) OptionalChild(t *api.Template, name string) (Block, error) {
	if _, ok := t.Child(name); !ok {
		return nil, nil
	}
	return l.Child(t, name)
}

// List loads the required list child slot name
func (l *Loader) List(t *api.Template, name string) (*Aggregator, error) {
	c, ok := t.Child(name)
	if !ok {
		return nil, missingChild(t, name)
	}
	if c.Kind() != api.ChildList {
		return nil, wrongShape(t, name, "list")
	}
	res := NewAggregator()
	for _, ct := range c.List {
		b, err := l.Load(ct)
		if err != nil {
			return nil, err
		}
		res.Append(b)
	}
	return res, nil
}

// OptionalList loads the list child slot name, or returns nil when it is
// absent
func (l *Loader) OptionalList(
	t *api.Template, name string,
) (*Aggregator, error) {
	if _, ok := t.Child(name); !ok {
		return nil, nil
	}
	return l.List(t, name)
}

// Map loads the required named-map child slot name
func (l *Loader) Map(t *api.Template, name string) (*Named, error) {
	c, ok := t.Child(name)
	if !ok {
		return nil, missingChild(t, name)
	}
	if c.Kind() != api.ChildMap {
		return nil, wrongShape(t, name, "map")
	}
	res := &Named{}
	for _, k := range slices.Sorted(maps.Keys(c.Map)) {
		b, err := l.Load(c.Map[k])
		if err != nil {
			return nil, err
		}
		res.names = append(res.names, k)
		res.blocks = append(res.blocks, b)
	}
	return res, nil
}

// OptionalMap loads the named-map child slot name, or returns nil when it
// is absent
func (l *Loader) OptionalMap(t *api.Template, name string) (*Named, error) {
	if _, ok := t.Child(name); !ok {
		return nil, nil
	}
	return l.Map(t, name)
}

// Loop runs fn with loop control permitted
func (l *Loader) Loop(fn func() error) error {
	l.loopDepth++
	defer func() { l.loopDepth-- }()
	return fn()
}

// InLoop reports whether loop control is currently permitted
func (l *Loader) InLoop() bool {
	return l.loopDepth > 0
}

func missingChild(t *api.Template, name string) error {
	return fmt.Errorf("%w: %s/%s: missing child %q",
		ErrStructure, t.Type, t.Action, name)
}

func wrongShape(t *api.Template, name, shape string) error {
	return fmt.Errorf("%w: %s/%s: child %q must be a %s",
		ErrStructure, t.Type, t.Action, name, shape)
}
