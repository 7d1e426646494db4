package block

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/kode4food/bizunit/pkg/api"
)

type (
	// Registry maps a block type and action to its constructor. Families
	// register themselves at startup; lookups may happen concurrently
	Registry struct {
		families map[string]map[string]Constructor
		mu       sync.RWMutex
	}

	// Actions maps action names to constructors for one block type
	Actions map[string]Constructor
)

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		families: map[string]map[string]Constructor{},
	}
}

// Register adds a constructor for the type and action pair
func (r *Registry) Register(typ, action string, c Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fam, ok := r.families[typ]
	if !ok {
		fam = map[string]Constructor{}
		r.families[typ] = fam
	}
	if _, ok := fam[action]; ok {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateBlock, typ, action)
	}
	fam[action] = c
	return nil
}

// RegisterFamily adds every action of one block type
func (r *Registry) RegisterFamily(typ string, actions Actions) error {
	for _, action := range slices.Sorted(maps.Keys(actions)) {
		if err := r.Register(typ, action, actions[action]); err != nil {
			return err
		}
	}
	return nil
}

// Lookup resolves the constructor for the type and action pair
func (r *Registry) Lookup(typ, action string) (Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.families[typ][action]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrUnknownBlock, typ, action)
}

// Types returns the registered block types, sorted
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.families))
}

// Actions returns the registered actions of a block type, sorted
func (r *Registry) Actions(typ string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.families[typ]))
}

// Load resolves a template into a block tree
func (r *Registry) Load(t *api.Template) (Block, error) {
	return r.NewLoader().Load(t)
}

// NewLoader starts a load pass
func (r *Registry) NewLoader() *Loader {
	return &Loader{registry: r}
}
