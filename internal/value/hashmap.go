package value

import (
	"bytes"
	"encoding/json"
	"iter"
	"maps"
	"slices"
)

// HashMap is a keyed map of runtime values. Iteration is in key order so
// serialization is deterministic
type HashMap struct {
	entries map[Key]any
}

// NewHashMap creates an empty hashmap
func NewHashMap() *HashMap {
	return &HashMap{entries: map[Key]any{}}
}

// HashMapOf creates a hashmap from string-keyed values
func HashMapOf(m map[string]any) *HashMap {
	res := NewHashMap()
	for k, v := range m {
		res.Set(StringKey(k), v)
	}
	return res
}

// Len returns the number of entries
func (m *HashMap) Len() int {
	return len(m.entries)
}

// Get returns the value stored under k
func (m *HashMap) Get(k Key) (any, bool) {
	v, ok := m.entries[k]
	return v, ok
}

// Has reports whether k is present
func (m *HashMap) Has(k Key) bool {
	_, ok := m.entries[k]
	return ok
}

// Set stores v under k
func (m *HashMap) Set(k Key, v any) {
	m.entries[k] = v
}

// Remove deletes k, reporting whether it was present
func (m *HashMap) Remove(k Key) bool {
	if _, ok := m.entries[k]; !ok {
		return false
	}
	delete(m.entries, k)
	return true
}

// Merge copies every entry of o into m, overwriting existing keys
func (m *HashMap) Merge(o *HashMap) {
	for k, v := range o.entries {
		m.entries[k] = Clone(v)
	}
}

// Keys returns the keys in sorted order
func (m *HashMap) Keys() []Key {
	keys := slices.Collect(maps.Keys(m.entries))
	slices.SortFunc(keys, func(l, r Key) int {
		switch {
		case l.Less(r):
			return -1
		case r.Less(l):
			return 1
		default:
			return 0
		}
	})
	return keys
}

// All iterates over entries in key order
func (m *HashMap) All() iter.Seq2[Key, any] {
	return func(yield func(Key, any) bool) {
		for _, k := range m.Keys() {
			if !yield(k, m.entries[k]) {
				return
			}
		}
	}
}

// Clone returns a deep copy
func (m *HashMap) Clone() *HashMap {
	res := &HashMap{entries: make(map[Key]any, len(m.entries))}
	for k, v := range m.entries {
		res.entries[k] = Clone(v)
	}
	return res
}

// Equal compares two hashmaps entry by entry
func (m *HashMap) Equal(o *HashMap) bool {
	if len(m.entries) != len(o.entries) {
		return false
	}
	for k, v := range m.entries {
		ov, ok := o.entries[k]
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the hashmap as a JSON object with sorted keys
func (m *HashMap) MarshalJSON() ([]byte, error) {
	return marshalJSON(ToJSON(m))
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
