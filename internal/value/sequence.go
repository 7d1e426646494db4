package value

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// Sequence is an ordered list of runtime values
type Sequence struct {
	items []any
}

var ErrIndexOutOfRange = errors.New("index out of range")

// NewSequence creates a sequence holding the given values
func NewSequence(items ...any) *Sequence {
	return &Sequence{items: slices.Clone(items)}
}

// Len returns the number of elements
func (s *Sequence) Len() int {
	return len(s.items)
}

// Items returns a copy of the elements
func (s *Sequence) Items() []any {
	return slices.Clone(s.items)
}

// All iterates over index/value pairs
func (s *Sequence) All() iter.Seq2[int64, any] {
	return func(yield func(int64, any) bool) {
		for i, v := range s.items {
			if !yield(int64(i), v) {
				return
			}
		}
	}
}

// Append adds values to the end of the sequence
func (s *Sequence) Append(vals ...any) {
	s.items = append(s.items, vals...)
}

// Get returns the element at index
func (s *Sequence) Get(idx int64) (any, error) {
	if idx < 0 || idx >= int64(len(s.items)) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, idx)
	}
	return s.items[idx], nil
}

// Set replaces the element at index
func (s *Sequence) Set(idx int64, v any) error {
	if idx < 0 || idx >= int64(len(s.items)) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, idx)
	}
	s.items[idx] = v
	return nil
}

// Contains reports whether any element equals v
func (s *Sequence) Contains(v any) bool {
	for _, elem := range s.items {
		if Equal(elem, v) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy
func (s *Sequence) Clone() *Sequence {
	res := &Sequence{items: make([]any, len(s.items))}
	for i, v := range s.items {
		res.items[i] = Clone(v)
	}
	return res
}

// Equal compares two sequences element by element
func (s *Sequence) Equal(o *Sequence) bool {
	if len(s.items) != len(o.items) {
		return false
	}
	for i, v := range s.items {
		if !Equal(v, o.items[i]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the sequence as a JSON array
func (s *Sequence) MarshalJSON() ([]byte, error) {
	return marshalJSON(ToJSON(s))
}
