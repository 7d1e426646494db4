// Package scope implements the per-execution variable store and the stack
// of lexical frames pushed by loops
package scope

import (
	"errors"
	"maps"
)

type (
	// Frame is one associative scope level. The execution memory is itself
	// a Frame that sits beneath every pushed frame
	Frame map[string]any

	// Stack is a push-down stack of frames. It is owned by exactly one
	// execution and is not synchronized
	Stack struct {
		frames []Frame
	}

	undefined struct{}
)

// Undefined marks a name that has been declared but never assigned
var Undefined = undefined{}

var ErrEmptyStack = errors.New("pop on empty stack")

// NewFrame creates an empty frame
func NewFrame() Frame {
	return Frame{}
}

// Declare registers name in the frame without assigning it. Redeclaring an
// existing name resets it
func (f Frame) Declare(name string) {
	f[name] = Undefined
}

// Has reports whether name is declared in the frame
func (f Frame) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Lookup returns the value bound to name. Declared but unassigned names
// yield nil
func (f Frame) Lookup(name string) (any, bool) {
	v, ok := f[name]
	if !ok {
		return nil, false
	}
	if v == Undefined {
		return nil, true
	}
	return v, true
}

// Snapshot copies the frame, rendering unassigned names as nil
func (f Frame) Snapshot() map[string]any {
	res := make(map[string]any, len(f))
	for k, v := range f {
		if v == Undefined {
			v = nil
		}
		res[k] = v
	}
	return res
}

// NewStack creates an empty stack
func NewStack() *Stack {
	return &Stack{}
}

// Push creates and stores a new empty frame, returning it
func (s *Stack) Push() Frame {
	f := NewFrame()
	s.frames = append(s.frames, f)
	return f
}

// Pop discards the most recently pushed frame
func (s *Stack) Pop() error {
	if len(s.frames) == 0 {
		return ErrEmptyStack
	}
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// Peek returns the most recently pushed frame, if any
func (s *Stack) Peek() (Frame, bool) {
	if len(s.frames) == 0 {
		return nil, false
	}
	return s.frames[len(s.frames)-1], true
}

// Depth returns the number of pushed frames
func (s *Stack) Depth() int {
	return len(s.frames)
}

// Resolve finds the frame that declares name, searching the most recently
// pushed frame first and falling back to memory
func (s *Stack) Resolve(name string, memory Frame) (Frame, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Has(name) {
			return s.frames[i], true
		}
	}
	if memory.Has(name) {
		return memory, true
	}
	return nil, false
}

// Declare registers name in the innermost frame, or in memory when no
// frame has been pushed
func (s *Stack) Declare(name string, memory Frame) {
	if f, ok := s.Peek(); ok {
		f.Declare(name)
		return
	}
	memory.Declare(name)
}

// Snapshot copies every frame, innermost last
func (s *Stack) Snapshot() []map[string]any {
	res := make([]map[string]any, len(s.frames))
	for i, f := range s.frames {
		res[i] = maps.Clone(f.Snapshot())
	}
	return res
}
