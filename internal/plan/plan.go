// Package plan loads plan documents into executable block trees and runs
// them, one session per inbound request
package plan

import (
	"errors"
	"fmt"
	"maps"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/pkg/api"
)

type (
	// Manager resolves plan documents into plans through a block registry
	Manager struct {
		registry *block.Registry
	}

	// Plan is a loaded, immutable plan. Its operators run in declared
	// order; version and info pass through untouched
	Plan struct {
		sequence *block.Aggregator
		info     map[string]any
		version  string
	}
)

var ErrLoad = errors.New("failed to load plan")

// NewManager creates a manager resolving blocks through r
func NewManager(r *block.Registry) *Manager {
	return &Manager{registry: r}
}

// Parse decodes a JSON plan document
func Parse(data []byte) (*api.Document, error) {
	return api.ParseDocument(data)
}

// Load resolves every top-level template of doc into an operator
func (m *Manager) Load(doc *api.Document) (*Plan, error) {
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	l := m.registry.NewLoader()
	seq := block.NewAggregator()
	for i, t := range doc.Plan.Flow.Sequence {
		b, err := l.Load(t)
		if err != nil {
			return nil, fmt.Errorf("%w: operator %d: %w", ErrLoad, i, err)
		}
		seq.Append(b)
	}
	return &Plan{
		sequence: seq,
		version:  doc.Plan.Version,
		info:     maps.Clone(doc.Plan.Info),
	}, nil
}

// LoadJSON parses and loads a JSON plan document
func (m *Manager) LoadJSON(data []byte) (*Plan, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return m.Load(doc)
}

// Template reconstructs the document p was loaded from
func (m *Manager) Template(p *Plan) *api.Document {
	return p.Document()
}

// Normalize round trips a document through load and template
func (m *Manager) Normalize(doc *api.Document) (*api.Document, error) {
	p, err := m.Load(doc)
	if err != nil {
		return nil, err
	}
	return p.Document(), nil
}

// Document walks the live block tree, producing an equivalent document
func (p *Plan) Document() *api.Document {
	doc := api.NewDocument(p.sequence.Templates()...)
	doc.Plan.Version = p.version
	doc.Plan.Info = maps.Clone(p.info)
	return doc
}

// Sequence returns the top-level operators
func (p *Plan) Sequence() *block.Aggregator {
	return p.sequence
}

func (p *Plan) Version() string {
	return p.version
}

// Info returns a copy of the plan's pass-through metadata
func (p *Plan) Info() map[string]any {
	return maps.Clone(p.info)
}
