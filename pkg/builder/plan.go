package builder

import (
	"context"
	"maps"
	"slices"

	"github.com/kode4food/bizunit/pkg/api"
)

// Plan is an immutable builder for a named plan document
type Plan struct {
	client   *Client
	name     string
	version  string
	info     map[string]any
	sequence []*api.Template
}

// NewPlan creates a plan builder for the named plan
func (c *Client) NewPlan(name string) *Plan {
	return &Plan{
		client:   c,
		name:     name,
		sequence: []*api.Template{},
	}
}

// WithVersion sets the pass-through plan version
func (p *Plan) WithVersion(version string) *Plan {
	res := *p
	res.version = version
	return &res
}

// WithInfo adds one pass-through metadata entry
func (p *Plan) WithInfo(key string, value any) *Plan {
	res := *p
	res.info = maps.Clone(p.info)
	if res.info == nil {
		res.info = map[string]any{}
	}
	res.info[key] = value
	return &res
}

// Then appends operators to the top-level sequence
func (p *Plan) Then(ops ...*api.Template) *Plan {
	res := *p
	res.sequence = append(slices.Clone(p.sequence), ops...)
	return &res
}

func (p *Plan) Name() string {
	return p.name
}

// Document assembles the plan document
func (p *Plan) Document() *api.Document {
	doc := api.NewDocument(slices.Clone(p.sequence)...)
	doc.Plan.Version = p.version
	doc.Plan.Info = maps.Clone(p.info)
	return doc
}

// Put stores the plan, returning the document as the server normalized it
func (p *Plan) Put(ctx context.Context) (*api.Document, error) {
	return p.client.PutPlan(ctx, p.name, p.Document())
}

// Run starts a request builder for this plan
func (p *Plan) Run() *Run {
	return p.client.Run(p.name)
}
