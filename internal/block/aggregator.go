package block

import (
	"context"
	"iter"

	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/pkg/api"
)

// Aggregator is an ordered collection of blocks, appended to only while a
// plan is being loaded. A nil Aggregator is empty
type Aggregator struct {
	blocks []Block
}

// NewAggregator creates an aggregator holding blocks, in order
func NewAggregator(blocks ...Block) *Aggregator {
	return &Aggregator{blocks: blocks}
}

// Append adds a block to the end of the collection
func (a *Aggregator) Append(b Block) {
	a.blocks = append(a.blocks, b)
}

func (a *Aggregator) Len() int {
	if a == nil {
		return 0
	}
	return len(a.blocks)
}

func (a *Aggregator) IsEmpty() bool {
	return a.Len() == 0
}

// Blocks returns the blocks in order
func (a *Aggregator) Blocks() []Block {
	if a == nil {
		return nil
	}
	return a.blocks
}

// All iterates over the blocks in order
func (a *Aggregator) All() iter.Seq2[int, Block] {
	return func(yield func(int, Block) bool) {
		for i, b := range a.Blocks() {
			if !yield(i, b) {
				return
			}
		}
	}
}

// Execute runs every block in order, returning the last value. The first
// error or signal stops the run
func (a *Aggregator) Execute(
	ctx context.Context, st *session.Storage,
) (any, error) {
	var res any
	for _, b := range a.Blocks() {
		v, err := Eval(ctx, st, b)
		if err != nil {
			return nil, err
		}
		res = v
	}
	return res, nil
}

// Values runs every block in order, collecting their values
func (a *Aggregator) Values(
	ctx context.Context, st *session.Storage,
) ([]any, error) {
	res := make([]any, 0, a.Len())
	for _, b := range a.Blocks() {
		v, err := Eval(ctx, st, b)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}

// Templates returns the template of every block, in order
func (a *Aggregator) Templates() []*api.Template {
	res := make([]*api.Template, 0, a.Len())
	for _, b := range a.Blocks() {
		res = append(res, b.Template())
	}
	return res
}
