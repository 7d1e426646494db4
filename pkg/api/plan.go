package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

type (
	// Document is the persisted form of a plan (bizunit)
	Document struct {
		Plan *PlanBody `json:"plan"`
	}

	// PlanBody holds the plan's flow and its pass-through metadata
	PlanBody struct {
		Flow    *Flow          `json:"flow"`
		Version string         `json:"plan-version,omitempty"`
		Info    map[string]any `json:"plan-info,omitempty"`
	}

	// Flow holds the top-level sequence of operators
	Flow struct {
		Sequence []*Template `json:"sequence"`
	}
)

var (
	ErrPlanMissing = errors.New("plan document has no plan")
	ErrFlowMissing = errors.New("plan has no flow")
	ErrParsePlan   = errors.New("failed to parse plan document")
)

// NewDocument creates a plan document from a top-level sequence
func NewDocument(seq ...*Template) *Document {
	if seq == nil {
		seq = []*Template{}
	}
	return &Document{
		Plan: &PlanBody{
			Flow: &Flow{Sequence: seq},
		},
	}
}

// ParseDocument decodes a JSON plan document and checks its outer shape
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParsePlan, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks that the document has a plan and a flow
func (d *Document) Validate() error {
	if d.Plan == nil {
		return ErrPlanMissing
	}
	if d.Plan.Flow == nil {
		return ErrFlowMissing
	}
	return nil
}
