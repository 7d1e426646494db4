package assert

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/config"
	"github.com/kode4food/bizunit/internal/value"
	"github.com/kode4food/bizunit/pkg/api"
)

// Wrapper wraps testify assertions with bizunit-specific helpers
type Wrapper struct {
	*testing.T
	*assert.Assertions
	Require *require.Assertions
}

// New creates a new test assertion wrapper with both assert and require from
// testify plus bizunit-specific helpers
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
		Require:    require.New(t),
	}
}

// BlockError asserts that err is a block error of the given kind and
// reason, returning it for further inspection. A nil kind or reason
// matches any
func (w *Wrapper) BlockError(err error, kind, reason error) *block.Error {
	w.Helper()
	w.Require.Error(err)
	be, ok := block.AsError(err)
	w.Require.True(ok, "expected a block error, got %T: %v", err, err)
	if kind != nil {
		w.ErrorIs(be, kind)
	}
	if reason != nil {
		w.ErrorIs(be, reason)
	}
	return be
}

// InvalidArgument asserts that err is an invalid-argument block error
func (w *Wrapper) InvalidArgument(err error) *block.Error {
	w.Helper()
	return w.BlockError(err, block.ErrInvalidArgument, nil)
}

// NotFound asserts that err reports a missing name or key
func (w *Wrapper) NotFound(err error) *block.Error {
	w.Helper()
	return w.BlockError(err, block.ErrInvalidArgument, block.ErrNotFound)
}

// WrongType asserts that err reports a value of an unexpected type
func (w *Wrapper) WrongType(err error) *block.Error {
	w.Helper()
	return w.BlockError(err, block.ErrInvalidArgument, block.ErrWrongType)
}

// RoundTrip asserts that loading tmpl and reconstructing its template
// yields an equivalent document
func (w *Wrapper) RoundTrip(r *block.Registry, tmpl *api.Template) {
	w.Helper()
	b, err := r.Load(tmpl)
	w.Require.NoError(err)

	expected, err := json.Marshal(tmpl)
	w.Require.NoError(err)
	actual, err := json.Marshal(b.Template())
	w.Require.NoError(err)
	w.JSONEq(string(expected), string(actual))
}

// LoadFails asserts that tmpl is rejected at load time with reason
func (w *Wrapper) LoadFails(
	r *block.Registry, tmpl *api.Template, reason error,
) {
	w.Helper()
	_, err := r.Load(tmpl)
	w.ErrorIs(err, reason)
}

// ValueEqual asserts that two runtime values are deeply equal, comparing
// containers by content
func (w *Wrapper) ValueEqual(expected, actual any) {
	w.Helper()
	w.True(value.Equal(expected, actual),
		"expected %s, got %s", describe(expected), describe(actual))
}

// ConfigValid asserts that a configuration is valid
func (w *Wrapper) ConfigValid(cfg *config.Config) {
	w.Helper()
	w.NoError(cfg.Validate())
	w.True(cfg.APIPort > 0 && cfg.APIPort <= config.MaxTCPPort)
	w.NotEmpty(cfg.PlanBucketURL)
}

// ConfigInvalid asserts that a configuration is invalid
func (w *Wrapper) ConfigInvalid(cfg *config.Config, contains string) {
	w.Helper()
	err := cfg.Validate()
	w.Require.Error(err)
	if contains != "" {
		w.Contains(err.Error(), contains)
	}
}

func describe(v any) string {
	data, err := json.Marshal(value.ToJSON(v))
	if err != nil {
		return value.TypeName(v)
	}
	return string(data)
}
