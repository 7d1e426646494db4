package debug_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	h "github.com/kode4food/bizunit/internal/assert/helpers"
	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/debug"
	"github.com/kode4food/bizunit/internal/plan/execopt"
	"github.com/kode4food/bizunit/pkg/api"
)

func breakpoint() *api.Template {
	return h.Block(debug.Type, debug.ActionBreakpoint, nil)
}

func TestBreakpoint(t *testing.T) {
	env := h.NewTestEnv(t)
	st := env.Session(t, execopt.WithDebug(true))

	_, err := env.ExecIn(t, st, h.Flatten(
		h.Let("x", h.Seq(h.Int(1))),
		[]*api.Template{breakpoint(), h.Str("unreached")},
	)...)

	var bp *block.BreakpointSignal
	require.True(t, errors.As(err, &bp))
	assert.Equal(t, []any{int64(1)}, bp.Snapshot.Memory["x"])
}

func TestBreakpointIgnored(t *testing.T) {
	env := h.NewTestEnv(t)
	res, err := env.Exec(t, breakpoint(), h.Str("reached"))
	assert.NoError(t, err)
	assert.Equal(t, "reached", res)
}

func TestDump(t *testing.T) {
	env := h.NewTestEnv(t)
	st := env.Session(t, execopt.WithDebug(true))
	res, err := env.ExecIn(t, st,
		h.Block(debug.Type, debug.ActionDump, nil), h.Str("after"),
	)
	assert.NoError(t, err)
	assert.Equal(t, "after", res)
}
