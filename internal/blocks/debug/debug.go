// Package debug provides blocks for inspecting an execution. They do
// nothing unless the execution runs in debug mode
package debug

import (
	"context"
	"log/slog"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/common"
	"github.com/kode4food/bizunit/internal/session"
)

const Type = "debug"

const (
	ActionBreakpoint = "breakpoint"
	ActionDump       = "dump"
)

// Register adds the debug family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionBreakpoint: common.Define(breakpoint),
		ActionDump:       common.Define(dump),
	})
}

// breakpoint halts the execution with a snapshot of its variables
func breakpoint(
	_ context.Context, st *session.Storage, _ *common.Op,
) (any, error) {
	if !st.Debug() {
		return nil, nil
	}
	return nil, &block.BreakpointSignal{Snapshot: st.Snapshot()}
}

// dump logs a snapshot of the variables and continues
func dump(
	ctx context.Context, st *session.Storage, _ *common.Op,
) (any, error) {
	if !st.Debug() {
		return nil, nil
	}
	snap := st.Snapshot()
	st.Logger().DebugContext(ctx, "Variable snapshot",
		slog.Any("memory", snap.Memory),
		slog.Any("stack", snap.Stack))
	return nil, nil
}
