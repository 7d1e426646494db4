package block

import (
	"errors"

	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/pkg/api"
)

type (
	// BreakSignal stops the nearest enclosing loop
	BreakSignal struct{}

	// ContinueSignal ends the current iteration of the nearest enclosing
	// loop
	ContinueSignal struct{}

	// ReturnSignal ends the plan early with a response
	ReturnSignal struct {
		Response *api.Response
	}

	// BreakpointSignal halts a debug execution with a variable snapshot
	BreakpointSignal struct {
		Snapshot *session.Snapshot
	}
)

func (*BreakSignal) Error() string {
	return "break signal"
}

func (*ContinueSignal) Error() string {
	return "continue signal"
}

func (*ReturnSignal) Error() string {
	return "return signal"
}

func (*BreakpointSignal) Error() string {
	return "breakpoint signal"
}

// IsSignal reports whether err is a control-flow signal rather than a
// failure
func IsSignal(err error) bool {
	var (
		b  *BreakSignal
		c  *ContinueSignal
		r  *ReturnSignal
		bp *BreakpointSignal
	)
	return errors.As(err, &b) || errors.As(err, &c) ||
		errors.As(err, &r) || errors.As(err, &bp)
}
