package block

import (
	"errors"
	"fmt"

	"github.com/kode4food/bizunit/internal/value"
	"github.com/kode4food/bizunit/pkg/api"
)

// Error is the single normalized failure surfaced by a block. It carries the
// identity and extra metadata of the block that failed. errors.Is matches
// both the Kind and the Reason; the low-level cause is kept for logging only
type Error struct {
	Kind   error
	Reason error
	Extra  api.Extra
	Type   string
	Action string
	cause  error
}

// Error kinds
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrRuntime         = errors.New("runtime error")
	ErrStorage         = errors.New("storage error")
	ErrAuthorization   = errors.New("authorization error")
	ErrGeneric         = errors.New("block error")
)

// Reasons
var (
	ErrNotFound    = errors.New("not found")
	ErrWrongType   = errors.New("wrong type")
	ErrFailed      = errors.New("unexpected failure")
	ErrPanic       = errors.New("block panicked")
	ErrUnavailable = errors.New("collaborator unavailable")
)

// Load-time errors
var (
	ErrStructure      = errors.New("invalid block structure")
	ErrUnknownBlock   = errors.New("unknown block")
	ErrDuplicateBlock = errors.New("block already registered")
	ErrOutsideLoop    = errors.New("loop control outside of a loop")
)

// Error returns the user-visible message
func (e *Error) Error() string {
	return fmt.Sprintf("%s/%s: %s: %s", e.Type, e.Action, e.Kind, e.Reason)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Reason}
}

// Cause returns the low-level failure that produced the error, if any
func (e *Error) Cause() error {
	return e.cause
}

// Fail creates an error of the given kind attributed to this block
func (b *Base) Fail(kind, reason, cause error) *Error {
	return &Error{
		Kind:   kind,
		Reason: reason,
		Extra:  b.extra,
		Type:   b.typ,
		Action: b.action,
		cause:  cause,
	}
}

// Invalid creates an invalid-argument error with a formatted reason
func (b *Base) Invalid(format string, args ...any) *Error {
	return b.Fail(ErrInvalidArgument, fmt.Errorf(format, args...), nil)
}

// NotFound creates an invalid-argument error for a missing name or key
func (b *Base) NotFound(what any) *Error {
	return b.Invalid("%w: %v", ErrNotFound, what)
}

// WrongType creates an invalid-argument error for a child value of the
// wrong dynamic type
func (b *Base) WrongType(expected string, got any) *Error {
	return b.Invalid("%w: expected %s, got %s",
		ErrWrongType, expected, value.TypeName(got))
}

// AsError reports whether err is a block error, returning it
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
