// Package session holds the state shared by every block during one plan
// execution: working memory, the frame stack, operator storages, the
// return-data holder and the external collaborators
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kode4food/bizunit/internal/client"
	"github.com/kode4food/bizunit/internal/events"
	"github.com/kode4food/bizunit/internal/plan/execopt"
	"github.com/kode4food/bizunit/internal/scope"
	"github.com/kode4food/bizunit/internal/script"
	"github.com/kode4food/bizunit/internal/store/keyvalue"
	"github.com/kode4food/bizunit/internal/store/object"
	"github.com/kode4food/bizunit/internal/store/relational"
	"github.com/kode4food/bizunit/internal/value"
	"github.com/kode4food/bizunit/pkg/api"
	"github.com/kode4food/bizunit/pkg/log"
)

type (
	// Dependencies are the collaborators injected into every execution.
	// Logger and Events are required; the rest are optional, and a block
	// that needs an absent one fails when it runs
	Dependencies struct {
		Logger  *slog.Logger
		Events  events.Publisher
		KV      keyvalue.Store
		SQL     relational.Store
		Objects object.Store
		HTTP    client.Client
		Scripts *script.Registry
	}

	// Storage is the per-execution shared context. It is owned by exactly
	// one goroutine and is never shared between executions
	Storage struct {
		Memory    scope.Frame
		Stack     *scope.Stack
		deps      *Dependencies
		logger    *slog.Logger
		operators map[string]any
		metadata  api.Metadata
		ret       *api.Response
		tx        relational.Tx
		id        api.ExecutionID
		planID    api.PlanID
		debug     bool
		closed    bool
	}

	// Snapshot is a copy of the variable state at one point of execution
	Snapshot struct {
		Memory map[string]any   `json:"memory"`
		Stack  []map[string]any `json:"stack"`
	}
)

var (
	ErrMissingDependency   = errors.New("missing required dependency")
	ErrMissingCollaborator = errors.New("collaborator not configured")
	ErrReservedKey         = errors.New("operator storage key is reserved")
	ErrNoReturnData        = errors.New("return data holder is not set")
	ErrClosed              = errors.New("session is closed")
)

// Validate reports the first required collaborator that is absent
func (d *Dependencies) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: dependencies", ErrMissingDependency)
	}
	if d.Logger == nil {
		return fmt.Errorf("%w: logger", ErrMissingDependency)
	}
	if d.Events == nil {
		return fmt.Errorf("%w: events", ErrMissingDependency)
	}
	return nil
}

// New creates the storage for one execution of a plan triggered by req
func New(
	deps *Dependencies, req *api.Request, opts *execopt.Options,
) (*Storage, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = execopt.DefaultOptions()
	}
	if req == nil {
		req = &api.Request{}
	}

	id := api.ExecutionID(uuid.NewString())
	logger := deps.Logger.With(log.ExecutionID(id))
	if opts.PlanID != "" {
		logger = logger.With(log.PlanID(opts.PlanID))
	}

	return &Storage{
		Memory: scope.NewFrame(),
		Stack:  scope.NewStack(),
		deps:   deps,
		logger: logger,
		operators: map[string]any{
			api.RequestStorageKey: req,
		},
		metadata: api.Metadata{}.Apply(opts.Metadata),
		id:       id,
		planID:   opts.PlanID,
		debug:    opts.Debug,
	}, nil
}

// ID returns the execution identifier
func (s *Storage) ID() api.ExecutionID {
	return s.id
}

// PlanID returns the identifier of the executing plan, if known
func (s *Storage) PlanID() api.PlanID {
	return s.planID
}

// Debug reports whether breakpoints are active
func (s *Storage) Debug() bool {
	return s.debug
}

// Logger returns the execution logger
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}

// Events returns the execution event publisher
func (s *Storage) Events() events.Publisher {
	return s.deps.Events
}

// Metadata returns the account, transaction and access metadata
func (s *Storage) Metadata() api.Metadata {
	return s.metadata
}

// Request returns the inbound request snapshot
func (s *Storage) Request() *api.Request {
	req, _ := s.operators[api.RequestStorageKey].(*api.Request)
	return req
}

// Operator returns the operator storage registered under key
func (s *Storage) Operator(key string) (any, bool) {
	v, ok := s.operators[key]
	return v, ok
}

// SetOperator registers an operator storage. The request key is reserved
func (s *Storage) SetOperator(key string, v any) error {
	if key == api.RequestStorageKey {
		return fmt.Errorf("%w: %s", ErrReservedKey, key)
	}
	s.operators[key] = v
	return nil
}

// Declare registers name in the innermost frame, or in memory when no
// frame is pushed
func (s *Storage) Declare(name string) {
	s.Stack.Declare(name, s.Memory)
}

// Lookup resolves name innermost frame first, falling back to memory.
// Declared but unassigned names yield nil
func (s *Storage) Lookup(name string) (any, bool) {
	f, ok := s.Stack.Resolve(name, s.Memory)
	if !ok {
		return nil, false
	}
	return f.Lookup(name)
}

// Assign binds v to name in the frame that declares it. It never declares
// and reports false when name is undeclared
func (s *Storage) Assign(name string, v any) bool {
	f, ok := s.Stack.Resolve(name, s.Memory)
	if !ok {
		return false
	}
	f[name] = v
	return true
}

// SetReturn designates the response the execution will produce
func (s *Storage) SetReturn(r *api.Response) {
	s.ret = r
}

// Return reads the designated response
func (s *Storage) Return() (*api.Response, error) {
	if s.ret == nil {
		return nil, ErrNoReturnData
	}
	return s.ret, nil
}

// KV returns the key/value collaborator
func (s *Storage) KV() (keyvalue.Store, error) {
	if s.deps.KV == nil {
		return nil, fmt.Errorf("%w: key/value store", ErrMissingCollaborator)
	}
	return s.deps.KV, nil
}

// Objects returns the object storage collaborator
func (s *Storage) Objects() (object.Store, error) {
	if s.deps.Objects == nil {
		return nil, fmt.Errorf("%w: object store", ErrMissingCollaborator)
	}
	return s.deps.Objects, nil
}

// HTTP returns the HTTP collaborator
func (s *Storage) HTTP() (client.Client, error) {
	if s.deps.HTTP == nil {
		return nil, fmt.Errorf("%w: http client", ErrMissingCollaborator)
	}
	return s.deps.HTTP, nil
}

// Scripts returns the script registry
func (s *Storage) Scripts() (*script.Registry, error) {
	if s.deps.Scripts == nil {
		return nil, fmt.Errorf("%w: scripts", ErrMissingCollaborator)
	}
	return s.deps.Scripts, nil
}

// SQL returns the execution's relational transaction, beginning one on
// first use
func (s *Storage) SQL(ctx context.Context) (relational.Querier, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.tx != nil {
		return s.tx, nil
	}
	if s.deps.SQL == nil {
		return nil, fmt.Errorf("%w: relational store", ErrMissingCollaborator)
	}
	tx, err := s.deps.SQL.Begin(ctx)
	if err != nil {
		return nil, err
	}
	s.tx = tx
	return tx, nil
}

// Commit commits the open transaction, if any. The next SQL call begins a
// new one
func (s *Storage) Commit() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	return tx.Commit()
}

// Rollback rolls back the open transaction, if any
func (s *Storage) Rollback() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	return tx.Rollback()
}

// Close releases lazily acquired resources, committing the open
// transaction when commit is true and rolling it back otherwise. Close is
// idempotent
func (s *Storage) Close(commit bool) error {
	if s.closed {
		return nil
	}
	s.closed = true
	if commit {
		return s.Commit()
	}
	return s.Rollback()
}

// Snapshot copies the current memory and stack
func (s *Storage) Snapshot() *Snapshot {
	stack := s.Stack.Snapshot()
	for i, f := range stack {
		stack[i] = jsonFrame(f)
	}
	return &Snapshot{
		Memory: jsonFrame(s.Memory.Snapshot()),
		Stack:  stack,
	}
}

// LogException logs err with its full cause chain under a reference tag
func (s *Storage) LogException(err error, tag string) {
	attrs := []any{log.Reference(tag), log.Error(err)}
	var c interface{ Cause() error }
	if errors.As(err, &c) && c.Cause() != nil {
		attrs = append(attrs, slog.String("cause", c.Cause().Error()))
	}
	s.logger.Error("Execution exception", attrs...)
}

func jsonFrame(f map[string]any) map[string]any {
	for k, v := range f {
		f[k] = value.ToJSON(v)
	}
	return f
}
