package plan

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/plan/execopt"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/pkg/api"
	"github.com/kode4food/bizunit/pkg/log"
)

// Executor runs a loaded plan once per request. It holds no per-execution
// state, so one Executor may serve concurrent requests
type Executor struct {
	plan *Plan
	deps *session.Dependencies
	opts *execopt.Options
}

// ExecutorType identifies failures raised by the executor itself rather
// than by a block
const ExecutorType = "plan"

var (
	ErrStraySignal = errors.New("loop control signal escaped the plan")
	ErrClose       = errors.New("failed to release execution resources")
)

// NewExecutor creates an executor for p. The required collaborators in
// deps are checked here rather than on first use
func NewExecutor(
	p *Plan, deps *session.Dependencies, apps ...execopt.Applier,
) (*Executor, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	return &Executor{
		plan: p,
		deps: deps,
		opts: execopt.DefaultOptions(apps...),
	}, nil
}

// Execute runs the plan for req. Per-call appliers refine the executor's
// options, typically with account or access metadata. The session is
// closed on every exit path, committing only when the plan succeeds
func (e *Executor) Execute(
	ctx context.Context, req *api.Request, apps ...execopt.Applier,
) (*api.Response, error) {
	opts := *e.opts
	execopt.ApplyOptions(&opts, apps...)

	st, err := session.New(e.deps, req, &opts)
	if err != nil {
		return nil, err
	}
	st.SetReturn(api.NewResponse())
	e.publish(st, api.EventTypeExecutionStarted, nil)
	st.Logger().Debug("Execution started")

	res, err := e.run(ctx, st)
	if cerr := st.Close(err == nil); cerr != nil {
		st.LogException(cerr, "close")
		if err == nil {
			err = fail(st, block.ErrStorage, ErrClose)
		}
	}

	if err != nil {
		st.Logger().Warn("Execution failed", log.Error(err))
		e.publish(st, api.EventTypeExecutionFailed, failureData(err))
		return nil, err
	}
	st.Logger().Debug("Execution finished", slog.Int("status", res.Status))
	e.publish(st, api.EventTypeExecutionFinished, map[string]any{
		"status": res.Status,
	})
	return res, nil
}

// Template reconstructs the document of the executing plan
func (e *Executor) Template() *api.Document {
	return e.plan.Document()
}

// TemplateJSON renders the document of the executing plan as JSON
func (e *Executor) TemplateJSON() ([]byte, error) {
	return json.Marshal(e.Template())
}

func (e *Executor) run(
	ctx context.Context, st *session.Storage,
) (res *api.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			st.Logger().Error("Execution panicked", slog.Any("panic", r))
			res = nil
			err = fail(st, block.ErrRuntime, block.ErrPanic)
		}
	}()

	if _, err := e.plan.sequence.Execute(ctx, st); err != nil {
		return e.intercept(st, err)
	}
	return st.Return()
}

// intercept resolves a failure or signal that reached the top level
func (e *Executor) intercept(
	st *session.Storage, err error,
) (*api.Response, error) {
	var ret *block.ReturnSignal
	if errors.As(err, &ret) {
		return ret.Response, nil
	}

	var bp *block.BreakpointSignal
	if errors.As(err, &bp) && st.Debug() {
		e.publish(st, api.EventTypeBreakpointHit, bp.Snapshot)
		res := api.NewResponse()
		res.Body = bp.Snapshot
		return res, nil
	}

	if block.IsSignal(err) {
		return nil, fail(st, block.ErrRuntime, ErrStraySignal)
	}
	return nil, err
}

func fail(st *session.Storage, kind, reason error) *block.Error {
	return &block.Error{
		Kind:   kind,
		Reason: reason,
		Type:   ExecutorType,
		Action: string(st.PlanID()),
	}
}

func (e *Executor) publish(
	st *session.Storage, typ api.EventType, data any,
) {
	st.Events().Publish(&api.ExecutionEvent{
		Type:        typ,
		PlanID:      st.PlanID(),
		ExecutionID: st.ID(),
		Data:        data,
	})
}

func failureData(err error) map[string]any {
	res := map[string]any{"error": err.Error()}
	if be, ok := block.AsError(err); ok {
		res["type"] = be.Type
		res["action"] = be.Action
		if be.Extra != nil {
			res["extra"] = be.Extra
		}
	}
	return res
}
