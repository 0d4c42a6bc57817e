package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/specialistvlad/gridflow/internal/dag"
	"github.com/specialistvlad/gridflow/internal/metrics"
	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/scheduler"
	"github.com/specialistvlad/gridflow/internal/task"
)

const tracerName = "github.com/specialistvlad/gridflow/internal/executor"

// ErrStalled is returned if the scheduler reports outstanding work but
// hands out nothing, which would otherwise spin forever.
var ErrStalled = errors.New("executor: scheduler stalled with work outstanding")

// Engine executes workflows. It is safe to call Run repeatedly; each call
// gets fresh state.
type Engine struct {
	registry *registry.Registry
	logger   *slog.Logger
	workers  int
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	planW    io.Writer
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds the number of concurrently executing tasks. Zero or a
// negative value means one worker per task.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithMetrics reports task and run metrics to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer overrides the tracer taken from the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithPlanWriter sets where a dry run prints its plan. Defaults to stdout.
func WithPlanWriter(w io.Writer) Option {
	return func(e *Engine) { e.planW = w }
}

// New creates an Engine that builds tasks from reg and logs through logger.
func New(reg *registry.Registry, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		planW:    os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// pass describes one sweep over the graph.
type pass struct {
	name    string
	reverse bool
	action  func(d *task.Descriptor) *task.Action
}

var (
	forwardPass = pass{name: "do", action: func(d *task.Descriptor) *task.Action { return d.Do }}
	cleanupPass = pass{name: "cleanup", reverse: true, action: func(d *task.Descriptor) *task.Action { return d.Cleanup }}
)

// Run executes coll: the forward pass, then the cleanup pass. Task failures
// are reported in the result; the returned error is reserved for problems
// with the workflow itself, such as a dependency cycle.
func (e *Engine) Run(ctx context.Context, coll *task.Collection, dryRun bool) (*RunResult, error) {
	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID)
	result := &RunResult{RunID: runID, DryRun: dryRun}

	ctx, span := e.tracer.Start(ctx, "gridflow.run", trace.WithAttributes(
		attribute.String("gridflow.run_id", runID),
		attribute.Int("gridflow.tasks", coll.Len()),
		attribute.Bool("gridflow.dry_run", dryRun),
	))
	defer span.End()

	if dryRun {
		if err := e.dryRun(coll); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		logger.Info("Dry run finished, nothing executed.", "tasks", coll.Len())
		return result, nil
	}

	start := time.Now()
	logger.Info("🚀 Starting concurrent execution...", "tasks", coll.Len(), "workers", e.workerCount(coll))

	forward, err := e.runPass(ctx, logger, coll, forwardPass)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	result.Forward = forward

	// Cleanup is best effort and must not be cut short by an interrupt that
	// stopped the forward pass.
	cleanup, err := e.runPass(context.WithoutCancel(ctx), logger, coll, cleanupPass)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	result.Cleanup = cleanup

	e.metrics.RunFinished(result.OK(), time.Since(start))
	if result.OK() {
		span.SetStatus(codes.Ok, "")
		logger.Info("🏁 Execution finished.", "successful", len(result.Successful()), "duration", time.Since(start))
	} else {
		span.SetStatus(codes.Error, "tasks failed")
		logger.Error("🏁 Execution finished with failures.",
			"failed", result.Failed(), "canceled", result.Canceled(), "duration", time.Since(start))
	}
	return result, nil
}

func (e *Engine) dryRun(coll *task.Collection) error {
	sorter, deps, err := scheduler.Build(coll, false)
	if err != nil {
		return err
	}
	if err := sorter.Prepare(); err != nil {
		return err
	}
	return NewPlan(deps).Render(e.planW)
}

func (e *Engine) workerCount(coll *task.Collection) int {
	if e.workers > 0 {
		return e.workers
	}
	return max(coll.Len(), 1)
}

// runPass drives one pass to completion and returns its outcome.
func (e *Engine) runPass(ctx context.Context, logger *slog.Logger, coll *task.Collection, p pass) (PassResult, error) {
	logger = logger.With("phase", p.name)
	ctx, span := e.tracer.Start(ctx, "gridflow.pass", trace.WithAttributes(attribute.String("gridflow.phase", p.name)))
	defer span.End()

	sorter, deps, err := scheduler.Build(coll, p.reverse)
	if err != nil {
		return PassResult{}, fmt.Errorf("%s pass: %w", p.name, err)
	}
	if err := sorter.Prepare(); err != nil {
		return PassResult{}, fmt.Errorf("%s pass: %w", p.name, err)
	}

	// In the cleanup pass a task waits for, and is skipped because of, the
	// tasks that depended on it.
	waitOn := deps
	if p.reverse {
		waitOn = deps.Reverse()
	}

	st := newRunState(coll.Names())
	pool := NewPool(e.workerCount(coll))
	logger.Debug("Pass started.", "workers", pool.Size())

	for sorter.IsActive() {
		ready, err := sorter.GetReady()
		if err != nil {
			return PassResult{}, err
		}
		if len(ready) == 0 {
			return PassResult{}, ErrStalled
		}

		failuresBefore := st.failures
		for _, name := range ready {
			if err := e.dispatch(ctx, logger, st, pool, coll, waitOn, p, name); err != nil {
				return PassResult{}, err
			}
			if err := sorter.Done(name); err != nil {
				return PassResult{}, err
			}
		}

		e.harvestResolved(st)
		if st.failures > failuresBefore {
			logger.Debug("Failure observed, draining outstanding tasks.")
			waitAll(st.outstanding())
			e.harvestResolved(st)
		}
	}

	pool.Wait()
	e.harvestResolved(st)

	res := st.result()
	if len(res.Failed) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d tasks failed", len(res.Failed)))
	}
	logger.Debug("Pass finished.", "failed", len(res.Failed), "canceled", len(res.Canceled), "successful", len(res.Successful))
	return res, nil
}

// dispatch decides the fate of one ready task: cancel it, pass over it, or
// submit its action to the pool.
func (e *Engine) dispatch(ctx context.Context, logger *slog.Logger, st *RunState, pool *Pool,
	coll *task.Collection, waitOn dag.DependencyMap, p pass, name string) error {

	if err := st.move(name, Ready); err != nil {
		return err
	}
	deps := waitOn[name]

	if !st.blocked(deps) {
		waitAll(st.futuresOf(deps))
		e.harvest(st, deps)
	}

	if st.blocked(deps) {
		logger.Warn("Skipping task due to dependency failure", "task", name)
		e.metrics.TaskCanceled(p.name)
		return st.move(name, Canceled)
	}
	if ctx.Err() != nil {
		logger.Warn("Skipping task, run interrupted", "task", name, "error", ctx.Err())
		e.metrics.TaskCanceled(p.name)
		return st.move(name, Canceled)
	}

	d, _ := coll.Get(name)
	action := p.action(d)
	if action == nil {
		// Nothing to do in this pass; the task leaves no outcome.
		return nil
	}

	if err := st.move(name, Running); err != nil {
		return err
	}
	st.futures[name] = pool.Submit(ctx, e.execute(logger, d, action, p.name))
	return nil
}

// harvest records the outcome of the resolved futures among names.
func (e *Engine) harvest(st *RunState, names []string) {
	for _, name := range names {
		f, ok := st.futures[name]
		if !ok || st.harvest[name] || !f.Resolved() {
			continue
		}
		st.harvest[name] = true
		if err := f.Err(); err != nil {
			st.errs[name] = err
			_ = st.move(name, Failed)
			continue
		}
		_ = st.move(name, Succeeded)
	}
}

func (e *Engine) harvestResolved(st *RunState) {
	names := make([]string, 0, len(st.futures))
	for name := range st.futures {
		names = append(names, name)
	}
	e.harvest(st, names)
}

// execute wraps one action into the unit of work handed to the pool. It
// builds the task, runs it, and logs the attempt exactly once.
func (e *Engine) execute(logger *slog.Logger, d *task.Descriptor, a *task.Action, phase string) func(context.Context) error {
	return func(ctx context.Context) (err error) {
		tlog := logger.With("task", d.Name)
		ctx, span := e.tracer.Start(ctx, "gridflow.task", trace.WithAttributes(
			attribute.String("gridflow.task", d.Name),
			attribute.String("gridflow.task_type", a.Type),
			attribute.String("gridflow.phase", phase),
		))
		defer span.End()

		tlog.Info("▶️ Starting task", "type", a.Type)
		e.metrics.TaskStarted(phase)
		start := time.Now()

		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
			dur := time.Since(start)
			if err != nil {
				tlog.Error("❌ Task failed", "error", err, "duration", dur)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				e.metrics.TaskFinished(phase, metrics.OutcomeFailed, dur)
				return
			}
			tlog.Info("✅ Finished task", "duration", dur)
			span.SetStatus(codes.Ok, "")
			e.metrics.TaskFinished(phase, metrics.OutcomeSucceeded, dur)
		}()

		t, err := e.registry.New(a.Type, d.Name, a.Params, tlog)
		if err != nil {
			return fmt.Errorf("building task: %w", err)
		}
		return t.Execute(ctx)
	}
}
