package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/buildgrid/internal/ctxlog"
	"github.com/specialistvlad/buildgrid/internal/product"
	"github.com/specialistvlad/buildgrid/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

// Scheduler is the part of *scheduler.Scheduler the engine drives.
type Scheduler interface {
	Schedule(ctx context.Context, goals ...product.Goal)
	Next() []*scheduler.Step
	Finish(goal product.Goal, value any) error
	Fail(goal product.Goal, cause error) error
	Result(goal product.Goal) (product.Result, bool)
	State(goal product.Goal) scheduler.State
	Outstanding() int
	Stats() scheduler.Stats
	Err() error
	ResetCancelled() int
}

// Options configures an Engine.
type Options struct {
	// Workers is the number of steps executed concurrently. Values below 2
	// select serial execution.
	Workers int
	// FailFast cancels the run as soon as a requested goal fails.
	FailFast bool
}

// Engine executes goals through a scheduler.
type Engine struct {
	sched Scheduler
	opts  Options
}

// New creates an Engine.
func New(s Scheduler, opts Options) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Engine{sched: s, opts: opts}
}

// outcome is the result of executing one step.
type outcome struct {
	step  *scheduler.Step
	value any
	err   error
}

// run holds the per-run state shared by the drivers.
type run struct {
	*Engine
	roots  map[product.Goal]struct{}
	cancel context.CancelFunc
}

// Run executes goals and returns one result per requested goal.
func (e *Engine) Run(ctx context.Context, goals ...product.Goal) (map[product.Goal]product.Result, error) {
	logger := ctxlog.FromContext(ctx).With("run_id", uuid.NewString())
	ctx = ctxlog.WithLogger(ctx, logger)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &run{Engine: e, roots: make(map[product.Goal]struct{}, len(goals)), cancel: cancel}
	for _, g := range goals {
		r.roots[g] = struct{}{}
	}

	start := time.Now()
	logger.Info("Run started.", "goals", len(goals), "workers", e.opts.Workers, "fail_fast", e.opts.FailFast)

	e.sched.Schedule(runCtx, goals...)
	r.checkFailFast(runCtx)

	var err error
	if e.opts.Workers == 1 {
		err = r.serial(runCtx)
	} else {
		err = r.concurrent(runCtx)
	}
	if err == nil {
		err = e.sched.Err()
	}
	if err == nil {
		if n := e.sched.Outstanding(); n > 0 {
			err = fmt.Errorf("run ended with %d goals still outstanding", n)
		}
	}

	results := make(map[product.Goal]product.Result, len(goals))
	failed := 0
	for _, g := range goals {
		res, ok := e.sched.Result(g)
		if !ok {
			res = product.Result{Err: fmt.Errorf("goal %s did not complete (state %s)", g, e.sched.State(g))}
		}
		if !res.OK() {
			failed++
		}
		results[g] = res
	}

	if n := e.sched.ResetCancelled(); n > 0 {
		logger.Debug("Forgot cancelled goals.", "count", n)
	}

	stats := e.sched.Stats()
	logger.Info("Run finished.",
		"duration", time.Since(start),
		"failed_goals", failed,
		"executed_total", stats.Executed,
		"cache_hits_total", stats.CacheHits,
	)
	if err != nil {
		logger.Error("Run aborted by scheduler inconsistency.", "error", err)
	}
	return results, err
}

// serial executes steps one by one on the calling goroutine.
func (r *run) serial(ctx context.Context) error {
	for {
		steps := r.sched.Next()
		if len(steps) == 0 {
			return nil
		}
		for _, st := range steps {
			if err := r.report(ctx, execute(ctx, st)); err != nil {
				return err
			}
		}
	}
}

// concurrent feeds steps to a worker pool. The coordinator runs in the same
// errgroup as the workers and is the only goroutine that talks to the
// scheduler; its error is the run's error.
func (r *run) concurrent(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	jobs := make(chan *scheduler.Step)
	outcomes := make(chan outcome)

	var g errgroup.Group
	logger.Debug("Starting worker pool.", "workers", r.opts.Workers)
	for i := 0; i < r.opts.Workers; i++ {
		workerID := i
		g.Go(func() error {
			workerLogger := logger.With("worker_id", workerID)
			for st := range jobs {
				workerLogger.Debug("Worker picked up step.", "goal", st.Goal().String())
				outcomes <- execute(ctx, st)
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(jobs)
		return r.coordinate(ctx, jobs, outcomes)
	})

	err := g.Wait()
	logger.Debug("Worker pool stopped.")
	return err
}

// coordinate dispatches ready steps and reports outcomes until nothing is
// queued or in flight. After a scheduler error it stops dispatching but
// still collects every in-flight outcome.
func (r *run) coordinate(ctx context.Context, jobs chan<- *scheduler.Step, outcomes <-chan outcome) error {
	var err error
	queue := r.sched.Next()
	inflight := 0
	for inflight > 0 || (len(queue) > 0 && err == nil) {
		var send chan<- *scheduler.Step
		var next *scheduler.Step
		if len(queue) > 0 && err == nil {
			send, next = jobs, queue[0]
		}

		select {
		case send <- next:
			queue = queue[1:]
			inflight++
		case o := <-outcomes:
			inflight--
			if rerr := r.report(ctx, o); rerr != nil && err == nil {
				err = rerr
				r.cancel()
			}
			queue = append(queue, r.sched.Next()...)
		}
	}
	return err
}

// execute runs a step unless the run was already cancelled.
func execute(ctx context.Context, st *scheduler.Step) outcome {
	if err := ctx.Err(); err != nil {
		return outcome{step: st, err: err}
	}
	v, err := st.Run(ctx)
	return outcome{step: st, value: v, err: err}
}

// report hands an outcome to the scheduler.
func (r *run) report(ctx context.Context, o outcome) error {
	goal := o.step.Goal()
	logger := ctxlog.FromContext(ctx).With("goal", goal.String(), "planner", o.step.Planner())

	if o.err == nil {
		logger.Debug("Step finished.")
		return r.sched.Finish(goal, o.value)
	}

	if scheduler.IsCancellation(o.err) {
		logger.Debug("Step cancelled.", "error", o.err)
	} else {
		logger.Error("Step failed.", "error", o.err)
	}
	if err := r.sched.Fail(goal, o.err); err != nil {
		return err
	}
	r.checkFailFast(ctx)
	return nil
}

// checkFailFast cancels the run once any requested goal has failed.
func (r *run) checkFailFast(ctx context.Context) {
	if !r.opts.FailFast || ctx.Err() != nil {
		return
	}
	for g := range r.roots {
		if r.sched.State(g) == scheduler.Failed {
			ctxlog.FromContext(ctx).Warn("Cancelling run after goal failure.", "goal", g.String())
			r.cancel()
			return
		}
	}
}
