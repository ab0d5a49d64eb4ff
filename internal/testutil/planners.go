package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/specialistvlad/buildgrid/internal/object"
	"github.com/specialistvlad/buildgrid/internal/planner"
	"github.com/specialistvlad/buildgrid/internal/product"
)

// Recorder counts plan executions per goal. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	counts map[product.Goal]int
	order  []product.Goal
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{counts: make(map[product.Goal]int)}
}

func (r *Recorder) record(g product.Goal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[g]++
	r.order = append(r.order, g)
}

// Count returns how often a goal executed.
func (r *Recorder) Count(g product.Goal) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[g]
}

// Total returns the number of executions across all goals.
func (r *Recorder) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Order returns goals in the order they started executing.
func (r *Recorder) Order() []product.Goal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]product.Goal(nil), r.order...)
}

// counting wraps a planner so every execution of its plans is recorded.
type counting struct {
	planner.Planner
	rec *Recorder
}

// Counting wraps p so that its executions are recorded in rec.
func Counting(p planner.Planner, rec *Recorder) planner.Planner {
	return &counting{Planner: p, rec: rec}
}

// Goals forwards goal names of the wrapped planner.
func (c *counting) Goals() map[string][]product.Kind {
	if gp, ok := c.Planner.(planner.GoalProvider); ok {
		return gp.Goals()
	}
	return nil
}

func (c *counting) Plan(ctx context.Context, subject *object.Struct, kind product.Kind) (*planner.Plan, error) {
	plan, err := c.Planner.Plan(ctx, subject, kind)
	if err != nil || plan == nil {
		return plan, err
	}
	execute := plan.Execute
	return &planner.Plan{
		Requires: plan.Requires,
		Execute: func(ctx context.Context, in planner.Inputs) (any, error) {
			c.rec.record(in.Goal())
			return execute(ctx, in)
		},
	}, nil
}

// JoinPlanner produces kind for any subject by requiring kind of every
// dependency and joining their string products with the subject's name,
// sorted and deduplicated. Fail, when set, decides per subject name whether
// execution returns an error instead. Delay slows every execution.
type JoinPlanner struct {
	Kind  product.Kind
	Fail  func(name string) error
	Delay time.Duration
}

// Planner returns the configured planner.
func (j JoinPlanner) Planner(name string) *planner.Func {
	return &planner.Func{
		PlannerName: name,
		Products:    []product.Kind{j.Kind},
		Requires:    planner.DependenciesOf,
		Run: func(ctx context.Context, in planner.Inputs) (any, error) {
			if j.Delay > 0 {
				select {
				case <-time.After(j.Delay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			if j.Fail != nil {
				if err := j.Fail(in.Subject().Name()); err != nil {
					return nil, err
				}
			}
			seen := map[string]struct{}{in.Subject().Name(): {}}
			for _, req := range in.Requirements() {
				v, _ := in.Product(req)
				for _, part := range strings.Split(v.(string), ",") {
					seen[part] = struct{}{}
				}
			}
			parts := make([]string, 0, len(seen))
			for p := range seen {
				parts = append(parts, p)
			}
			sort.Strings(parts)
			return strings.Join(parts, ","), nil
		},
	}
}
