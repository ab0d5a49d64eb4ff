package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/buildgrid/internal/ctxlog"
	"github.com/specialistvlad/buildgrid/internal/object"
	"github.com/specialistvlad/buildgrid/internal/planner"
	"github.com/specialistvlad/buildgrid/internal/product"
	"github.com/zclconf/go-cty/cty"
)

// NativePlanner is the planner name reported for products a subject
// carries itself.
const NativePlanner = "native"

// node is the arena entry of one goal.
type node struct {
	goal       product.Goal
	state      State
	subject    *object.Struct
	planner    string
	execute    planner.ExecuteFunc
	requires   []product.Goal
	pending    int
	dependents []*node
	value      any
	err        error
}

// Stats counts scheduler activity since creation.
type Stats struct {
	// Planned counts goals that entered planning.
	Planned int
	// Executed counts steps handed out for execution.
	Executed int
	// CacheHits counts requests served by an existing node.
	CacheHits int
	Finished  int
	Failed    int
}

// NodeInfo is a read-only view of one goal, for introspection.
type NodeInfo struct {
	Goal     product.Goal
	State    State
	Planner  string
	Requires []product.Goal
	Err      error
}

// Scheduler owns the goal arena. It is safe for concurrent use.
type Scheduler struct {
	subjects object.Resolver
	registry *planner.Registry

	mu     sync.Mutex
	nodes  map[product.Goal]*node
	order  []product.Goal
	ready  []*node
	path   []product.Goal
	active int
	stats  Stats
	broken error
}

// New creates a Scheduler resolving subjects through subjects and plans
// through registry.
func New(subjects object.Resolver, registry *planner.Registry) *Scheduler {
	return &Scheduler{
		subjects: subjects,
		registry: registry,
		nodes:    make(map[product.Goal]*node),
	}
}

// Schedule plans the given goals and everything they require. Failures are
// recorded on the goals themselves; use Result or State to inspect them.
func (s *Scheduler) Schedule(ctx context.Context, goals ...product.Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	for _, g := range goals {
		n, _ := s.require(ctx, g)
		logger.Debug("Goal scheduled.", "goal", g.String(), "state", n.state.String())
	}
}

// require returns the node of goal, planning it first if needed. The error
// is non-nil only when goal is already being planned further up the path.
func (s *Scheduler) require(ctx context.Context, goal product.Goal) (*node, error) {
	if n, ok := s.nodes[goal]; ok {
		if n.state == Planning {
			return n, &RequirementCycleError{Path: s.cyclePath(goal)}
		}
		s.stats.CacheHits++
		return n, nil
	}

	n := &node{goal: goal, state: Unscheduled}
	s.nodes[goal] = n
	s.order = append(s.order, goal)
	s.active++
	s.transition(n, Planning)
	s.stats.Planned++

	s.path = append(s.path, goal)
	defer func() { s.path = s.path[:len(s.path)-1] }()

	subject, err := s.subjects.Resolve(ctx, goal.Subject)
	if err != nil {
		s.fail(n, err)
		return n, nil
	}
	n.subject = subject

	name, plan, err := s.registry.PlanFor(ctx, subject, goal.Product)
	if err != nil {
		s.fail(n, &SchedulingError{Goal: goal, Planner: name, Err: err})
		return n, nil
	}
	if plan == nil {
		v, ok := subject.NativeProduct(string(goal.Product))
		if !ok {
			s.fail(n, &NoPlanError{Goal: goal, SubjectKind: subject.Kind()})
			return n, nil
		}
		name, plan = NativePlanner, nativePlan(v)
	}
	n.planner = name
	n.execute = plan.Execute
	n.requires = dedupe(plan.Requires)

	for _, req := range n.requires {
		child, cycle := s.require(ctx, req)
		if cycle != nil {
			s.fail(n, cycle)
			return n, nil
		}
		switch child.state {
		case Finished:
		case Failed:
			s.fail(n, &DependencyFailedError{Goal: goal, Dependency: req, Err: child.err})
			return n, nil
		default:
			child.dependents = append(child.dependents, n)
			n.pending++
		}
		if n.state == Failed {
			return n, nil
		}
	}

	if n.pending == 0 {
		s.transition(n, Ready)
		s.ready = append(s.ready, n)
	} else {
		s.transition(n, Blocked)
	}
	return n, nil
}

// cyclePath returns the planning path from goal back to goal.
func (s *Scheduler) cyclePath(goal product.Goal) []product.Goal {
	for i, g := range s.path {
		if g == goal {
			path := append([]product.Goal(nil), s.path[i:]...)
			return append(path, goal)
		}
	}
	return []product.Goal{goal, goal}
}

// Next hands out every READY goal, moving each to EXECUTING.
func (s *Scheduler) Next() []*Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps := make([]*Step, 0, len(s.ready))
	for _, n := range s.ready {
		if n.state != Ready {
			continue
		}
		s.transition(n, Executing)
		inputs := make(map[product.Goal]any, len(n.requires))
		for _, req := range n.requires {
			inputs[req] = s.nodes[req].value
		}
		steps = append(steps, &Step{
			goal:     n.goal,
			planner:  n.planner,
			subject:  n.subject,
			execute:  n.execute,
			requires: n.requires,
			inputs:   inputs,
		})
		s.stats.Executed++
	}
	s.ready = s.ready[:0]
	return steps
}

// Finish stores the product of an executing goal and unblocks its
// dependents.
func (s *Scheduler) Finish(goal product.Goal, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.executing(goal)
	if err != nil {
		return err
	}
	n.value = value
	s.transition(n, Finished)
	n.execute = nil

	for _, d := range n.dependents {
		if d.state.Terminal() {
			continue
		}
		d.pending--
		if d.pending == 0 && d.state == Blocked {
			s.transition(d, Ready)
			s.ready = append(s.ready, d)
		}
	}
	n.dependents = nil
	return nil
}

// Fail records an execution failure and fails every transitive dependent.
func (s *Scheduler) Fail(goal product.Goal, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.executing(goal)
	if err != nil {
		return err
	}
	s.fail(n, &PlanExecutionError{Goal: goal, Planner: n.planner, Err: cause})
	return nil
}

func (s *Scheduler) executing(goal product.Goal) (*node, error) {
	n, ok := s.nodes[goal]
	if !ok {
		return nil, &InvariantError{Goal: goal, Msg: "goal was never scheduled"}
	}
	if n.state != Executing {
		return nil, &InvariantError{Goal: goal, Msg: fmt.Sprintf("goal is %s, not EXECUTING", n.state)}
	}
	return n, nil
}

// fail moves n and its transitive dependents to FAILED.
func (s *Scheduler) fail(n *node, err error) {
	if n.state.Terminal() {
		return
	}
	s.transition(n, Failed)
	n.err = err
	n.execute = nil

	dependents := n.dependents
	n.dependents = nil
	for _, d := range dependents {
		s.fail(d, &DependencyFailedError{Goal: d.goal, Dependency: n.goal, Err: err})
	}
}

// transition applies a state change, recording the first illegal one.
func (s *Scheduler) transition(n *node, to State) {
	if !canTransition(n.state, to) {
		if s.broken == nil {
			s.broken = &InvariantError{Goal: n.goal, Msg: fmt.Sprintf("illegal transition %s -> %s", n.state, to)}
		}
		return
	}
	n.state = to
	switch to {
	case Finished:
		s.active--
		s.stats.Finished++
	case Failed:
		s.active--
		s.stats.Failed++
	}
}

// Result returns the outcome of a terminal goal.
func (s *Scheduler) Result(goal product.Goal) (product.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[goal]
	if !ok || !n.state.Terminal() {
		return product.Result{}, false
	}
	return product.Result{Value: n.value, Err: n.err}, true
}

// State returns the state of a goal, UNSCHEDULED if it is unknown.
func (s *Scheduler) State(goal product.Goal) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nodes[goal]; ok {
		return n.state
	}
	return Unscheduled
}

// Outstanding returns the number of goals not yet FINISHED or FAILED.
func (s *Scheduler) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Stats returns activity counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Err returns the first bookkeeping violation observed, if any.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broken
}

// Snapshot returns every known goal in discovery order.
func (s *Scheduler) Snapshot() []NodeInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]NodeInfo, 0, len(s.order))
	for _, g := range s.order {
		n := s.nodes[g]
		out = append(out, NodeInfo{
			Goal:     n.goal,
			State:    n.state,
			Planner:  n.planner,
			Requires: append([]product.Goal(nil), n.requires...),
			Err:      n.err,
		})
	}
	return out
}

// ResetCancelled forgets every goal that failed only because its run was
// cancelled, so that scheduling it again plans it afresh. It returns the
// number of goals forgotten.
func (s *Scheduler) ResetCancelled() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	kept := s.order[:0]
	for _, g := range s.order {
		n := s.nodes[g]
		if n.state == Failed && IsCancellation(n.err) {
			delete(s.nodes, g)
			removed++
			continue
		}
		kept = append(kept, g)
	}
	s.order = kept
	return removed
}

func nativePlan(v cty.Value) *planner.Plan {
	return &planner.Plan{
		Execute: func(context.Context, planner.Inputs) (any, error) { return v, nil },
	}
}

func dedupe(goals []product.Goal) []product.Goal {
	seen := make(map[product.Goal]struct{}, len(goals))
	out := make([]product.Goal, 0, len(goals))
	for _, g := range goals {
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
