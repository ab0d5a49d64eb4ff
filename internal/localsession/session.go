// Package localsession provides a concrete implementation of the
// session.Session and session.SessionFactory interfaces for local,
// in-process execution.
package localsession

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/buildgrid/internal/address"
	"github.com/specialistvlad/buildgrid/internal/ctxlog"
	"github.com/specialistvlad/buildgrid/internal/declsource"
	"github.com/specialistvlad/buildgrid/internal/engine"
	"github.com/specialistvlad/buildgrid/internal/graph"
	"github.com/specialistvlad/buildgrid/internal/mapper"
	"github.com/specialistvlad/buildgrid/internal/planner"
	"github.com/specialistvlad/buildgrid/internal/product"
	"github.com/specialistvlad/buildgrid/internal/scheduler"
	"github.com/specialistvlad/buildgrid/internal/session"
)

// SessionFactory implements session.Factory for local runs.
type SessionFactory struct{}

var _ session.Factory = (*SessionFactory)(nil)

// NewSession wires a fresh mapper, scheduler and engine.
func (f *SessionFactory) NewSession(
	ctx context.Context,
	source declsource.Source,
	registry *planner.Registry,
	opts session.Options,
) (session.Session, error) {
	if source == nil {
		return nil, fmt.Errorf("declaration source is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("planner registry is required")
	}

	s := &Session{id: uuid.NewString(), registry: registry}
	s.mapper = mapper.New(source, registry.Schemas())
	s.sched = scheduler.New(s.mapper, registry)
	s.engine = engine.New(s.sched, engine.Options{Workers: opts.Workers, FailFast: opts.FailFast})

	ctxlog.FromContext(ctx).Debug("Session created.", "session_id", s.id, "workers", opts.Workers, "fail_fast", opts.FailFast)
	return s, nil
}

// Session implements session.Session for local runs.
type Session struct {
	id       string
	registry *planner.Registry
	mapper   *mapper.Mapper
	sched    *scheduler.Scheduler
	engine   *engine.Engine
}

var _ session.Session = (*Session)(nil)

// ID returns the session identifier attached to its logs.
func (s *Session) ID() string { return s.id }

// Mapper returns the session's address resolver.
func (s *Session) Mapper() *mapper.Mapper { return s.mapper }

func (s *Session) logged(ctx context.Context) context.Context {
	return ctxlog.With(ctx, "session_id", s.id)
}

// Graph builds the dependency graph of roots.
func (s *Session) Graph(ctx context.Context, roots ...address.Address) (*graph.Graph, error) {
	return graph.NewBuilder(s.mapper).Build(s.logged(ctx), roots...)
}

// Run executes goals.
func (s *Session) Run(ctx context.Context, goals ...product.Goal) (map[product.Goal]product.Result, error) {
	return s.engine.Run(s.logged(ctx), goals...)
}

// Request expands req and runs the resulting goals.
func (s *Session) Request(ctx context.Context, req session.BuildRequest) (map[product.Goal]product.Result, error) {
	ctx = s.logged(ctx)
	goals := s.Expand(ctx, req)
	ctxlog.FromContext(ctx).Debug("Build request expanded.", "request", req.String(), "goals", len(goals))
	return s.Run(ctx, goals...)
}

// Expand turns a request into goals. Registered goal names keep only the
// product kinds some planner can make for each root; direct product kinds
// are always kept so that impossible requests surface as NoPlanError.
// Roots that cannot be resolved keep every kind and fail when run.
func (s *Session) Expand(ctx context.Context, req session.BuildRequest) []product.Goal {
	var goals []product.Goal
	seen := make(map[product.Goal]struct{})
	add := func(g product.Goal) {
		if _, dup := seen[g]; !dup {
			seen[g] = struct{}{}
			goals = append(goals, g)
		}
	}

	for _, root := range req.Roots {
		subject, err := s.mapper.Resolve(ctx, root)
		for _, name := range req.Goals {
			kinds := s.registry.ProductsForGoal(name)
			if len(kinds) == 0 {
				add(product.NewGoal(root, product.Kind(name)))
				continue
			}
			for _, k := range kinds {
				if err != nil || s.registry.CanProduce(subject, k) {
					add(product.NewGoal(root, k))
				}
			}
		}
	}
	return goals
}

// Snapshot returns the scheduler's view of every known goal.
func (s *Session) Snapshot() []scheduler.NodeInfo {
	return s.sched.Snapshot()
}

// Stats returns scheduler counters.
func (s *Session) Stats() scheduler.Stats {
	return s.sched.Stats()
}

// Close implements session.Session. A local session holds no external
// resources.
func (s *Session) Close(ctx context.Context) error {
	ctxlog.FromContext(ctx).Debug("Session closed.", "session_id", s.id, "goals", len(s.sched.Snapshot()))
	return nil
}
