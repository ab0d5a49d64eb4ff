// Package session defines the core interfaces for creating and managing a
// build session. A session owns one mapper, one scheduler and one engine;
// all memoized state lives and dies with it.
package session

import (
	"context"
	"fmt"

	"github.com/specialistvlad/buildgrid/internal/address"
	"github.com/specialistvlad/buildgrid/internal/declsource"
	"github.com/specialistvlad/buildgrid/internal/graph"
	"github.com/specialistvlad/buildgrid/internal/planner"
	"github.com/specialistvlad/buildgrid/internal/product"
	"github.com/specialistvlad/buildgrid/internal/scheduler"
)

// Options configures execution within a session.
type Options struct {
	Workers  int
	FailFast bool
}

// BuildRequest names goals to run against root subjects. A goal is either a
// registered goal name, expanded to the product kinds it covers, or a
// product kind requested directly.
type BuildRequest struct {
	Goals []string
	Roots []address.Address
}

func (r BuildRequest) String() string {
	return fmt.Sprintf("BuildRequest(goals=%v, roots=%v)", r.Goals, r.Roots)
}

// Factory creates sessions. Different implementations can back the
// scheduler and execution with different machinery.
type Factory interface {
	NewSession(ctx context.Context, source declsource.Source, registry *planner.Registry, opts Options) (Session, error)
}

// Session represents one build session.
type Session interface {
	ID() string
	// Graph builds the validated dependency graph of roots.
	Graph(ctx context.Context, roots ...address.Address) (*graph.Graph, error)
	// Run executes goals and returns one result per goal.
	Run(ctx context.Context, goals ...product.Goal) (map[product.Goal]product.Result, error)
	// Request expands a BuildRequest into goals and runs them.
	Request(ctx context.Context, req BuildRequest) (map[product.Goal]product.Result, error)
	// Snapshot returns the scheduler's current view of every known goal.
	Snapshot() []scheduler.NodeInfo
	// Close releases any resources held by the session.
	Close(ctx context.Context) error
}
