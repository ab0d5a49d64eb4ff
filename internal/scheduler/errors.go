package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/buildgrid/internal/product"
)

// NoPlanError reports a goal no planner can satisfy.
type NoPlanError struct {
	Goal        product.Goal
	SubjectKind string
}

func (e *NoPlanError) Error() string {
	return fmt.Sprintf("no planner can produce %q for %s (kind %q)", e.Goal.Product, e.Goal.Subject, e.SubjectKind)
}

// RequirementCycleError reports goals that require themselves. Path starts
// and ends with the same goal.
type RequirementCycleError struct {
	Path []product.Goal
}

func (e *RequirementCycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, g := range e.Path {
		parts[i] = g.String()
	}
	return "requirement cycle detected: " + strings.Join(parts, " -> ")
}

// SchedulingError wraps an error returned by a planner while planning.
type SchedulingError struct {
	Goal    product.Goal
	Planner string
	Err     error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("planner %q failed to plan %s: %v", e.Planner, e.Goal, e.Err)
}

func (e *SchedulingError) Unwrap() error { return e.Err }

// PlanExecutionError wraps an error returned by a plan's computation.
type PlanExecutionError struct {
	Goal    product.Goal
	Planner string
	Err     error
}

func (e *PlanExecutionError) Error() string {
	return fmt.Sprintf("executing %s (planner %q): %v", e.Goal, e.Planner, e.Err)
}

func (e *PlanExecutionError) Unwrap() error { return e.Err }

// DependencyFailedError marks a goal that was not executed because one of
// its requirements failed.
type DependencyFailedError struct {
	Goal       product.Goal
	Dependency product.Goal
	Err        error
}

func (e *DependencyFailedError) Error() string {
	return fmt.Sprintf("%s skipped: requirement %s failed: %v", e.Goal, e.Dependency, e.Err)
}

func (e *DependencyFailedError) Unwrap() error { return e.Err }

// InvariantError reports a scheduler bookkeeping violation. It indicates a
// bug in the engine driving the scheduler, never a build failure.
type InvariantError struct {
	Goal product.Goal
	Msg  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("scheduler invariant violated for %s: %s", e.Goal, e.Msg)
}

// IsCancellation reports whether err stems from context cancellation.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
