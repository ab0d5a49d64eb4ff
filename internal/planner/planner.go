// Package planner defines how a (subject, product kind) pair becomes a unit
// of work, and the ordered registry that picks the planner for each pair.
package planner

import (
	"context"

	"github.com/specialistvlad/buildgrid/internal/object"
	"github.com/specialistvlad/buildgrid/internal/product"
)

// Planner maps a subject and a requested product kind to a Plan.
//
// Applicable must be a pure function of its arguments: it may inspect the
// subject but never perform I/O. Plan may return a nil plan to decline.
type Planner interface {
	Name() string
	Applicable(subject *object.Struct, kind product.Kind) bool
	Plan(ctx context.Context, subject *object.Struct, kind product.Kind) (*Plan, error)
}

// GoalProvider is implemented by planners that contribute product kinds to
// named goals such as "compile" or "test".
type GoalProvider interface {
	Goals() map[string][]product.Kind
}

// InputConsumer is implemented by planners that only apply when the subject
// can supply certain input products. Each inner slice is one alternative and
// every kind in it must be available, either natively on the subject or from
// another registered planner. The first available alternative is added to
// the plan's requirements on the same subject.
type InputConsumer interface {
	InputProducts() [][]product.Kind
}

// ExecuteFunc computes a product once all requirements are available.
type ExecuteFunc func(ctx context.Context, in Inputs) (any, error)

// Plan is a unit of work for one goal: the goals it requires and the
// computation that runs once they are finished.
type Plan struct {
	Requires []product.Goal
	Execute  ExecuteFunc
}

// Inputs gives an executing plan access to its subject and to the products
// of its requirements.
type Inputs interface {
	Goal() product.Goal
	Subject() *object.Struct
	// Product returns the finished product of a declared requirement.
	Product(g product.Goal) (any, bool)
	Requirements() []product.Goal
}
