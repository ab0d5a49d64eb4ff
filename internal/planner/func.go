package planner

import (
	"context"

	"github.com/specialistvlad/buildgrid/internal/object"
	"github.com/specialistvlad/buildgrid/internal/product"
)

// Func is a Planner assembled from plain values and closures.
type Func struct {
	PlannerName string
	// Products lists the product kinds this planner makes.
	Products []product.Kind
	// SubjectKinds restricts the subjects it applies to. Empty means any.
	SubjectKinds []string
	// GoalNames maps goal names to the products they request.
	GoalNames map[string][]product.Kind
	// Inputs are alternative sets of input products. Empty means none.
	Inputs [][]product.Kind
	// Requires computes the requirement goals of a subject. Optional.
	Requires func(subject *object.Struct, kind product.Kind) ([]product.Goal, error)
	Run      ExecuteFunc
}

var (
	_ Planner       = (*Func)(nil)
	_ GoalProvider  = (*Func)(nil)
	_ InputConsumer = (*Func)(nil)
)

func (f *Func) Name() string { return f.PlannerName }

func (f *Func) Goals() map[string][]product.Kind { return f.GoalNames }

func (f *Func) InputProducts() [][]product.Kind { return f.Inputs }

func (f *Func) Applicable(subject *object.Struct, kind product.Kind) bool {
	if !containsKind(f.Products, kind) {
		return false
	}
	if len(f.SubjectKinds) == 0 {
		return true
	}
	for _, k := range f.SubjectKinds {
		if k == subject.Kind() {
			return true
		}
	}
	return false
}

func (f *Func) Plan(_ context.Context, subject *object.Struct, kind product.Kind) (*Plan, error) {
	var requires []product.Goal
	if f.Requires != nil {
		var err error
		if requires, err = f.Requires(subject, kind); err != nil {
			return nil, err
		}
	}
	return &Plan{Requires: requires, Execute: f.Run}, nil
}

// DependenciesOf is a Requires helper asking for the same product kind of
// every dependency.
func DependenciesOf(subject *object.Struct, kind product.Kind) ([]product.Goal, error) {
	deps := subject.Dependencies()
	goals := make([]product.Goal, len(deps))
	for i, d := range deps {
		goals[i] = product.NewGoal(d, kind)
	}
	return goals, nil
}
