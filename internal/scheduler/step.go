package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/buildgrid/internal/object"
	"github.com/specialistvlad/buildgrid/internal/planner"
	"github.com/specialistvlad/buildgrid/internal/product"
)

// Step is a goal handed out for execution. It carries an immutable snapshot
// of its requirements' products and implements planner.Inputs.
type Step struct {
	goal     product.Goal
	planner  string
	subject  *object.Struct
	execute  planner.ExecuteFunc
	requires []product.Goal
	inputs   map[product.Goal]any
}

var _ planner.Inputs = (*Step)(nil)

func (st *Step) Goal() product.Goal           { return st.goal }
func (st *Step) Planner() string              { return st.planner }
func (st *Step) Subject() *object.Struct      { return st.subject }
func (st *Step) Requirements() []product.Goal { return append([]product.Goal(nil), st.requires...) }

func (st *Step) Product(g product.Goal) (any, bool) {
	v, ok := st.inputs[g]
	return v, ok
}

// Run executes the plan. A panic inside the plan is returned as an error.
func (st *Step) Run(ctx context.Context) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, fmt.Errorf("plan panicked: %v", r)
		}
	}()
	if st.execute == nil {
		return nil, errors.New("plan has no execute function")
	}
	return st.execute(ctx, st)
}
