// Package identity provides the "identity" product: the names of a subject
// and all of its transitive dependencies, dependencies first.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/buildgrid/internal/planner"
	"github.com/specialistvlad/buildgrid/internal/product"
)

// Kind is the product kind this module makes.
const Kind product.Kind = "identity"

// Identity is the ordered, duplicate-free list of names making up an
// identity product. It prints as the names joined with ",".
type Identity []string

func (id Identity) String() string { return strings.Join(id, ",") }

// Module implements the planner.Module interface for this package.
type Module struct{}

// OnRunIdentity concatenates the identities of the requirements, in
// requirement order and without repeats, followed by the subject's own name.
func OnRunIdentity(_ context.Context, in planner.Inputs) (any, error) {
	var out Identity
	seen := make(map[string]struct{})
	add := func(name string) {
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}

	for _, req := range in.Requirements() {
		v, _ := in.Product(req)
		id, ok := v.(Identity)
		if !ok {
			return nil, fmt.Errorf("requirement %s produced %T, not an identity", req, v)
		}
		for _, name := range id {
			add(name)
		}
	}
	add(in.Subject().Name())
	return out, nil
}

// Register registers the planner with the registry.
func (m *Module) Register(r *planner.Registry) {
	r.Register(&planner.Func{
		PlannerName: "identity",
		Products:    []product.Kind{Kind},
		GoalNames:   map[string][]product.Kind{"identity": {Kind}},
		Requires:    planner.DependenciesOf,
		Run:         OnRunIdentity,
	})
}
