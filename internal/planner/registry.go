package planner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/specialistvlad/buildgrid/internal/address"
	"github.com/specialistvlad/buildgrid/internal/object"
	"github.com/specialistvlad/buildgrid/internal/product"
)

// Module is a bundle of planners and schemas registered together.
type Module interface {
	Register(r *Registry)
}

// Registry holds planners in registration order. The first applicable
// planner returning a plan wins, so registration order is part of its
// behavior.
type Registry struct {
	mu       sync.RWMutex
	planners []Planner
	byName   map[string]Planner
	goals    map[string][]product.Kind
	goalList []string
	schemas  *object.Schemas
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byName:  make(map[string]Planner),
		goals:   make(map[string][]product.Kind),
		schemas: object.NewSchemas(),
	}
}

// Register appends a planner. Registering a name twice is a programming
// error and panics.
func (r *Registry) Register(p Planner) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.byName[name]; exists {
		panic(fmt.Sprintf("planner: planner '%s' is already registered", name))
	}
	r.byName[name] = p
	r.planners = append(r.planners, p)

	gp, ok := p.(GoalProvider)
	if !ok {
		return
	}
	goals := gp.Goals()
	names := make([]string, 0, len(goals))
	for goal := range goals {
		names = append(names, goal)
	}
	sort.Strings(names)
	for _, goal := range names {
		kinds := goals[goal]
		if _, known := r.goals[goal]; !known {
			r.goalList = append(r.goalList, goal)
		}
		for _, k := range kinds {
			if !containsKind(r.goals[goal], k) {
				r.goals[goal] = append(r.goals[goal], k)
			}
		}
	}
}

// RegisterSchema adds the schema of a declaration kind.
func (r *Registry) RegisterSchema(s *object.Schema) {
	r.schemas.Register(s)
}

// Use registers every module in order.
func (r *Registry) Use(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}

// Schemas returns the declaration schemas registered so far.
func (r *Registry) Schemas() *object.Schemas {
	return r.schemas
}

// Planners returns the planners in registration order.
func (r *Registry) Planners() []Planner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Planner(nil), r.planners...)
}

// Planner returns a planner by name.
func (r *Registry) Planner(name string) (Planner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

// PlanFor asks each applicable planner in registration order for a plan and
// returns the first one. Planners whose input products the subject cannot
// supply are skipped. A nil plan and empty name mean no planner applies; when
// that happens because some inputs were only partly available, and the subject
// does not carry kind natively, a PartiallyConsumedInputsError is returned.
func (r *Registry) PlanFor(ctx context.Context, subject *object.Struct, kind product.Kind) (string, *Plan, error) {
	m := r.newInputMatch(subject)
	m.visiting[kind] = true
	for _, p := range m.planners {
		if !p.Applicable(subject, kind) {
			continue
		}
		inputs, ok := m.inputsMet(p)
		if !ok {
			continue
		}
		plan, err := p.Plan(ctx, subject, kind)
		if err != nil {
			return p.Name(), nil, err
		}
		if plan != nil {
			return p.Name(), withInputs(plan, subject, inputs), nil
		}
	}
	if _, native := subject.NativeProduct(string(kind)); !native {
		if err := m.partiallyConsumed(subject, kind); err != nil {
			return "", nil, err
		}
	}
	return "", nil, nil
}

// CanProduce reports whether the subject carries the product natively, or
// some applicable planner has its input products available.
func (r *Registry) CanProduce(subject *object.Struct, kind product.Kind) bool {
	return r.newInputMatch(subject).available(kind)
}

func withInputs(plan *Plan, subject *object.Struct, inputs []product.Kind) *Plan {
	if len(inputs) == 0 {
		return plan
	}
	requires := append([]product.Goal(nil), plan.Requires...)
	for _, k := range inputs {
		requires = append(requires, product.NewGoal(subject.Address(), k))
	}
	return &Plan{Requires: requires, Execute: plan.Execute}
}

// inputMatch resolves input products for one subject.
type inputMatch struct {
	subject  *object.Struct
	planners []Planner
	visiting map[product.Kind]bool
	consumed map[product.Kind]bool
	// partial maps an available input to the planners that wanted it and
	// the inputs they were missing alongside it.
	partial map[product.Kind]map[string][]product.Kind
}

func (r *Registry) newInputMatch(subject *object.Struct) *inputMatch {
	return &inputMatch{
		subject:  subject,
		planners: r.Planners(),
		visiting: make(map[product.Kind]bool),
		consumed: make(map[product.Kind]bool),
		partial:  make(map[product.Kind]map[string][]product.Kind),
	}
}

func (m *inputMatch) available(kind product.Kind) bool {
	if _, ok := m.subject.NativeProduct(string(kind)); ok {
		return true
	}
	if m.visiting[kind] {
		return false
	}
	m.visiting[kind] = true
	defer delete(m.visiting, kind)

	found := false
	for _, p := range m.planners {
		if !p.Applicable(m.subject, kind) {
			continue
		}
		if _, ok := m.inputsMet(p); ok {
			found = true
		}
	}
	return found
}

// inputsMet returns the first alternative of p's inputs that is fully
// available. Planners without inputs always match.
func (m *inputMatch) inputsMet(p Planner) ([]product.Kind, bool) {
	ic, ok := p.(InputConsumer)
	if !ok || len(ic.InputProducts()) == 0 {
		return nil, true
	}
	for _, clause := range ic.InputProducts() {
		var have, lack []product.Kind
		for _, k := range clause {
			if m.available(k) {
				have = append(have, k)
			} else {
				lack = append(lack, k)
			}
		}
		if len(lack) == 0 {
			for _, k := range clause {
				m.consumed[k] = true
			}
			return clause, true
		}
		for _, k := range have {
			if m.partial[k] == nil {
				m.partial[k] = make(map[string][]product.Kind)
			}
			for _, missing := range lack {
				if !containsKind(m.partial[k][p.Name()], missing) {
					m.partial[k][p.Name()] = append(m.partial[k][p.Name()], missing)
				}
			}
		}
	}
	return nil, false
}

func (m *inputMatch) partiallyConsumed(subject *object.Struct, kind product.Kind) error {
	var err *PartiallyConsumedInputsError
	for input, planners := range m.partial {
		if m.consumed[input] {
			continue
		}
		if err == nil {
			err = &PartiallyConsumedInputsError{
				Product: kind,
				Subject: subject.Address(),
				Inputs:  make(map[product.Kind]map[string][]product.Kind),
			}
		}
		err.Inputs[input] = planners
	}
	if err == nil {
		return nil
	}
	return err
}

// PartiallyConsumedInputsError reports input products the subject can supply
// that no planner consumed, although some planner would have given other
// inputs the subject lacks.
type PartiallyConsumedInputsError struct {
	Product product.Kind
	Subject address.Address
	// Inputs maps each unconsumed input to the planners that wanted it and
	// the inputs they were missing.
	Inputs map[product.Kind]map[string][]product.Kind
}

func (e *PartiallyConsumedInputsError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "while producing %s for %s, some products could not be consumed:", e.Product, e.Subject)
	inputs := make([]string, 0, len(e.Inputs))
	for k := range e.Inputs {
		inputs = append(inputs, string(k))
	}
	sort.Strings(inputs)
	for _, input := range inputs {
		fmt.Fprintf(&b, "\n  to consume %s:", input)
		byPlanner := e.Inputs[product.Kind(input)]
		names := make([]string, 0, len(byPlanner))
		for name := range byPlanner {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			missing := make([]string, len(byPlanner[name]))
			for i, k := range byPlanner[name] {
				missing[i] = string(k)
			}
			fmt.Fprintf(&b, "\n    %s needed (%s)", name, strings.Join(missing, " AND "))
		}
	}
	return b.String()
}

// Goals returns the known goal names in the order they were first
// registered.
func (r *Registry) Goals() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.goalList...)
}

// ProductsForGoal returns the product kinds a goal name expands to.
func (r *Registry) ProductsForGoal(goal string) []product.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]product.Kind(nil), r.goals[goal]...)
}

func containsKind(kinds []product.Kind, k product.Kind) bool {
	for _, existing := range kinds {
		if existing == k {
			return true
		}
	}
	return false
}
