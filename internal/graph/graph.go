package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"

	dgraph "github.com/dominikbraun/graph"
	"github.com/specialistvlad/buildgrid/internal/address"
	"github.com/specialistvlad/buildgrid/internal/mapper"
	"github.com/specialistvlad/buildgrid/internal/object"
)

// Edge is a directed dependency edge.
type Edge struct {
	From address.Address
	To   address.Address
}

// Graph maps addresses to resolved subjects and their dependency edges.
type Graph struct {
	g     dgraph.Graph[address.Address, *object.Struct]
	roots []address.Address
}

var _ object.Resolver = (*Graph)(nil)

func subjectHash(s *object.Struct) address.Address { return s.Address() }

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		g: dgraph.New(subjectHash, dgraph.Directed(), dgraph.PreventCycles()),
	}
}

// AddSubject inserts a subject. Adding an address twice is a no-op.
func (g *Graph) AddSubject(s *object.Struct) error {
	err := g.g.AddVertex(s)
	if err != nil && !errors.Is(err, dgraph.ErrVertexAlreadyExists) {
		return fmt.Errorf("failed to add %s: %w", s.Address(), err)
	}
	return nil
}

// AddEdge records that from depends on to. Both subjects must exist. An
// edge that would close a cycle fails with a CycleError.
func (g *Graph) AddEdge(from, to address.Address) error {
	if from == to {
		return &CycleError{Path: []address.Address{from, from}}
	}
	err := g.g.AddEdge(from, to)
	switch {
	case err == nil, errors.Is(err, dgraph.ErrEdgeAlreadyExists):
		return nil
	case errors.Is(err, dgraph.ErrEdgeCreatesCycle):
		back, pathErr := dgraph.ShortestPath(g.g, to, from)
		if pathErr != nil {
			return fmt.Errorf("edge %s -> %s creates a cycle: %w", from, to, err)
		}
		return &CycleError{Path: append([]address.Address{from}, back...)}
	default:
		return fmt.Errorf("failed to add edge %s -> %s: %w", from, to, err)
	}
}

// Subject returns the subject at addr.
func (g *Graph) Subject(addr address.Address) (*object.Struct, bool) {
	s, err := g.g.Vertex(addr)
	if err != nil {
		return nil, false
	}
	return s, true
}

// Resolve implements object.Resolver over the subjects in the graph.
func (g *Graph) Resolve(_ context.Context, addr address.Address) (*object.Struct, error) {
	if s, ok := g.Subject(addr); ok {
		return s, nil
	}
	return nil, &mapper.UnresolvedAddressError{Address: addr}
}

// Dependencies returns the direct dependencies of addr in declaration order.
func (g *Graph) Dependencies(addr address.Address) ([]address.Address, error) {
	s, ok := g.Subject(addr)
	if !ok {
		return nil, fmt.Errorf("address not in graph: %s", addr)
	}
	return s.Dependencies(), nil
}

// Dependents returns the subjects that directly depend on addr, sorted.
func (g *Graph) Dependents(addr address.Address) ([]address.Address, error) {
	preds, err := g.g.PredecessorMap()
	if err != nil {
		return nil, err
	}
	in, ok := preds[addr]
	if !ok {
		return nil, fmt.Errorf("address not in graph: %s", addr)
	}
	out := make([]address.Address, 0, len(in))
	for a := range in {
		out = append(out, a)
	}
	sortAddresses(out)
	return out, nil
}

// Len returns the number of subjects.
func (g *Graph) Len() int {
	n, _ := g.g.Order()
	return n
}

// Roots returns the addresses the graph was built from.
func (g *Graph) Roots() []address.Address {
	return append([]address.Address(nil), g.roots...)
}

// Addresses returns every address in the graph, sorted.
func (g *Graph) Addresses() []address.Address {
	adj, _ := g.g.AdjacencyMap()
	out := make([]address.Address, 0, len(adj))
	for a := range adj {
		out = append(out, a)
	}
	sortAddresses(out)
	return out
}

// Edges returns every edge, sorted by source then target.
func (g *Graph) Edges() []Edge {
	adj, _ := g.g.AdjacencyMap()
	var out []Edge
	for from, targets := range adj {
		for to := range targets {
			out = append(out, Edge{From: from, To: to})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From.Less(out[j].From)
		}
		return out[i].To.Less(out[j].To)
	})
	return out
}

// TopologicalOrder returns all addresses with every dependency ahead of its
// dependents. Among addresses whose dependencies are all placed, the lowest
// address goes first.
func (g *Graph) TopologicalOrder() ([]address.Address, error) {
	adj, err := g.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	preds, err := g.g.PredecessorMap()
	if err != nil {
		return nil, err
	}

	pending := make(map[address.Address]int, len(adj))
	var ready []address.Address
	for a, deps := range adj {
		pending[a] = len(deps)
		if len(deps) == 0 {
			ready = append(ready, a)
		}
	}

	order := make([]address.Address, 0, len(adj))
	for len(ready) > 0 {
		sortAddresses(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for dependent := range preds[next] {
			if pending[dependent]--; pending[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}
	if len(order) != len(adj) {
		return nil, fmt.Errorf("graph has a cycle: ordered %d of %d subjects", len(order), len(adj))
	}
	return order, nil
}

func sortAddresses(as []address.Address) {
	sort.Slice(as, func(i, j int) bool { return as[i].Less(as[j]) })
}
