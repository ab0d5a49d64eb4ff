package graph

import (
	"context"
	"fmt"

	"github.com/specialistvlad/buildgrid/internal/address"
	"github.com/specialistvlad/buildgrid/internal/ctxlog"
	"github.com/specialistvlad/buildgrid/internal/object"
)

// Builder constructs graphs from declarations.
type Builder struct {
	resolver object.Resolver
}

// NewBuilder creates a Builder resolving addresses through r.
func NewBuilder(r object.Resolver) *Builder {
	return &Builder{resolver: r}
}

// frame is one entry of the resolving stack.
type frame struct {
	addr address.Address
	deps []address.Address
	next int
}

// Build resolves the transitive closure of roots into a Graph.
func (b *Builder) Build(ctx context.Context, roots ...address.Address) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building dependency graph.", "roots", len(roots))

	g := New()
	g.roots = append(g.roots, roots...)

	var stack []*frame
	onStack := make(map[address.Address]int)

	push := func(addr address.Address) error {
		s, err := b.resolver.Resolve(ctx, addr)
		if err != nil {
			return err
		}
		if err := g.AddSubject(s); err != nil {
			return err
		}
		onStack[addr] = len(stack)
		stack = append(stack, &frame{addr: addr, deps: s.Dependencies()})
		return nil
	}

	for _, root := range roots {
		if _, done := g.Subject(root); done {
			continue
		}
		if err := push(root); err != nil {
			return nil, err
		}

		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			top := stack[len(stack)-1]
			if top.next == len(top.deps) {
				delete(onStack, top.addr)
				stack = stack[:len(stack)-1]
				continue
			}

			dep := top.deps[top.next]
			top.next++

			if idx, resolving := onStack[dep]; resolving {
				path := make([]address.Address, 0, len(stack)-idx+1)
				for _, f := range stack[idx:] {
					path = append(path, f.addr)
				}
				return nil, &CycleError{Path: append(path, dep)}
			}

			if _, done := g.Subject(dep); !done {
				if err := push(dep); err != nil {
					return nil, fmt.Errorf("resolving dependency of %s: %w", top.addr, err)
				}
			}
			if err := g.AddEdge(top.addr, dep); err != nil {
				return nil, err
			}
		}
	}

	logger.Debug("Dependency graph built.", "subjects", g.Len())
	return g, nil
}
