// Package mapper resolves addresses into typed declarations.
//
// A Mapper loads a namespace from its declaration source the first time any
// address in it is requested, coerces every record through the kind's
// schema, and keeps the results for its whole lifetime. Errors are cached
// alongside values, so resolving a malformed address twice fails the same way
// without touching the source again.
package mapper

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/specialistvlad/buildgrid/internal/address"
	"github.com/specialistvlad/buildgrid/internal/ctxlog"
	"github.com/specialistvlad/buildgrid/internal/declsource"
	"github.com/specialistvlad/buildgrid/internal/object"
	"golang.org/x/sync/singleflight"
)

// Mapper is an object.Resolver backed by a declaration source. It is safe
// for concurrent use.
type Mapper struct {
	source  declsource.Source
	schemas *object.Schemas

	mu         sync.RWMutex
	namespaces map[string]*namespace
	group      singleflight.Group
}

// namespace is the cached, coerced content of one namespace.
type namespace struct {
	order   []string
	entries map[string]entry
	err     error
}

type entry struct {
	subject *object.Struct
	err     error
}

var _ object.Resolver = (*Mapper)(nil)

// New creates a Mapper. A nil schemas value selects default schemas for
// every kind.
func New(source declsource.Source, schemas *object.Schemas) *Mapper {
	if schemas == nil {
		schemas = object.NewSchemas()
	}
	return &Mapper{
		source:     source,
		schemas:    schemas,
		namespaces: make(map[string]*namespace),
	}
}

// Resolve returns the declaration at addr.
func (m *Mapper) Resolve(ctx context.Context, addr address.Address) (*object.Struct, error) {
	ns, err := m.namespace(ctx, addr.Namespace)
	if err != nil {
		return nil, err
	}
	e, ok := ns.entries[addr.Name]
	if !ok {
		return nil, &UnresolvedAddressError{Address: addr, Known: ns.names()}
	}
	return e.subject, e.err
}

// Namespace returns every declaration of a namespace in declaration order.
// The first failing declaration aborts the listing.
func (m *Mapper) Namespace(ctx context.Context, name string) ([]*object.Struct, error) {
	ns, err := m.namespace(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]*object.Struct, 0, len(ns.order))
	for _, n := range ns.order {
		e := ns.entries[n]
		if e.err != nil {
			return nil, e.err
		}
		out = append(out, e.subject)
	}
	return out, nil
}

// namespace returns the cached namespace, loading it once.
func (m *Mapper) namespace(ctx context.Context, name string) (*namespace, error) {
	m.mu.RLock()
	ns, ok := m.namespaces[name]
	m.mu.RUnlock()
	if ok {
		return ns, ns.err
	}

	v, err, _ := m.group.Do(name, func() (any, error) {
		m.mu.RLock()
		ns, ok := m.namespaces[name]
		m.mu.RUnlock()
		if ok {
			return ns, ns.err
		}

		ns, err := m.load(ctx, name)
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			// Not a property of the namespace; a later caller may succeed.
			return nil, err
		}

		m.mu.Lock()
		m.namespaces[name] = ns
		m.mu.Unlock()
		return ns, ns.err
	})
	if err != nil {
		return nil, err
	}
	return v.(*namespace), nil
}

func (m *Mapper) load(ctx context.Context, name string) (*namespace, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading namespace.", "namespace", name)

	records, err := m.source.LoadNamespace(ctx, name)
	if err != nil {
		logger.Debug("Namespace failed to load.", "namespace", name, "error", err)
		return &namespace{err: err}, err
	}

	byName := make(map[string][]declsource.Record)
	ns := &namespace{entries: make(map[string]entry)}
	for _, rec := range records {
		if _, seen := byName[rec.Address.Name]; !seen {
			ns.order = append(ns.order, rec.Address.Name)
		}
		byName[rec.Address.Name] = append(byName[rec.Address.Name], rec)
	}

	for _, n := range ns.order {
		recs := byName[n]
		if len(recs) > 1 {
			locations := make([]string, len(recs))
			for i, r := range recs {
				locations[i] = r.Location
			}
			ns.entries[n] = entry{err: &AmbiguousAddressError{Address: recs[0].Address, Locations: locations}}
			continue
		}
		s, err := coerceRecord(recs[0], m.schemas)
		ns.entries[n] = entry{subject: s, err: err}
	}

	logger.Debug("Namespace loaded.", "namespace", name, "declarations", len(ns.order))
	return ns, nil
}

func (ns *namespace) names() []string {
	names := append([]string(nil), ns.order...)
	sort.Strings(names)
	return names
}
