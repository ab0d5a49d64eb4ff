// Package declsource loads raw build declarations, one namespace at a time.
//
// A Source knows nothing about schemas: it yields Records whose attributes
// are plain cty values. Coercion into typed objects is the mapper's job.
package declsource

import (
	"context"
	"fmt"

	"github.com/specialistvlad/buildgrid/internal/address"
	"github.com/zclconf/go-cty/cty"
)

// Record is one raw declaration.
type Record struct {
	Address    address.Address
	Kind       string
	Attributes map[string]cty.Value
	// Location is a human-readable origin, usually a file path.
	Location string
}

// Source loads every declaration of a namespace, in declaration order. A
// namespace with no declarations yields an empty slice and no error.
type Source interface {
	LoadNamespace(ctx context.Context, namespace string) ([]Record, error)
}

// ParseError reports a namespace whose declarations could not be read.
type ParseError struct {
	Namespace string
	Path      string
	Err       error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to load namespace %q: %v", e.Namespace, e.Err)
	}
	return fmt.Sprintf("failed to parse %s (namespace %q): %v", e.Path, e.Namespace, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// newRecord validates the name against the namespace and builds a Record.
func newRecord(namespace, kind, name, location string, attrs map[string]cty.Value) (Record, error) {
	if kind == "" {
		return Record{}, fmt.Errorf("declaration %q has no kind", name)
	}
	addr, err := address.ParseRelative(":"+name, namespace)
	if err != nil {
		return Record{}, err
	}
	return Record{Address: addr, Kind: kind, Attributes: attrs, Location: location}, nil
}
