package object

import (
	"context"

	"github.com/specialistvlad/buildgrid/internal/address"
)

// Resolver turns addresses into Structs. The mapper and a built graph both
// implement it.
type Resolver interface {
	Resolve(ctx context.Context, addr address.Address) (*Struct, error)
}

// Ref is a field value that is either an unresolved Address or an inline
// Struct that needs no lookup.
type Ref struct {
	addr   address.Address
	inline *Struct
}

// AddressRef creates a reference to be resolved later.
func AddressRef(a address.Address) Ref {
	return Ref{addr: a}
}

// InlineRef wraps an already-constructed Struct.
func InlineRef(s *Struct) Ref {
	return Ref{inline: s}
}

// Address returns the referenced address, if the ref is unresolved.
func (r Ref) Address() (address.Address, bool) {
	return r.addr, r.inline == nil
}

// Inline returns the inline struct, if there is one.
func (r Ref) Inline() (*Struct, bool) {
	return r.inline, r.inline != nil
}

// Resolve returns the inline struct or looks the address up.
func (r Ref) Resolve(ctx context.Context, resolver Resolver) (*Struct, error) {
	if r.inline != nil {
		return r.inline, nil
	}
	return resolver.Resolve(ctx, r.addr)
}

// Equal reports whether two refs denote the same thing.
func (r Ref) Equal(other Ref) bool {
	if r.inline != nil || other.inline != nil {
		return r.inline.Equal(other.inline)
	}
	return r.addr == other.addr
}

func (r Ref) String() string {
	if r.inline != nil {
		return r.inline.String()
	}
	return r.addr.String()
}
