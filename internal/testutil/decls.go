package testutil

import (
	"github.com/specialistvlad/buildgrid/internal/address"
	"github.com/specialistvlad/buildgrid/internal/declsource"
	"github.com/specialistvlad/buildgrid/internal/object"
	"github.com/zclconf/go-cty/cty"
)

// DefaultKind is the declaration kind used by Record and Declarations.
const DefaultKind = "target"

// Record builds a declaration of DefaultKind with the given dependencies.
func Record(addr string, deps ...string) declsource.Record {
	return KindRecord(DefaultKind, addr, deps...)
}

// KindRecord builds a declaration of an explicit kind.
func KindRecord(kind, addr string, deps ...string) declsource.Record {
	attrs := map[string]cty.Value{}
	if len(deps) > 0 {
		attrs[object.DependenciesField] = Strings(deps...)
	}
	return declsource.Record{
		Address:    address.MustParse(addr),
		Kind:       kind,
		Attributes: attrs,
		Location:   "memory:" + addr,
	}
}

// Declarations builds an in-memory source from address -> dependencies.
func Declarations(tree map[string][]string) *declsource.MemorySource {
	src := declsource.NewMemorySource()
	for addr, deps := range tree {
		src.Add(Record(addr, deps...))
	}
	return src
}

// Strings returns a cty tuple of strings.
func Strings(vals ...string) cty.Value {
	if len(vals) == 0 {
		return cty.EmptyTupleVal
	}
	out := make([]cty.Value, len(vals))
	for i, v := range vals {
		out[i] = cty.StringVal(v)
	}
	return cty.TupleVal(out)
}

// Addresses parses address strings, panicking on bad input.
func Addresses(raw ...string) []address.Address {
	out := make([]address.Address, len(raw))
	for i, r := range raw {
		out[i] = address.MustParse(r)
	}
	return out
}
