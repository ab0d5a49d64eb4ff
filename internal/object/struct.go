package object

import (
	"sort"

	"github.com/specialistvlad/buildgrid/internal/address"
	"github.com/zclconf/go-cty/cty"
)

// DependenciesField is the conventional reference field listing the
// declarations a subject depends on.
const DependenciesField = "dependencies"

// ProductsField holds products a subject carries natively, keyed by product
// kind.
const ProductsField = "products"

// Struct is an immutable typed record decoded from a declaration. Inline
// structs carry a zero address.
type Struct struct {
	kind  string
	addr  address.Address
	attrs map[string]cty.Value
	refs  map[string][]Ref
}

// New creates a Struct. The maps are copied; later changes by the caller are
// not observed.
func New(kind string, addr address.Address, attrs map[string]cty.Value, refs map[string][]Ref) *Struct {
	s := &Struct{
		kind:  kind,
		addr:  addr,
		attrs: make(map[string]cty.Value, len(attrs)),
		refs:  make(map[string][]Ref, len(refs)),
	}
	for k, v := range attrs {
		s.attrs[k] = v
	}
	for k, v := range refs {
		s.refs[k] = append([]Ref(nil), v...)
	}
	return s
}

// Kind returns the declaration kind, e.g. "java_library".
func (s *Struct) Kind() string { return s.kind }

// Address returns the declaration address. It is zero for inline structs.
func (s *Struct) Address() address.Address { return s.addr }

// Name is the declaration name, or the "name" attribute of an inline struct.
func (s *Struct) Name() string {
	if !s.addr.IsZero() {
		return s.addr.Name
	}
	name, _ := s.StringAttr("name")
	return name
}

// Attr returns a plain attribute.
func (s *Struct) Attr(name string) (cty.Value, bool) {
	v, ok := s.attrs[name]
	return v, ok
}

// AttrNames returns the names of all plain attributes, sorted.
func (s *Struct) AttrNames() []string {
	return sortedKeys(s.attrs)
}

// StringAttr returns a known, non-null string attribute.
func (s *Struct) StringAttr(name string) (string, bool) {
	v, ok := s.attrs[name]
	if !ok || v.IsNull() || !v.IsKnown() || v.Type() != cty.String {
		return "", false
	}
	return v.AsString(), true
}

// StringListAttr returns the string elements of a list, set or tuple
// attribute. Non-string elements are skipped.
func (s *Struct) StringListAttr(name string) []string {
	v, ok := s.attrs[name]
	if !ok || v.IsNull() || !v.IsKnown() || !v.CanIterateElements() {
		return nil
	}
	var out []string
	for it := v.ElementIterator(); it.Next(); {
		_, el := it.Element()
		if el.IsKnown() && !el.IsNull() && el.Type() == cty.String {
			out = append(out, el.AsString())
		}
	}
	return out
}

// Refs returns a copy of the references held by a reference field.
func (s *Struct) Refs(field string) []Ref {
	return append([]Ref(nil), s.refs[field]...)
}

// RefFields returns the names of all reference fields, sorted.
func (s *Struct) RefFields() []string {
	return sortedKeys(s.refs)
}

// Dependencies lists every address referenced by the struct's reference
// fields, including those inside inline structs. Fields are visited in name
// order and references in declaration order; duplicates are dropped.
func (s *Struct) Dependencies() []address.Address {
	seen := make(map[address.Address]struct{})
	var out []address.Address
	s.collectDependencies(seen, &out)
	return out
}

func (s *Struct) collectDependencies(seen map[address.Address]struct{}, out *[]address.Address) {
	for _, field := range s.RefFields() {
		for _, r := range s.refs[field] {
			if inline, ok := r.Inline(); ok {
				inline.collectDependencies(seen, out)
				continue
			}
			a, _ := r.Address()
			if _, dup := seen[a]; dup {
				continue
			}
			seen[a] = struct{}{}
			*out = append(*out, a)
		}
	}
}

// NativeProduct returns a product the subject carries directly in its
// products attribute.
func (s *Struct) NativeProduct(kind string) (cty.Value, bool) {
	v, ok := s.attrs[ProductsField]
	if !ok || v.IsNull() || !v.IsKnown() {
		return cty.NilVal, false
	}
	ty := v.Type()
	switch {
	case ty.IsObjectType():
		if !ty.HasAttribute(kind) {
			return cty.NilVal, false
		}
		return v.GetAttr(kind), true
	case ty.IsMapType():
		key := cty.StringVal(kind)
		if !v.HasIndex(key).True() {
			return cty.NilVal, false
		}
		return v.Index(key), true
	}
	return cty.NilVal, false
}

// Equal reports structural equality.
func (s *Struct) Equal(other *Struct) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s == other {
		return true
	}
	if s.kind != other.kind || s.addr != other.addr || len(s.attrs) != len(other.attrs) || len(s.refs) != len(other.refs) {
		return false
	}
	for k, v := range s.attrs {
		ov, ok := other.attrs[k]
		if !ok || !v.RawEquals(ov) {
			return false
		}
	}
	for k, rs := range s.refs {
		ors, ok := other.refs[k]
		if !ok || len(rs) != len(ors) {
			return false
		}
		for i := range rs {
			if !rs[i].Equal(ors[i]) {
				return false
			}
		}
	}
	return true
}

// String returns the address for addressable structs and the kind for inline
// ones.
func (s *Struct) String() string {
	if s.addr.IsZero() {
		return "<inline " + s.kind + ">"
	}
	return s.addr.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
