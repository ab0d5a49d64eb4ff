package object

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/buildgrid/internal/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type mapResolver map[address.Address]*Struct

func (m mapResolver) Resolve(_ context.Context, a address.Address) (*Struct, error) {
	if s, ok := m[a]; ok {
		return s, nil
	}
	return nil, errors.New("not found")
}

func TestStruct_IsImmutable(t *testing.T) {
	attrs := map[string]cty.Value{"name": cty.StringVal("x")}
	refs := map[string][]Ref{DependenciesField: {AddressRef(address.New("a", "b"))}}
	s := New("java_library", address.New("ns", "x"), attrs, refs)

	attrs["name"] = cty.StringVal("changed")
	refs[DependenciesField][0] = AddressRef(address.New("z", "z"))

	v, ok := s.Attr("name")
	require.True(t, ok)
	assert.Equal(t, "x", v.AsString())
	assert.Equal(t, []address.Address{address.New("a", "b")}, s.Dependencies())

	got := s.Refs(DependenciesField)
	got[0] = AddressRef(address.New("q", "q"))
	assert.Equal(t, []address.Address{address.New("a", "b")}, s.Dependencies())
}

func TestStruct_Dependencies(t *testing.T) {
	inline := New("jar", address.Address{}, nil, map[string][]Ref{
		DependenciesField: {AddressRef(address.New("c", "c")), AddressRef(address.New("a", "a"))},
	})
	s := New("java_library", address.New("ns", "x"), nil, map[string][]Ref{
		DependenciesField: {AddressRef(address.New("a", "a")), InlineRef(inline)},
		"resources":       {AddressRef(address.New("r", "r"))},
	})

	// Field order is by name, refs keep declaration order, duplicates drop.
	expected := []address.Address{
		address.New("a", "a"),
		address.New("c", "c"),
		address.New("r", "r"),
	}
	assert.Equal(t, expected, s.Dependencies())
}

func TestStruct_Equal(t *testing.T) {
	mk := func(name string) *Struct {
		return New("k", address.New("ns", "a"),
			map[string]cty.Value{"v": cty.StringVal(name)},
			map[string][]Ref{DependenciesField: {AddressRef(address.New("ns", "b"))}})
	}
	assert.True(t, mk("x").Equal(mk("x")))
	assert.False(t, mk("x").Equal(mk("y")))
	assert.False(t, mk("x").Equal(nil))
	assert.True(t, (*Struct)(nil).Equal(nil))
}

func TestStruct_NativeProduct(t *testing.T) {
	s := New("k", address.New("ns", "a"), map[string]cty.Value{
		ProductsField: cty.ObjectVal(map[string]cty.Value{"identity": cty.StringVal("native")}),
	}, nil)

	v, ok := s.NativeProduct("identity")
	require.True(t, ok)
	assert.Equal(t, "native", v.AsString())

	_, ok = s.NativeProduct("classpath")
	assert.False(t, ok)

	_, ok = New("k", address.New("ns", "b"), nil, nil).NativeProduct("identity")
	assert.False(t, ok)
}

func TestStruct_StringListAttr(t *testing.T) {
	s := New("k", address.New("ns", "a"), map[string]cty.Value{
		"sources": cty.TupleVal([]cty.Value{cty.StringVal("a.java"), cty.NumberIntVal(1), cty.StringVal("b.java")}),
		"null":    cty.NullVal(cty.List(cty.String)),
	}, nil)
	assert.Equal(t, []string{"a.java", "b.java"}, s.StringListAttr("sources"))
	assert.Nil(t, s.StringListAttr("null"))
	assert.Nil(t, s.StringListAttr("missing"))
}

func TestRef_Resolve(t *testing.T) {
	target := New("k", address.New("ns", "t"), nil, nil)
	res := mapResolver{target.Address(): target}

	got, err := AddressRef(target.Address()).Resolve(context.Background(), res)
	require.NoError(t, err)
	assert.Same(t, target, got)

	inline := New("k", address.Address{}, nil, nil)
	got, err = InlineRef(inline).Resolve(context.Background(), res)
	require.NoError(t, err)
	assert.Same(t, inline, got)

	_, err = AddressRef(address.New("missing", "x")).Resolve(context.Background(), res)
	assert.Error(t, err)
}

func TestSchemas(t *testing.T) {
	schemas := NewSchemas()
	schemas.Register(&Schema{Kind: "jar", Fields: []*Field{{Name: "org", Type: cty.String}}})

	assert.Equal(t, []string{"jar"}, schemas.Kinds())
	_, ok := schemas.For("jar").Field("org")
	assert.True(t, ok)

	fallback := schemas.For("unknown")
	assert.True(t, fallback.Open)
	f, ok := fallback.Field(DependenciesField)
	require.True(t, ok)
	assert.True(t, f.Ref)

	assert.Panics(t, func() { schemas.Register(&Schema{Kind: "jar"}) })
}
