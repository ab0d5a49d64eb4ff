package mapper

import (
	"errors"
	"fmt"
	"sort"

	"github.com/specialistvlad/buildgrid/internal/address"
	"github.com/specialistvlad/buildgrid/internal/declsource"
	"github.com/specialistvlad/buildgrid/internal/object"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// inlineKindAttr names the attribute selecting the kind of an inline struct.
const inlineKindAttr = "kind"

// fieldError is a coercion failure on a named field.
type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string { return fmt.Sprintf("field %q: %v", e.field, e.err) }
func (e *fieldError) Unwrap() error { return e.err }

// coerceRecord applies the kind's schema to a raw record.
func coerceRecord(rec declsource.Record, schemas *object.Schemas) (*object.Struct, error) {
	s, err := coerceStruct(rec.Kind, rec.Address, rec.Address.Namespace, rec.Attributes, schemas)
	if err != nil {
		merr := &MalformedDeclarationError{Address: rec.Address, Kind: rec.Kind, Err: err}
		var ferr *fieldError
		if errors.As(err, &ferr) {
			merr.Field, merr.Err = ferr.field, ferr.err
		}
		return nil, merr
	}
	return s, nil
}

// coerceStruct converts raw attributes into a Struct. Relative reference
// strings are resolved against namespace.
func coerceStruct(kind string, addr address.Address, namespace string, raw map[string]cty.Value, schemas *object.Schemas) (*object.Struct, error) {
	schema := schemas.For(kind)
	attrs := make(map[string]cty.Value, len(raw))
	refs := make(map[string][]object.Ref)

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := raw[name]
		field, declared := schema.Field(name)
		switch {
		case !declared && schema.Open:
			attrs[name] = v
		case !declared:
			return nil, &fieldError{field: name, err: fmt.Errorf("not supported by kind %q", kind)}
		case field.Ref:
			rs, err := coerceRefs(v, namespace, schemas)
			if err != nil {
				return nil, &fieldError{field: name, err: err}
			}
			refs[name] = rs
		default:
			converted, err := convert.Convert(v, field.Type)
			if err != nil {
				return nil, &fieldError{field: name, err: fmt.Errorf("expected %s: %w", field.Type.FriendlyName(), err)}
			}
			attrs[name] = converted
		}
	}

	for _, field := range schema.Fields {
		if _, provided := raw[field.Name]; provided {
			continue
		}
		switch {
		case field.Default != nil && !field.Ref:
			attrs[field.Name] = *field.Default
		case !field.Optional && field.Default == nil:
			return nil, &fieldError{field: field.Name, err: errors.New("required field is missing")}
		}
	}

	return object.New(kind, addr, attrs, refs), nil
}

// coerceRefs turns a raw reference value into refs. Accepted shapes are an
// address string, an inline object with a kind attribute, or a sequence of
// either.
func coerceRefs(v cty.Value, namespace string, schemas *object.Schemas) ([]object.Ref, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, errors.New("value is not known")
	}

	ty := v.Type()
	if ty == cty.String || ty.IsObjectType() || ty.IsMapType() {
		r, err := coerceRef(v, namespace, schemas)
		if err != nil {
			return nil, err
		}
		return []object.Ref{r}, nil
	}
	if !ty.IsListType() && !ty.IsTupleType() && !ty.IsSetType() {
		return nil, fmt.Errorf("expected an address, an inline declaration or a list of them, got %s", ty.FriendlyName())
	}

	var out []object.Ref
	for it := v.ElementIterator(); it.Next(); {
		_, el := it.Element()
		r, err := coerceRef(el, namespace, schemas)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func coerceRef(v cty.Value, namespace string, schemas *object.Schemas) (object.Ref, error) {
	if v.IsNull() || !v.IsKnown() {
		return object.Ref{}, errors.New("reference must not be null")
	}
	ty := v.Type()
	if ty == cty.String {
		a, err := address.ParseRelative(v.AsString(), namespace)
		if err != nil {
			return object.Ref{}, err
		}
		return object.AddressRef(a), nil
	}
	if !ty.IsObjectType() && !ty.IsMapType() {
		return object.Ref{}, fmt.Errorf("expected an address or inline declaration, got %s", ty.FriendlyName())
	}

	attrs := v.AsValueMap()
	kindVal, ok := attrs[inlineKindAttr]
	if !ok || kindVal.IsNull() || kindVal.Type() != cty.String {
		return object.Ref{}, fmt.Errorf("inline declaration needs a string %q attribute", inlineKindAttr)
	}
	delete(attrs, inlineKindAttr)

	inline, err := coerceStruct(kindVal.AsString(), address.Address{}, namespace, attrs, schemas)
	if err != nil {
		return object.Ref{}, fmt.Errorf("inline %s: %w", kindVal.AsString(), err)
	}
	return object.InlineRef(inline), nil
}
