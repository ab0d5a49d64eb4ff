package declsource

import (
	"fmt"

	ctyyaml "github.com/zclconf/go-cty-yaml"
	"github.com/zclconf/go-cty/cty"
)

const (
	yamlTargetsKey = "targets"
	yamlKindKey    = "kind"
	yamlNameKey    = "name"
)

// decodeYAML parses one YAML declaration file of the form:
//
//	targets:
//	  - kind: java_library
//	    name: lib
//	    dependencies: [":util"]
func decodeYAML(namespace, path string, src []byte) ([]Record, error) {
	ty, err := ctyyaml.ImpliedType(src)
	if err != nil {
		return nil, err
	}
	doc, err := ctyyaml.Unmarshal(src, ty)
	if err != nil {
		return nil, err
	}
	if doc.IsNull() {
		return nil, nil
	}
	if !doc.Type().IsObjectType() {
		return nil, fmt.Errorf("top level must be a mapping, got %s", doc.Type().FriendlyName())
	}
	if !doc.Type().HasAttribute(yamlTargetsKey) {
		return nil, nil
	}

	targets := doc.GetAttr(yamlTargetsKey)
	if targets.IsNull() {
		return nil, nil
	}
	if !targets.CanIterateElements() {
		return nil, fmt.Errorf("%q must be a sequence", yamlTargetsKey)
	}

	var records []Record
	for it := targets.ElementIterator(); it.Next(); {
		idx, el := it.Element()
		if el.IsNull() || !el.Type().IsObjectType() {
			return nil, fmt.Errorf("%s[%s] must be a mapping", yamlTargetsKey, idx.AsBigFloat().String())
		}

		attrs := el.AsValueMap()
		kind, err := yamlString(attrs, yamlKindKey)
		if err != nil {
			return nil, err
		}
		name, err := yamlString(attrs, yamlNameKey)
		if err != nil {
			return nil, err
		}
		delete(attrs, yamlKindKey)
		delete(attrs, yamlNameKey)

		rec, err := newRecord(namespace, kind, name, path, attrs)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", name, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func yamlString(attrs map[string]cty.Value, key string) (string, error) {
	v, ok := attrs[key]
	if !ok || v.IsNull() || v.Type() != cty.String {
		return "", fmt.Errorf("target is missing string field %q", key)
	}
	return v.AsString(), nil
}
