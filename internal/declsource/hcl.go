package declsource

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot decodes the top-level blocks of a declaration file. Anything
// other than target blocks is rejected.
type fileRoot struct {
	Targets []*hclTarget `hcl:"target,block"`
}

// hclTarget is `target "<kind>" "<name>" { ... }`.
type hclTarget struct {
	Kind string   `hcl:"kind,label"`
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// decodeHCL parses one HCL declaration file.
func decodeHCL(namespace, path string, src []byte) ([]Record, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, diags
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, evalContext, &root); diags.HasErrors() {
		return nil, diags
	}

	records := make([]Record, 0, len(root.Targets))
	for _, t := range root.Targets {
		attrs, diags := t.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, diags
		}

		values := make(map[string]cty.Value, len(attrs))
		for name, attr := range attrs {
			v, diags := attr.Expr.Value(evalContext)
			if diags.HasErrors() {
				return nil, diags
			}
			values[name] = v
		}

		rec, err := newRecord(namespace, t.Kind, t.Name, path, values)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", t.Name, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
