package declsource

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// evalContext is shared by every HCL declaration file. The glob helpers only
// normalize patterns; expansion happens when sources are planned.
var evalContext = &hcl.EvalContext{
	Functions: map[string]function.Function{
		"globs":  globFunction(""),
		"rglobs": globFunction("**/"),
		"zglobs": globFunction(""),

		"concat":   stdlib.ConcatFunc,
		"distinct": stdlib.DistinctFunc,
		"flatten":  stdlib.FlattenFunc,
		"format":   stdlib.FormatFunc,
		"join":     stdlib.JoinFunc,
		"lower":    stdlib.LowerFunc,
		"merge":    stdlib.MergeFunc,
		"split":    stdlib.SplitFunc,
		"upper":    stdlib.UpperFunc,
	},
}

// globFunction returns a variadic function turning its string arguments into
// a list of patterns, each prefixed with prefix.
func globFunction(prefix string) function.Function {
	return function.New(&function.Spec{
		VarParam: &function.Parameter{Name: "patterns", Type: cty.String},
		Type:     function.StaticReturnType(cty.List(cty.String)),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			if len(args) == 0 {
				return cty.ListValEmpty(cty.String), nil
			}
			out := make([]cty.Value, len(args))
			for i, a := range args {
				out[i] = cty.StringVal(prefix + a.AsString())
			}
			return cty.ListVal(out), nil
		},
	})
}
