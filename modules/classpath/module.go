// Package classpath provides the "classpath" product for JVM style targets.
//
// A java_library contributes the jar its sources compile into, a
// jar_library contributes its third party coordinates. Either way the
// classpath of a subject is its own entries followed by the classpaths of
// its dependencies in declaration order, with later duplicates dropped.
package classpath

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/specialistvlad/buildgrid/internal/object"
	"github.com/specialistvlad/buildgrid/internal/planner"
	"github.com/specialistvlad/buildgrid/internal/product"
	"github.com/specialistvlad/buildgrid/modules/sources"
	"github.com/zclconf/go-cty/cty"
)

// Kind is the product kind this module makes.
const Kind product.Kind = "classpath"

const (
	JavaLibrary = "java_library"
	JarLibrary  = "jar_library"
)

// OutputDir is where java_library jars are placed, relative to the root.
const OutputDir = "out"

// Module implements the planner.Module interface for this package.
type Module struct{}

var emptyStrings = cty.ListValEmpty(cty.String)

// Schemas returns the declaration kinds this module understands.
func Schemas() []*object.Schema {
	return []*object.Schema{
		{
			Kind: JavaLibrary,
			Fields: []*object.Field{
				{Name: object.DependenciesField, Type: cty.DynamicPseudoType, Optional: true, Ref: true},
				{Name: "sources", Type: cty.List(cty.String), Optional: true, Default: &emptyStrings},
				{Name: "exclude", Type: cty.List(cty.String), Optional: true, Default: &emptyStrings},
				{Name: object.ProductsField, Type: cty.DynamicPseudoType, Optional: true},
			},
		},
		{
			Kind: JarLibrary,
			Fields: []*object.Field{
				{Name: object.DependenciesField, Type: cty.DynamicPseudoType, Optional: true, Ref: true},
				{Name: "jars", Type: cty.List(cty.Map(cty.String))},
			},
		},
	}
}

func requires(subject *object.Struct, kind product.Kind) ([]product.Goal, error) {
	goals, _ := planner.DependenciesOf(subject, kind)
	if subject.Kind() == JavaLibrary {
		goals = append([]product.Goal{product.NewGoal(subject.Address(), sources.Kind)}, goals...)
	}
	return goals, nil
}

// OnRunClasspath assembles the classpath of a java_library or jar_library.
func OnRunClasspath(_ context.Context, in planner.Inputs) (any, error) {
	subject := in.Subject()
	var own []string
	switch subject.Kind() {
	case JavaLibrary:
		entry, err := javaEntry(in)
		if err != nil {
			return nil, err
		}
		own = append(own, entry)
	case JarLibrary:
		jars, err := jarEntries(subject)
		if err != nil {
			return nil, err
		}
		own = jars
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(entries []string) {
		for _, e := range entries {
			if _, dup := seen[e]; !dup {
				seen[e] = struct{}{}
				out = append(out, e)
			}
		}
	}
	add(own)
	for _, req := range in.Requirements() {
		if req.Product != Kind {
			continue
		}
		v, _ := in.Product(req)
		entries, _ := v.([]string)
		add(entries)
	}
	return out, nil
}

func javaEntry(in planner.Inputs) (string, error) {
	subject := in.Subject()
	if patterns := subject.StringListAttr("sources"); len(patterns) > 0 {
		v, _ := in.Product(product.NewGoal(subject.Address(), sources.Kind))
		if files, _ := v.([]string); len(files) == 0 {
			return "", fmt.Errorf("%s: no files matched sources %v", subject.Address(), patterns)
		}
	}
	return path.Join(OutputDir, subject.Address().Namespace, subject.Name()+".jar"), nil
}

func jarEntries(subject *object.Struct) ([]string, error) {
	v, ok := subject.Attr("jars")
	if !ok || v.IsNull() {
		return nil, nil
	}
	var out []string
	for it := v.ElementIterator(); it.Next(); {
		_, jar := it.Element()
		if jar.IsNull() {
			continue
		}
		coords := make(map[string]string)
		for k, c := range jar.AsValueMap() {
			if !c.IsNull() {
				coords[k] = c.AsString()
			}
		}
		if coords["org"] == "" || coords["name"] == "" {
			keys := make([]string, 0, len(coords))
			for k := range coords {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return nil, fmt.Errorf("%s: jar needs org and name, got %v", subject.Address(), keys)
		}
		entry := coords["org"] + ":" + coords["name"]
		if rev := coords["rev"]; rev != "" {
			entry += ":" + rev
		}
		out = append(out, entry)
	}
	return out, nil
}

// Register registers the schemas and the planner with the registry.
func (m *Module) Register(r *planner.Registry) {
	for _, s := range Schemas() {
		r.RegisterSchema(s)
	}
	r.Register(&planner.Func{
		PlannerName:  "classpath",
		Products:     []product.Kind{Kind},
		SubjectKinds: []string{JavaLibrary, JarLibrary},
		GoalNames:    map[string][]product.Kind{"classpath": {Kind}, "compile": {Kind}},
		Requires:     requires,
		Run:          OnRunClasspath,
	})
}
