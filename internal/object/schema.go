package object

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// Field declares one field of a kind.
type Field struct {
	Name string
	// Type is the cty type the raw value is converted to. DynamicPseudoType
	// accepts anything.
	Type     cty.Type
	Optional bool
	Default  *cty.Value
	// Ref marks the field as holding references: address strings, inline
	// objects carrying a "kind" attribute, or lists of either.
	Ref bool
}

// Schema describes the fields a declaration kind may carry. An open schema
// accepts undeclared attributes as-is.
type Schema struct {
	Kind   string
	Fields []*Field
	Open   bool
}

// Field looks up a declared field.
func (s *Schema) Field(name string) (*Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// DefaultSchema is used for kinds without a registered schema: any attribute
// is accepted and "dependencies" is a reference field.
func DefaultSchema(kind string) *Schema {
	return &Schema{
		Kind: kind,
		Open: true,
		Fields: []*Field{
			{Name: DependenciesField, Type: cty.DynamicPseudoType, Optional: true, Ref: true},
		},
	}
}

// Schemas is a registry of per-kind schemas.
type Schemas struct {
	mu     sync.RWMutex
	byKind map[string]*Schema
}

// NewSchemas creates an empty schema registry.
func NewSchemas() *Schemas {
	return &Schemas{byKind: make(map[string]*Schema)}
}

// Register adds a schema. Registering a kind twice is a programming error.
func (s *Schemas) Register(schema *Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byKind[schema.Kind]; exists {
		panic(fmt.Sprintf("object: schema for kind '%s' is already registered", schema.Kind))
	}
	s.byKind[schema.Kind] = schema
}

// For returns the schema of a kind, falling back to DefaultSchema.
func (s *Schemas) For(kind string) *Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if schema, ok := s.byKind[kind]; ok {
		return schema
	}
	return DefaultSchema(kind)
}

// Kinds returns the registered kinds, sorted.
func (s *Schemas) Kinds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kinds := make([]string, 0, len(s.byKind))
	for k := range s.byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
