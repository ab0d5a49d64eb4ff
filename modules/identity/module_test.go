package identity

import (
	"context"
	"fmt"
	"testing"

	"github.com/specialistvlad/buildgrid/internal/address"
	"github.com/specialistvlad/buildgrid/internal/localsession"
	"github.com/specialistvlad/buildgrid/internal/object"
	"github.com/specialistvlad/buildgrid/internal/planner"
	"github.com/specialistvlad/buildgrid/internal/product"
	"github.com/specialistvlad/buildgrid/internal/session"
	"github.com/specialistvlad/buildgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	testCases := []struct {
		name  string
		decls map[string][]string
		root  string
		want  string
	}{
		{name: "leaf", decls: map[string][]string{"x:a": nil}, root: "x:a", want: "a"},
		{name: "chain", decls: map[string][]string{"x:a": nil, "x:b": {"x:a"}}, root: "x:b", want: "a,b"},
		{
			name: "diamond keeps first occurrence",
			decls: map[string][]string{
				"x:a": nil,
				"x:b": {"x:a"},
				"x:c": {"x:a"},
				"x:d": {"x:c", "x:b"},
			},
			root: "x:d",
			want: "a,c,b,d",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			ctx, _ := testutil.Context(t)
			reg := planner.New()
			reg.Use(&Module{})
			s, err := (&localsession.SessionFactory{}).NewSession(ctx, testutil.Declarations(tc.decls), reg, session.Options{Workers: 2})
			require.NoError(t, err)
			defer s.Close(ctx)

			// --- Act ---
			goal := product.NewGoal(address.MustParse(tc.root), Kind)
			results, err := s.Run(ctx, goal)

			// --- Assert ---
			require.NoError(t, err)
			require.NoError(t, results[goal].Err)
			assert.Equal(t, tc.want, fmt.Sprint(results[goal].Value))
		})
	}
}

func TestIdentity_GoalName(t *testing.T) {
	reg := planner.New()
	reg.Use(&Module{})
	assert.Equal(t, []product.Kind{Kind}, reg.ProductsForGoal("identity"))
}

// fakeInputs serves fixed requirement products to a plan.
type fakeInputs struct {
	subject  *object.Struct
	products map[product.Goal]any
	order    []product.Goal
}

func (f *fakeInputs) Goal() product.Goal      { return product.NewGoal(f.subject.Address(), Kind) }
func (f *fakeInputs) Subject() *object.Struct { return f.subject }
func (f *fakeInputs) Product(g product.Goal) (any, bool) {
	v, ok := f.products[g]
	return v, ok
}
func (f *fakeInputs) Requirements() []product.Goal { return f.order }

func TestOnRunIdentity_NamesWithCommas(t *testing.T) {
	// --- Arrange ---
	dep := product.NewGoal(address.MustParse("x:dep"), Kind)
	other := product.NewGoal(address.MustParse("x:other"), Kind)
	in := &fakeInputs{
		subject: object.New("target", address.MustParse("x:top"), nil, nil),
		products: map[product.Goal]any{
			dep:   Identity{"a,b", "dep"},
			other: Identity{"a", "a,b"},
		},
		order: []product.Goal{dep, other},
	}

	// --- Act ---
	got, err := OnRunIdentity(context.Background(), in)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, Identity{"a,b", "dep", "a", "top"}, got)
}

func TestOnRunIdentity_RejectsForeignProducts(t *testing.T) {
	dep := product.NewGoal(address.MustParse("x:dep"), Kind)
	in := &fakeInputs{
		subject:  object.New("target", address.MustParse("x:top"), nil, nil),
		products: map[product.Goal]any{dep: "dep"},
		order:    []product.Goal{dep},
	}

	_, err := OnRunIdentity(context.Background(), in)

	assert.ErrorContains(t, err, "not an identity")
}
