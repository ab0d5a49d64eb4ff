package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/buildgrid/internal/address"
	"github.com/specialistvlad/buildgrid/internal/object"
	"github.com/specialistvlad/buildgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	return root
}

func subject(addr string, include, exclude []string) *object.Struct {
	attrs := map[string]cty.Value{"sources": testutil.Strings(include...)}
	if exclude != nil {
		attrs["exclude"] = testutil.Strings(exclude...)
	}
	return object.New("java_library", address.MustParse(addr), attrs, nil)
}

func TestExpand(t *testing.T) {
	root := writeTree(t,
		"src/app/Main.java",
		"src/app/util/Strings.java",
		"src/app/util/StringsTest.java",
		"src/app/README.md",
		"src/other/Other.java",
	)
	dir := filepath.Join(root, "src", "app")

	testCases := []struct {
		name    string
		include []string
		exclude []string
		want    []string
	}{
		{name: "single level", include: []string{"*.java"}, want: []string{"src/app/Main.java"}},
		{
			name:    "recursive",
			include: []string{"**/*.java"},
			want:    []string{"src/app/Main.java", "src/app/util/Strings.java", "src/app/util/StringsTest.java"},
		},
		{
			name:    "exclude",
			include: []string{"**/*.java"},
			exclude: []string{"**/*Test.java"},
			want:    []string{"src/app/Main.java", "src/app/util/Strings.java"},
		},
		{
			name:    "overlapping patterns are deduplicated",
			include: []string{"util/*.java", "**/Strings.java"},
			want:    []string{"src/app/util/Strings.java", "src/app/util/StringsTest.java"},
		},
		{name: "directories are skipped", include: []string{"*"}, want: []string{"src/app/Main.java", "src/app/README.md"}},
		{name: "no match", include: []string{"*.scala"}, want: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Expand(root, dir, tc.include, tc.exclude)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPlanner_Execute(t *testing.T) {
	// --- Arrange ---
	root := writeTree(t, "src/app/Main.java", "src/app/Gen.java")
	p := &sourcesPlanner{root: root}
	s := subject("src/app:app", []string{"*.java"}, []string{"Gen.java"})
	require.True(t, p.Applicable(s, Kind))

	// --- Act ---
	plan, err := p.Plan(context.Background(), s, Kind)
	require.NoError(t, err)
	got, err := plan.Execute(context.Background(), nil)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"src/app/Main.java"}, got)
	assert.Empty(t, plan.Requires)
}

func TestPlanner_RejectsEscapingPatterns(t *testing.T) {
	p := &sourcesPlanner{root: t.TempDir()}
	for _, pattern := range []string{"../*.java", "a/../../b/*.java", "/etc/*"} {
		t.Run(pattern, func(t *testing.T) {
			_, err := p.Plan(context.Background(), subject("src:app", []string{pattern}, nil), Kind)
			assert.Error(t, err)
		})
	}
	_, err := p.Plan(context.Background(), subject("src:app", []string{"*.java"}, []string{"../x"}), Kind)
	assert.Error(t, err, "exclude patterns are checked too")
}

func TestPlanner_Applicable(t *testing.T) {
	p := &sourcesPlanner{}
	assert.True(t, p.Applicable(subject("src:app", []string{"*"}, nil), Kind))
	assert.False(t, p.Applicable(subject("src:app", []string{"*"}, nil), "classes"))
	assert.False(t, p.Applicable(object.New("resources", address.MustParse("src:res"), nil, nil), Kind))
}
