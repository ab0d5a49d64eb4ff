package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/buildgrid/internal/graph"
	"github.com/specialistvlad/buildgrid/internal/planner"
	"github.com/specialistvlad/buildgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

// setupAppTest creates a new app instance for system testing.
func setupAppTest(t *testing.T, cfg Config, modules ...planner.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	out := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	valid, err := NewConfig(cfg)
	require.NoError(t, err)
	a, err := NewApp(out, valid, modules...)
	require.NoError(t, err)

	t.Cleanup(func() {
		a.Close()
		if os.Getenv(testutil.LogsEnv) == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), out.String())
		}
	})
	return a, out
}

var javaTree = map[string]string{
	"src/App.java":     "class App {}",
	"src/lib/Lib.java": "class Lib {}",
	"src/BUILD.hcl": `
target "java_library" "app" {
  dependencies = ["src/lib", "3rdparty:guava"]
  sources      = globs("*.java")
}
`,
	"src/lib/BUILD.hcl": `
target "java_library" "lib" {
  dependencies = ["3rdparty:guava"]
  sources      = ["*.java"]
}
`,
	"3rdparty/BUILD.yaml": `
targets:
  - kind: jar_library
    name: guava
    jars:
      - org: com.google.guava
        name: guava
        rev: "33.0"
`,
}

func TestApp_Run(t *testing.T) {
	// --- Arrange ---
	cfg := DefaultConfig()
	cfg.Root = writeTree(t, javaTree)
	cfg.Goals = []string{"compile", "identity"}
	cfg.Targets = []string{"src:app"}
	a, out := setupAppTest(t, cfg)

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err, out.String())
	assert.Contains(t, out.String(), "ok   classpath(src:app) = out/src/app.jar out/src/lib/lib.jar com.google.guava:guava:33.0\n")
	assert.Contains(t, out.String(), "ok   identity(src:app) = guava,lib,app\n")
	assert.NotContains(t, out.String(), "FAIL")
}

func TestApp_Run_GoalFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Root = writeTree(t, map[string]string{
		"src/BUILD.hcl": `
target "java_library" "app" {
  sources = ["*.java"]
}
`,
	})
	cfg.Goals = []string{"classpath"}
	cfg.Targets = []string{"src:app"}
	a, out := setupAppTest(t, cfg)

	err := a.Run(context.Background())

	var failed *GoalsFailedError
	require.True(t, errors.As(err, &failed), "got %v", err)
	assert.Equal(t, 1, failed.Failed)
	assert.Contains(t, out.String(), "FAIL classpath(src:app)")
}

func TestApp_Run_StructuralErrors(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		targets []string
		check   func(t *testing.T, err error, out string)
	}{
		{
			name: "cycle",
			files: map[string]string{
				"a/BUILD.hcl": `target "thing" "a" { dependencies = ["b"] }`,
				"b/BUILD.hcl": `target "thing" "b" { dependencies = ["a"] }`,
			},
			targets: []string{"a"},
			check: func(t *testing.T, err error, out string) {
				var cycle *graph.CycleError
				require.True(t, errors.As(err, &cycle), "got %v", err)
				assert.Contains(t, out, "FAIL identity(a:a): failed to build dependency graph")
			},
		},
		{
			name:    "malformed target",
			targets: []string{"a:b:c"},
			check: func(t *testing.T, err error, out string) {
				assert.ErrorContains(t, err, "invalid target")
			},
		},
		{
			name:    "unknown target",
			files:   map[string]string{"a/BUILD.hcl": `target "thing" "a" {}`},
			targets: []string{"a:missing"},
			check: func(t *testing.T, err error, out string) {
				var failed *GoalsFailedError
				require.True(t, errors.As(err, &failed), "got %v", err)
				assert.Equal(t, 1, failed.Failed)
				assert.Contains(t, out, "FAIL identity(a:missing): failed to build dependency graph")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Root = writeTree(t, tc.files)
			cfg.Targets = tc.targets
			a, out := setupAppTest(t, cfg)

			err := a.Run(context.Background())

			tc.check(t, err, out.String())
		})
	}
}

func TestApp_Run_InvalidRootDoesNotStopOthers(t *testing.T) {
	// --- Arrange ---
	cfg := DefaultConfig()
	cfg.Root = writeTree(t, map[string]string{
		"a/BUILD.hcl": `target "thing" "good" {}`,
		"b/BUILD.hcl": `target "thing" "loop" { dependencies = [":loop"] }`,
	})
	cfg.Goals = []string{"identity"}
	cfg.Targets = []string{"a:good", "a:missing", "b:loop"}
	a, out := setupAppTest(t, cfg)

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	var failed *GoalsFailedError
	require.True(t, errors.As(err, &failed), "got %v", err)
	assert.Equal(t, 2, failed.Failed)
	assert.Equal(t, 3, failed.Total)
	assert.Contains(t, out.String(), "ok   identity(a:good) = good\n")
	assert.Contains(t, out.String(), "FAIL identity(a:missing)")
	assert.Contains(t, out.String(), "FAIL identity(b:loop)")
}

func TestApp_Run_NoTargets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Root = t.TempDir()
	a, out := setupAppTest(t, cfg)

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "No targets given")
}

func TestNewApp_CoreModules(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Root = t.TempDir()
	a, _ := setupAppTest(t, cfg)

	assert.Equal(t, []string{"classpath", "compile", "sources", "identity"}, a.Registry().Goals())
}
