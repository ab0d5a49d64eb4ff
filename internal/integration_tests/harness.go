// Package integration_tests holds the harness shared by the end-to-end
// suites in its subdirectories. Each suite writes a declaration tree to a
// temporary root and drives a real App over it.
package integration_tests

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/buildgrid/internal/app"
	"github.com/specialistvlad/buildgrid/internal/planner"
	"github.com/specialistvlad/buildgrid/internal/testutil"
)

// Result is the outcome of one harness run.
type Result struct {
	Err    error
	Output string
	Root   string
	App    *app.App
}

// WriteTree writes files, keyed by slash separated path, below a new
// temporary directory and returns it.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return root
}

// Run writes files, builds an App rooted at them with cfg and runs it.
// Zero fields of cfg take their defaults. With no modules the core modules
// are used.
func Run(t *testing.T, files map[string]string, cfg app.Config, modules ...planner.Module) *Result {
	t.Helper()

	defaults := app.DefaultConfig()
	cfg.Root = WriteTree(t, files)
	if len(cfg.Goals) == 0 {
		cfg.Goals = defaults.Goals
	}
	if cfg.Workers == 0 {
		cfg.Workers = defaults.Workers
	}
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"

	valid, err := app.NewConfig(cfg)
	if err != nil {
		t.Fatalf("invalid test config: %v", err)
	}

	out := &testutil.SafeBuffer{}
	a, err := app.NewApp(out, valid, modules...)
	if err != nil {
		t.Fatalf("app.NewApp() returned an unexpected error: %v", err)
	}
	t.Cleanup(func() {
		a.Close()
		if os.Getenv(testutil.LogsEnv) == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), out.String())
		}
	})

	runErr := a.Run(context.Background())
	return &Result{Err: runErr, Output: out.String(), Root: cfg.Root, App: a}
}

// ModuleFunc adapts a function to planner.Module.
type ModuleFunc func(r *planner.Registry)

// Register calls f.
func (f ModuleFunc) Register(r *planner.Registry) { f(r) }
