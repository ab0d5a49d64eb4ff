package dag_concurrency

import (
	"testing"
	"time"

	"github.com/specialistvlad/buildgrid/internal/app"
	"github.com/specialistvlad/buildgrid/internal/integration_tests"
	"github.com/stretchr/testify/require"
)

// Test for: Fan-in synchronization waits for all parallel dependencies.
func TestDagConcurrency_FanInSynchronization(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"grid/BUILD.hcl": `
			target "job" "A" {}
			target "job" "B" {}
			target "job" "C" {}
			target "job" "D" {
				dependencies = [":A", ":B", ":C"]
			}
		`,
	}
	mod := newSleeperModule(100 * time.Millisecond)

	// --- Act ---
	result := integration_tests.Run(t, files, app.Config{
		Goals:   []string{string(sleepKind)},
		Targets: []string{"grid:D"},
		Workers: 4,
	}, mod)

	// --- Assert ---
	require.NoError(t, result.Err, result.Output)
	latest := mod.record("A").End
	for _, name := range []string{"B", "C"} {
		if end := mod.record(name).End; end.After(latest) {
			latest = end
		}
	}
	require.False(t, mod.record("D").Start.Before(latest), "D started before all of its dependencies were complete")
}
