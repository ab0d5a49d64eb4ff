package hcl_features

import (
	"testing"

	"github.com/specialistvlad/buildgrid/internal/app"
	"github.com/specialistvlad/buildgrid/internal/integration_tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test for: Relative, shorthand, root and inline dependencies all resolve.
func TestHCLFeatures_DependencyForms(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"BUILD.hcl": `target "thing" "top" {}`,
		"src/app/BUILD.hcl": `
			target "thing" "app" {
				dependencies = [
					":helper",          // same namespace
					"src/lib",          // shorthand for src/lib:lib
					"//:top",           // root namespace
					{ kind = "thing", dependencies = ["src/lib:extra"] },
				]
			}
			target "thing" "helper" {}
		`,
		"src/lib/BUILD.hcl": `
			target "thing" "lib" {}
			target "thing" "extra" {}
		`,
	}

	// --- Act ---
	result := integration_tests.Run(t, files, app.Config{
		Goals:   []string{"identity"},
		Targets: []string{"src/app:app"},
	})

	// --- Assert ---
	require.NoError(t, result.Err, result.Output)
	assert.Contains(t, result.Output, "ok   identity(src/app:app) = helper,lib,top,extra,app\n")
}
