package graph

import (
	"strings"

	"github.com/specialistvlad/buildgrid/internal/address"
)

// CycleError reports a dependency cycle. Path starts and ends with the same
// address.
type CycleError struct {
	Path []address.Address
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, a := range e.Path {
		parts[i] = a.String()
	}
	return "dependency cycle detected: " + strings.Join(parts, " -> ")
}
