package app

import (
	"github.com/specialistvlad/buildgrid/internal/planner"
	"github.com/specialistvlad/buildgrid/modules/classpath"
	"github.com/specialistvlad/buildgrid/modules/identity"
	"github.com/specialistvlad/buildgrid/modules/sources"
)

// coreModules is the definitive list of planner modules compiled into the
// buildgrid binary. Registration order is planner priority.
func coreModules(cfg *Config) []planner.Module {
	return []planner.Module{
		&classpath.Module{},
		&sources.Module{Root: cfg.Root},
		&identity.Module{},
	}
}
