package dag_concurrency

import (
	"context"
	"sync"
	"time"

	"github.com/specialistvlad/buildgrid/internal/planner"
	"github.com/specialistvlad/buildgrid/internal/product"
)

const sleepKind product.Kind = "sleep"

// executionRecord holds the start and end times of one plan execution.
type executionRecord struct {
	Start time.Time
	End   time.Time
}

// sleeperModule registers a planner whose plans sleep and record when they
// ran, keyed by subject name.
type sleeperModule struct {
	mu             sync.Mutex
	executionTimes map[string]executionRecord
	sleepDuration  time.Duration
	// onStart, when set, runs at the start of every execution.
	onStart func(ctx context.Context, name string) error
}

func newSleeperModule(d time.Duration) *sleeperModule {
	return &sleeperModule{executionTimes: make(map[string]executionRecord), sleepDuration: d}
}

func (m *sleeperModule) Register(r *planner.Registry) {
	r.Register(&planner.Func{
		PlannerName: "sleeper",
		Products:    []product.Kind{sleepKind},
		Requires:    planner.DependenciesOf,
		Run: func(ctx context.Context, in planner.Inputs) (any, error) {
			name := in.Subject().Name()
			start := time.Now()
			if m.onStart != nil {
				if err := m.onStart(ctx, name); err != nil {
					return nil, err
				}
			}
			time.Sleep(m.sleepDuration)

			m.mu.Lock()
			m.executionTimes[name] = executionRecord{Start: start, End: time.Now()}
			m.mu.Unlock()
			return name, nil
		},
	})
}

func (m *sleeperModule) record(name string) executionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executionTimes[name]
}
