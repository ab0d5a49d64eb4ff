package declsource

import (
	"context"
	"sync"
)

// MemorySource serves records held in memory. It is safe for concurrent use.
type MemorySource struct {
	mu      sync.RWMutex
	records map[string][]Record
	loads   map[string]int
}

// NewMemorySource creates a source pre-populated with records.
func NewMemorySource(records ...Record) *MemorySource {
	m := &MemorySource{
		records: make(map[string][]Record),
		loads:   make(map[string]int),
	}
	m.Add(records...)
	return m
}

// Add appends records to their namespaces.
func (m *MemorySource) Add(records ...Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		ns := r.Address.Namespace
		m.records[ns] = append(m.records[ns], r)
	}
}

// LoadNamespace implements Source.
func (m *MemorySource) LoadNamespace(ctx context.Context, namespace string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads[namespace]++
	return append([]Record(nil), m.records[namespace]...), nil
}

// Loads reports how many times a namespace was loaded.
func (m *MemorySource) Loads(namespace string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads[namespace]
}
