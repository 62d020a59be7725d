package blocking

import (
	"context"
	"sync"
)

// MemoryToggles is a map-backed toggle store for tests and memory-only
// deployments. Absent rules read as false.
type MemoryToggles struct {
	mu      sync.RWMutex
	toggles map[string]bool
}

func NewMemoryToggles(toggles map[string]bool) *MemoryToggles {
	if toggles == nil {
		toggles = make(map[string]bool)
	}
	return &MemoryToggles{toggles: toggles}
}

func (s *MemoryToggles) IsBlocking(_ context.Context, rule string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.toggles[rule], nil
}

// Set flips a toggle at runtime.
func (s *MemoryToggles) Set(rule string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toggles[rule] = enabled
}
