// Package reporting notifies downstream consumers when a sibling document's
// landing claims are updated by fresh landing data.
package reporting

import (
	"context"
	"sync"

	"catchcert/internal/document/models"
)

// LandingUpdateGroup is one sibling document's batch of claim updates.
type LandingUpdateGroup struct {
	DocumentID string                `json:"documentId"`
	Claims     []models.LandingClaim `json:"claims"`
}

// Reporter is the collaborator port invoked by the cascade propagator.
type Reporter interface {
	ReportLandingUpdate(ctx context.Context, group LandingUpdateGroup) error
}

// Memory records reported groups in process; the default when Kafka is not
// configured and the seam tests assert against.
type Memory struct {
	mu     sync.Mutex
	groups []LandingUpdateGroup
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) ReportLandingUpdate(_ context.Context, group LandingUpdateGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups = append(m.groups, group)
	return nil
}

// Reported returns a copy of everything reported so far.
func (m *Memory) Reported() []LandingUpdateGroup {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LandingUpdateGroup(nil), m.groups...)
}
