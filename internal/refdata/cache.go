// Package refdata owns the read-only vessel reference cache and the weight
// conversion factor table. The cache is loaded at startup and refreshed
// best-effort during validation passes; a failed refresh leaves stale data in
// place rather than aborting the caller.
package refdata

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Vessel describes one licensed fishing vessel. The JSON tags match the seed
// file format read by NewFromSeedFile.
type Vessel struct {
	PLN              string    `json:"pln"`
	Name             string    `json:"name"`
	Flag             string    `json:"flag"`
	HomePort         string    `json:"homePort"`
	Length           float64   `json:"length"`
	LicenceValidFrom time.Time `json:"licenceValidFrom"`
	LicenceValidTo   time.Time `json:"licenceValidTo"`
}

// LicenceValidOn reports whether the vessel's licence covers t.
func (v Vessel) LicenceValidOn(t time.Time) bool {
	return !t.Before(v.LicenceValidFrom) && !t.After(v.LicenceValidTo)
}

// Cache is the port consumed by the fetcher and the validation orchestrator.
type Cache interface {
	VesselDetails(pln string) (Vessel, bool)
	VesselsIndex() map[string]Vessel
	RefreshRiskingData(ctx context.Context) error
	ConversionFactor(species, state, presentation string) float64
}

// Memory is an in-process reference cache seeded at construction.
type Memory struct {
	mu             sync.RWMutex
	vessels        map[string]Vessel
	factors        map[string]float64
	refreshRisking func(ctx context.Context) error
}

type Option func(*Memory)

// WithConversionFactors seeds the factor table, keyed by
// species|state|presentation.
func WithConversionFactors(factors map[string]float64) Option {
	return func(m *Memory) {
		m.factors = factors
	}
}

// WithRiskingRefresher installs the loader invoked by RefreshRiskingData.
func WithRiskingRefresher(fn func(ctx context.Context) error) Option {
	return func(m *Memory) {
		m.refreshRisking = fn
	}
}

func NewMemory(vessels []Vessel, opts ...Option) *Memory {
	m := &Memory{
		vessels: make(map[string]Vessel, len(vessels)),
		factors: make(map[string]float64),
	}
	for _, vessel := range vessels {
		m.vessels[vessel.PLN] = vessel
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// replace swaps the whole vessel and factor tables atomically. Readers mid-pass
// keep whichever snapshot they already looked up.
func (m *Memory) replace(vessels []Vessel, factors map[string]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vessels = make(map[string]Vessel, len(vessels))
	for _, vessel := range vessels {
		m.vessels[vessel.PLN] = vessel
	}
	if factors == nil {
		factors = make(map[string]float64)
	}
	m.factors = factors
}

func (m *Memory) VesselDetails(pln string) (Vessel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vessel, ok := m.vessels[pln]
	return vessel, ok
}

func (m *Memory) VesselsIndex() map[string]Vessel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	index := make(map[string]Vessel, len(m.vessels))
	for pln, vessel := range m.vessels {
		index[pln] = vessel
	}
	return index
}

// RefreshRiskingData re-runs the installed risking loader. Without a loader it
// is a no-op, which keeps tests and memory-only deployments simple.
func (m *Memory) RefreshRiskingData(ctx context.Context) error {
	if m.refreshRisking == nil {
		return nil
	}
	return m.refreshRisking(ctx)
}

// ConversionFactor returns the weight conversion factor for a species line,
// defaulting to 1 when the table has no entry.
func (m *Memory) ConversionFactor(species, state, presentation string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if factor, ok := m.factors[FactorKey(species, state, presentation)]; ok {
		return factor
	}
	return 1
}

// FactorKey builds the factor table key.
func FactorKey(species, state, presentation string) string {
	return fmt.Sprintf("%s|%s|%s", species, state, presentation)
}
