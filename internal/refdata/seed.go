package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Seed is the on-disk reference data format: the vessel register plus the
// weight conversion factor table keyed by species|state|presentation.
type Seed struct {
	Vessels           []Vessel           `json:"vessels"`
	ConversionFactors map[string]float64 `json:"conversionFactors"`
}

// LoadSeed reads and parses a JSON seed file.
func LoadSeed(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return seed, nil
}

// NewFromSeedFile builds a Memory cache from a seed file and installs a
// risking refresher that re-reads the same file, so validation passes pick up
// register edits without a restart.
func NewFromSeedFile(path string) (*Memory, error) {
	seed, err := LoadSeed(path)
	if err != nil {
		return nil, err
	}
	m := NewMemory(seed.Vessels, WithConversionFactors(seed.ConversionFactors))
	m.refreshRisking = func(context.Context) error {
		seed, err := LoadSeed(path)
		if err != nil {
			return err
		}
		m.replace(seed.Vessels, seed.ConversionFactors)
		return nil
	}
	return m, nil
}
