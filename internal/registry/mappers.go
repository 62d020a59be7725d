package registry

import (
	"fmt"
	"time"

	"catchcert/internal/landing/models"
)

// FactorLookup resolves the weight conversion factor for a species line.
// Reference data owns the table; mappers stay pure.
type FactorLookup func(species, state, presentation string) float64

// MapDeclarations converts raw declaration entries into domain landings.
func MapDeclarations(raws []RawLanding, factors FactorLookup) ([]models.Landing, error) {
	return mapRawLandings(raws, models.SourceDeclaration, factors)
}

// MapELogs converts raw electronic-log entries into domain landings.
func MapELogs(raws []RawLanding, factors FactorLookup) ([]models.Landing, error) {
	return mapRawLandings(raws, models.SourceELog, factors)
}

func mapRawLandings(raws []RawLanding, source models.Source, factors FactorLookup) ([]models.Landing, error) {
	out := make([]models.Landing, 0, len(raws))
	for _, raw := range raws {
		landedAt, err := parseLandingTime(raw.LandingDate)
		if err != nil {
			return nil, fmt.Errorf("landing for %s: %w", raw.PLN, err)
		}
		out = append(out, models.Landing{
			PLN:      raw.PLN,
			LandedAt: landedAt,
			Source:   source,
			Items:    mapItems(raw.Items, factors),
		})
	}
	return out, nil
}

// MapCatchActivity converts the under-10 feed into a single-landing slice, or
// an empty slice when the registry had no document.
func MapCatchActivity(raw *RawCatchActivity, factors FactorLookup) ([]models.Landing, error) {
	if raw == nil {
		return []models.Landing{}, nil
	}
	landedAt, err := parseLandingTime(raw.Date)
	if err != nil {
		return nil, fmt.Errorf("catch activity for %s: %w", raw.PLN, err)
	}
	return []models.Landing{{
		PLN:      raw.PLN,
		LandedAt: landedAt,
		Source:   models.SourceCatchActivity,
		Items:    mapItems(raw.Activities, factors),
	}}, nil
}

func mapItems(raws []RawCatchItem, factors FactorLookup) []models.CatchItem {
	items := make([]models.CatchItem, 0, len(raws))
	for _, raw := range raws {
		factor := 1.0
		if factors != nil {
			factor = factors(raw.Species, raw.State, raw.Presentation)
		}
		items = append(items, models.CatchItem{
			Species:      raw.Species,
			State:        raw.State,
			Presentation: raw.Presentation,
			Weight:       raw.Weight,
			Factor:       factor,
		})
	}
	return items
}

// parseLandingTime accepts full timestamps and bare dates; registries disagree.
func parseLandingTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse landing time %q: %w", value, err)
	}
	return t.UTC(), nil
}
