package store

import (
	"context"
	"time"

	"catchcert/internal/landing/models"
)

// Store persists reconciled landings keyed by (PLN, landed-at instant).
//
// Upsert stamps FirstRetrievedAt only when the key is new; updates overwrite
// source and items but keep the original retrieval time. DeleteSourced removes
// landings of one source inside a single UTC day window (the eLog supersession
// rule). BatchRange combines several (vessel, day) windows and de-duplicates
// the result set by full value equality.
type Store interface {
	Upsert(ctx context.Context, landing models.Landing) error
	DeleteSourced(ctx context.Context, pln string, day time.Time, source models.Source) error
	Range(ctx context.Context, pln string, from, to time.Time) ([]models.Landing, error)
	BatchRange(ctx context.Context, keys []models.DayKey) ([]models.Landing, error)
}

// Equal reports full value equality between two landings, including items in
// order. Used for batch range de-duplication.
func Equal(a, b models.Landing) bool {
	if a.PLN != b.PLN || !a.LandedAt.Equal(b.LandedAt) || a.Source != b.Source {
		return false
	}
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if !a.Items[i].Equal(b.Items[i]) {
			return false
		}
	}
	return true
}

// Dedupe removes value-equal duplicates from a combined result set, keeping
// first occurrences in order.
func Dedupe(landings []models.Landing) []models.Landing {
	out := make([]models.Landing, 0, len(landings))
	for _, candidate := range landings {
		duplicate := false
		for _, kept := range out {
			if Equal(kept, candidate) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, candidate)
		}
	}
	return out
}
