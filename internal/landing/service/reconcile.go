package service

import (
	"context"
	"fmt"
	"time"

	"catchcert/internal/landing/models"
)

// Reconcile drops fetched landings that the store already holds in identical
// form, so a registry repeating the same data on every poll causes no write
// churn. A fetched landing is dropped iff an existing landing matches on
// calendar day, source, item count, and every item has a value-equal
// counterpart on the five-tuple (species, weight, factor, state, presentation).
// Matching is by value, not position. Any difference retains the landing.
//
// Only the set of retained landings is contractual; ordering is not.
func (s *Service) Reconcile(ctx context.Context, pln string, date time.Time, fetched []models.Landing) ([]models.Landing, error) {
	from, to := models.DayWindow(date)
	existing, err := s.store.Range(ctx, pln, from, to)
	if err != nil {
		return nil, fmt.Errorf("load existing landings for %s: %w", pln, err)
	}
	if len(existing) == 0 {
		return fetched, nil
	}

	retained := make([]models.Landing, 0, len(fetched))
	for _, candidate := range fetched {
		if hasEquivalent(existing, candidate) {
			if s.metrics != nil {
				s.metrics.LandingsDeduplicated.Inc()
			}
			continue
		}
		retained = append(retained, candidate)
	}
	return retained, nil
}

func hasEquivalent(existing []models.Landing, candidate models.Landing) bool {
	for _, e := range existing {
		if equivalent(e, candidate) {
			return true
		}
	}
	return false
}

func equivalent(a, b models.Landing) bool {
	if !a.Day().Equal(b.Day()) || a.Source != b.Source {
		return false
	}
	return itemsMatch(a.Items, b.Items)
}

// itemsMatch pairs items greedily by value equality, consuming each counterpart
// at most once so repeated lines must appear the same number of times.
func itemsMatch(a, b []models.CatchItem) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, item := range a {
		matched := false
		for i, counterpart := range b {
			if used[i] {
				continue
			}
			if item.Equal(counterpart) {
				used[i] = true
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
