package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"catchcert/internal/landing/models"
	"catchcert/pkg/requestcontext"
)

// InMemory is the default landing store. It mirrors the Postgres store's
// semantics so services and tests can run without a database.
type InMemory struct {
	mu       sync.RWMutex
	landings map[string]models.Landing
}

func NewInMemory() *InMemory {
	return &InMemory{landings: make(map[string]models.Landing)}
}

func memKey(pln string, landedAt time.Time) string {
	return fmt.Sprintf("%s|%d", pln, landedAt.UTC().UnixMilli())
}

func (s *InMemory) Upsert(ctx context.Context, landing models.Landing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memKey(landing.PLN, landing.LandedAt)
	if existing, ok := s.landings[key]; ok {
		landing.FirstRetrievedAt = existing.FirstRetrievedAt
	} else {
		landing.FirstRetrievedAt = requestcontext.Now(ctx)
	}
	s.landings[key] = landing
	return nil
}

func (s *InMemory) DeleteSourced(ctx context.Context, pln string, day time.Time, source models.Source) error {
	from, to := models.DayWindow(day)
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, landing := range s.landings {
		if landing.PLN != pln || landing.Source != source {
			continue
		}
		if inWindow(landing.LandedAt, from, to) {
			delete(s.landings, key)
		}
	}
	return nil
}

func (s *InMemory) Range(_ context.Context, pln string, from, to time.Time) ([]models.Landing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Landing
	for _, landing := range s.landings {
		if landing.PLN == pln && inWindow(landing.LandedAt, from, to) {
			out = append(out, landing)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LandedAt.Before(out[j].LandedAt) })
	return out, nil
}

func (s *InMemory) BatchRange(ctx context.Context, keys []models.DayKey) ([]models.Landing, error) {
	var combined []models.Landing
	for _, key := range keys {
		from, to := models.DayWindow(key.Date)
		landings, err := s.Range(ctx, key.PLN, from, to)
		if err != nil {
			return nil, err
		}
		combined = append(combined, landings...)
	}
	return Dedupe(combined), nil
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
