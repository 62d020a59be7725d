package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"catchcert/internal/landing/models"
	"catchcert/pkg/requestcontext"
)

type LandingStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *LandingStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestLandingStoreSuite(t *testing.T) {
	suite.Run(t, new(LandingStoreSuite))
}

var day = time.Date(2019, 10, 6, 0, 0, 0, 0, time.UTC)

func landing(pln string, landedAt time.Time, source models.Source, items ...models.CatchItem) models.Landing {
	return models.Landing{PLN: pln, LandedAt: landedAt, Source: source, Items: items}
}

func herring(weight float64) models.CatchItem {
	return models.CatchItem{Species: "HER", State: "FRE", Presentation: "WHL", Weight: weight, Factor: 1}
}

func (s *LandingStoreSuite) TestUpsertKeepsFirstRetrievedAt() {
	first := time.Date(2019, 10, 7, 9, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	ctx := requestcontext.WithTime(s.ctx, first)
	s.Require().NoError(s.store.Upsert(ctx, landing("WA1", day.Add(8*time.Hour), models.SourceELog, herring(40))))

	ctx = requestcontext.WithTime(s.ctx, second)
	s.Require().NoError(s.store.Upsert(ctx, landing("WA1", day.Add(8*time.Hour), models.SourceDeclaration, herring(50))))

	from, to := models.DayWindow(day)
	stored, err := s.store.Range(s.ctx, "WA1", from, to)
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	// The update replaced source and items but kept the original retrieval time.
	s.Equal(models.SourceDeclaration, stored[0].Source)
	s.Equal(50.0, stored[0].Items[0].Weight)
	s.Equal(first, stored[0].FirstRetrievedAt)
}

func (s *LandingStoreSuite) TestDistinctInstantsAreDistinctRecords() {
	s.Require().NoError(s.store.Upsert(s.ctx, landing("WA1", day, models.SourceDeclaration, herring(10))))
	s.Require().NoError(s.store.Upsert(s.ctx, landing("WA1", day.Add(time.Millisecond), models.SourceDeclaration, herring(20))))

	from, to := models.DayWindow(day)
	stored, err := s.store.Range(s.ctx, "WA1", from, to)
	s.Require().NoError(err)
	s.Len(stored, 2)
}

func (s *LandingStoreSuite) TestDeleteSourced() {
	s.Require().NoError(s.store.Upsert(s.ctx, landing("WA1", day.Add(6*time.Hour), models.SourceELog, herring(40))))
	s.Require().NoError(s.store.Upsert(s.ctx, landing("WA1", day.Add(8*time.Hour), models.SourceDeclaration, herring(50))))
	s.Require().NoError(s.store.Upsert(s.ctx, landing("WA1", day.Add(30*time.Hour), models.SourceELog, herring(60))))

	s.Require().NoError(s.store.DeleteSourced(s.ctx, "WA1", day, models.SourceELog))

	from, to := models.DayWindow(day)
	stored, err := s.store.Range(s.ctx, "WA1", from, to)
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	s.Equal(models.SourceDeclaration, stored[0].Source)

	from, to = models.DayWindow(day.Add(24 * time.Hour))
	nextDay, err := s.store.Range(s.ctx, "WA1", from, to)
	s.Require().NoError(err)
	s.Len(nextDay, 1)
}

func (s *LandingStoreSuite) TestBatchRangeDeduplicates() {
	s.Require().NoError(s.store.Upsert(s.ctx, landing("WA1", day.Add(8*time.Hour), models.SourceDeclaration, herring(50))))
	s.Require().NoError(s.store.Upsert(s.ctx, landing("WA2", day.Add(9*time.Hour), models.SourceDeclaration, herring(30))))

	keys := []models.DayKey{
		{PLN: "WA1", Date: day},
		{PLN: "WA1", Date: day}, // repeated window must not duplicate results
		{PLN: "WA2", Date: day},
	}
	combined, err := s.store.BatchRange(s.ctx, keys)
	s.Require().NoError(err)
	s.Len(combined, 2)
}
