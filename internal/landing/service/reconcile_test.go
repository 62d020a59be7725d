package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"catchcert/internal/landing/models"
	"catchcert/internal/landing/store"
)

type ReconcileSuite struct {
	suite.Suite
	store *store.InMemory
	svc   *Service
	ctx   context.Context
}

func (s *ReconcileSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.svc = New(s.store)
	s.ctx = context.Background()
}

func TestReconcileSuite(t *testing.T) {
	suite.Run(t, new(ReconcileSuite))
}

var testDay = time.Date(2019, 10, 6, 0, 0, 0, 0, time.UTC)

func newLanding(pln string, landedAt time.Time, source models.Source, items ...models.CatchItem) models.Landing {
	return models.Landing{PLN: pln, LandedAt: landedAt, Source: source, Items: items}
}

func item(species string, weight float64) models.CatchItem {
	return models.CatchItem{Species: species, State: "FRE", Presentation: "WHL", Weight: weight, Factor: 1}
}

func (s *ReconcileSuite) TestEmptyStorePassesThrough() {
	fetched := []models.Landing{
		newLanding("WA1", testDay.Add(8*time.Hour), models.SourceDeclaration, item("HER", 50)),
	}

	retained, err := s.svc.Reconcile(s.ctx, "WA1", testDay, fetched)
	s.Require().NoError(err)
	s.Equal(fetched, retained)
}

func (s *ReconcileSuite) TestIdenticalLandingDropped() {
	existing := newLanding("WA1", testDay.Add(8*time.Hour), models.SourceDeclaration, item("HER", 50))
	s.Require().NoError(s.store.Upsert(s.ctx, existing))

	// Same day, source, and items but a different instant still counts as a
	// repeat of the same data.
	fetched := newLanding("WA1", testDay.Add(9*time.Hour), models.SourceDeclaration, item("HER", 50))

	retained, err := s.svc.Reconcile(s.ctx, "WA1", testDay, []models.Landing{fetched})
	s.Require().NoError(err)
	s.Empty(retained)
}

func (s *ReconcileSuite) TestFieldDifferencesRetain() {
	existing := newLanding("WA1", testDay.Add(8*time.Hour), models.SourceDeclaration, item("HER", 50))
	s.Require().NoError(s.store.Upsert(s.ctx, existing))

	base := item("HER", 50)

	cases := []struct {
		name   string
		mutate func(*models.Landing)
	}{
		{"different source", func(l *models.Landing) { l.Source = models.SourceELog }},
		{"different weight", func(l *models.Landing) { l.Items[0].Weight = 51 }},
		{"different species", func(l *models.Landing) { l.Items[0].Species = "LBE" }},
		{"different state", func(l *models.Landing) { l.Items[0].State = "FRO" }},
		{"different presentation", func(l *models.Landing) { l.Items[0].Presentation = "GUT" }},
		{"different factor", func(l *models.Landing) { l.Items[0].Factor = 1.2 }},
		{"extra item", func(l *models.Landing) { l.Items = append(l.Items, item("COD", 10)) }},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			candidate := newLanding("WA1", testDay.Add(8*time.Hour), models.SourceDeclaration, base)
			tc.mutate(&candidate)

			retained, err := s.svc.Reconcile(s.ctx, "WA1", testDay, []models.Landing{candidate})
			s.Require().NoError(err)
			s.Len(retained, 1)
		})
	}
}

func (s *ReconcileSuite) TestRepeatedItemsMatchAsMultiset() {
	existing := newLanding("WA1", testDay.Add(8*time.Hour), models.SourceDeclaration,
		item("HER", 50), item("HER", 50))
	s.Require().NoError(s.store.Upsert(s.ctx, existing))

	s.Run("same multiset in different order dropped", func() {
		fetched := newLanding("WA1", testDay.Add(10*time.Hour), models.SourceDeclaration,
			item("HER", 50), item("HER", 50))
		retained, err := s.svc.Reconcile(s.ctx, "WA1", testDay, []models.Landing{fetched})
		s.Require().NoError(err)
		s.Empty(retained)
	})

	s.Run("repeat counts must agree", func() {
		fetched := newLanding("WA1", testDay.Add(10*time.Hour), models.SourceDeclaration,
			item("HER", 50), item("HER", 60))
		retained, err := s.svc.Reconcile(s.ctx, "WA1", testDay, []models.Landing{fetched})
		s.Require().NoError(err)
		s.Len(retained, 1)
	})
}

func (s *ReconcileSuite) TestRepeatedPollIsIdempotent() {
	fetched := []models.Landing{
		newLanding("WA1", testDay.Add(8*time.Hour), models.SourceDeclaration, item("HER", 50)),
	}

	retained, err := s.svc.Reconcile(s.ctx, "WA1", testDay, fetched)
	s.Require().NoError(err)
	s.svc.Persist(s.ctx, retained)

	retained, err = s.svc.Reconcile(s.ctx, "WA1", testDay, fetched)
	s.Require().NoError(err)
	s.Empty(retained)

	stored, err := s.store.Range(s.ctx, "WA1", testDay, testDay.Add(24*time.Hour))
	s.Require().NoError(err)
	s.Len(stored, 1)
}
