package store

import (
	"context"
	"sort"
	"sync"

	"catchcert/internal/document/models"
	landing "catchcert/internal/landing/models"
	"catchcert/pkg/platform/sentinel"
	"catchcert/pkg/requestcontext"
)

// InMemory is the default document store.
type InMemory struct {
	mu        sync.RWMutex
	documents map[string]models.Document
}

func NewInMemory() *InMemory {
	return &InMemory{documents: make(map[string]models.Document)}
}

func (s *InMemory) Save(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = cloneDocument(*doc)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if doc, ok := s.documents[id]; ok {
		clone := cloneDocument(doc)
		return &clone, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindRelated(_ context.Context, keys []landing.DayKey) ([]*models.Document, error) {
	wanted := make(map[landing.DayKey]struct{}, len(keys))
	for _, key := range keys {
		wanted[landing.DayKey{PLN: key.PLN, Date: landing.DayOf(key.Date)}] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Document
	for _, doc := range s.documents {
		for _, claim := range doc.Landings {
			key := landing.DayKey{PLN: claim.PLN, Date: landing.DayOf(claim.Date)}
			if _, ok := wanted[key]; ok {
				clone := cloneDocument(doc)
				out = append(out, &clone)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) UpdateStatus(_ context.Context, docID string, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[docID]
	if !ok {
		return sentinel.ErrNotFound
	}
	doc.Status = status
	s.documents[docID] = doc
	return nil
}

func (s *InMemory) UpdateClaimStatuses(_ context.Context, docID string, status models.ClaimStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[docID]
	if !ok {
		return sentinel.ErrNotFound
	}
	for i := range doc.Landings {
		doc.Landings[i].Status = status
	}
	s.documents[docID] = doc
	return nil
}

func (s *InMemory) UpdateClaim(_ context.Context, docID, claimID string, status models.ClaimStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[docID]
	if !ok {
		return sentinel.ErrNotFound
	}
	for i := range doc.Landings {
		if doc.Landings[i].ID == claimID {
			doc.Landings[i].Status = status
			s.documents[docID] = doc
			return nil
		}
	}
	return sentinel.ErrNotFound
}

// FailedInMemory is the default failed-validation archive.
type FailedInMemory struct {
	mu      sync.RWMutex
	records map[string]models.FailedValidationRecord
}

func NewFailedInMemory() *FailedInMemory {
	return &FailedInMemory{records: make(map[string]models.FailedValidationRecord)}
}

func (s *FailedInMemory) Save(ctx context.Context, record models.FailedValidationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = requestcontext.Now(ctx)
	}
	s.records[record.DocumentID] = record
	return nil
}

func (s *FailedInMemory) FindByDocument(_ context.Context, docID string) (*models.FailedValidationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[docID]; ok {
		return &record, nil
	}
	return nil, sentinel.ErrNotFound
}

func cloneDocument(doc models.Document) models.Document {
	doc.Landings = append([]models.LandingClaim(nil), doc.Landings...)
	return doc
}
