package archive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catchcert/internal/landing/models"
	"catchcert/pkg/platform/sentinel"
	"catchcert/pkg/requestcontext"
)

// InMemory stores audit records in process memory.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]models.ExtendedValidationRecord
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]models.ExtendedValidationRecord)}
}

func recordKey(pln string, date time.Time, kind models.RecordKind) string {
	return fmt.Sprintf("%s|%s|%s", pln, models.DayOf(date).Format("2006-01-02"), kind)
}

func (s *InMemory) Upsert(ctx context.Context, record models.ExtendedValidationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.UpdatedAt = requestcontext.Now(ctx)
	s.records[recordKey(record.PLN, record.Date, record.Kind)] = record
	return nil
}

func (s *InMemory) Find(_ context.Context, pln string, date time.Time, kind models.RecordKind) (*models.ExtendedValidationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[recordKey(pln, date, kind)]; ok {
		return &record, nil
	}
	return nil, sentinel.ErrNotFound
}
