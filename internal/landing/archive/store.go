package archive

import (
	"context"
	"time"

	"catchcert/internal/landing/models"
)

// Store keeps raw registry payloads for audit investigations. Upserts are
// last-write-wins on (PLN, date, kind); validation logic never reads these.
type Store interface {
	Upsert(ctx context.Context, record models.ExtendedValidationRecord) error
	Find(ctx context.Context, pln string, date time.Time, kind models.RecordKind) (*models.ExtendedValidationRecord, error)
}
