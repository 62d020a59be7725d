package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"catchcert/internal/landing/models"
	"catchcert/pkg/platform/sentinel"
	"catchcert/pkg/requestcontext"
)

// Postgres persists audit records in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const upsertRecordSQL = `
INSERT INTO extended_validation_records (pln, date, kind, raw, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (pln, date, kind) DO UPDATE
SET raw = EXCLUDED.raw, updated_at = EXCLUDED.updated_at`

func (s *Postgres) Upsert(ctx context.Context, record models.ExtendedValidationRecord) error {
	_, err := s.db.ExecContext(ctx, upsertRecordSQL,
		record.PLN,
		models.DayOf(record.Date),
		string(record.Kind),
		[]byte(record.Raw),
		requestcontext.Now(ctx).UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert %s record for %s: %w", record.Kind, record.PLN, err)
	}
	return nil
}

const findRecordSQL = `
SELECT pln, date, kind, raw, updated_at
FROM extended_validation_records
WHERE pln = $1 AND date = $2 AND kind = $3`

func (s *Postgres) Find(ctx context.Context, pln string, date time.Time, kind models.RecordKind) (*models.ExtendedValidationRecord, error) {
	var (
		record models.ExtendedValidationRecord
		k      string
		raw    []byte
	)
	err := s.db.QueryRowContext(ctx, findRecordSQL, pln, models.DayOf(date), string(kind)).
		Scan(&record.PLN, &record.Date, &k, &raw, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s record for %s: %w", kind, pln, err)
	}
	record.Kind = models.RecordKind(k)
	record.Raw = raw
	return &record, nil
}
