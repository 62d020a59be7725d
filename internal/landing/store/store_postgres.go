package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"catchcert/internal/landing/models"
	"catchcert/pkg/requestcontext"
)

// Postgres persists landings in PostgreSQL. Schema lives in
// migrations/0001_init.sql.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed landing store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const upsertLandingSQL = `
INSERT INTO landings (pln, landed_at, source, items, first_retrieved_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (pln, landed_at) DO UPDATE
SET source = EXCLUDED.source, items = EXCLUDED.items`

func (s *Postgres) Upsert(ctx context.Context, landing models.Landing) error {
	items, err := json.Marshal(landing.Items)
	if err != nil {
		return fmt.Errorf("marshal landing items: %w", err)
	}
	_, err = s.db.ExecContext(ctx, upsertLandingSQL,
		landing.PLN,
		landing.LandedAt.UTC(),
		string(landing.Source),
		items,
		requestcontext.Now(ctx).UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert landing %s@%s: %w", landing.PLN, landing.LandedAt.Format(time.RFC3339), err)
	}
	return nil
}

const deleteSourcedSQL = `
DELETE FROM landings
WHERE pln = $1 AND source = $2 AND landed_at BETWEEN $3 AND $4`

func (s *Postgres) DeleteSourced(ctx context.Context, pln string, day time.Time, source models.Source) error {
	from, to := models.DayWindow(day)
	if _, err := s.db.ExecContext(ctx, deleteSourcedSQL, pln, string(source), from, to); err != nil {
		return fmt.Errorf("delete %s landings for %s: %w", source, pln, err)
	}
	return nil
}

const rangeLandingsSQL = `
SELECT pln, landed_at, source, items, first_retrieved_at
FROM landings
WHERE pln = $1 AND landed_at BETWEEN $2 AND $3
ORDER BY landed_at`

func (s *Postgres) Range(ctx context.Context, pln string, from, to time.Time) ([]models.Landing, error) {
	rows, err := s.db.QueryContext(ctx, rangeLandingsSQL, pln, from, to)
	if err != nil {
		return nil, fmt.Errorf("range landings for %s: %w", pln, err)
	}
	defer rows.Close()

	var out []models.Landing
	for rows.Next() {
		var (
			landing models.Landing
			source  string
			items   []byte
		)
		if err := rows.Scan(&landing.PLN, &landing.LandedAt, &source, &items, &landing.FirstRetrievedAt); err != nil {
			return nil, fmt.Errorf("scan landing: %w", err)
		}
		if err := json.Unmarshal(items, &landing.Items); err != nil {
			return nil, fmt.Errorf("unmarshal landing items: %w", err)
		}
		landing.Source = models.Source(source)
		landing.LandedAt = landing.LandedAt.UTC()
		out = append(out, landing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate landings: %w", err)
	}
	return out, nil
}

func (s *Postgres) BatchRange(ctx context.Context, keys []models.DayKey) ([]models.Landing, error) {
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
