package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"catchcert/internal/document/models"
	landing "catchcert/internal/landing/models"
	"catchcert/pkg/platform/sentinel"
	"catchcert/pkg/requestcontext"
)

// Postgres persists documents with claims normalized into their own table so
// sibling discovery stays a plain indexed query.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Save(ctx context.Context, doc *models.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save document: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, status) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`,
		doc.ID, string(doc.Status))
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_claims WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("clear claims for %s: %w", doc.ID, err)
	}
	for _, claim := range doc.Landings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO document_claims
				(id, document_id, pln, date, species, state, presentation, weight, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			claim.ID, doc.ID, claim.PLN, landing.DayOf(claim.Date),
			claim.Species, claim.State, claim.Presentation, claim.Weight, string(claim.Status))
		if err != nil {
			return fmt.Errorf("insert claim %s: %w", claim.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save document: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id string) (*models.Document, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM documents WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find document %s: %w", id, err)
	}

	doc := &models.Document{ID: id, Status: models.Status(status)}
	if doc.Landings, err = s.loadClaims(ctx, id); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Postgres) FindRelated(ctx context.Context, keys []landing.DayKey) ([]*models.Document, error) {
	ids := make(map[string]struct{})
	for _, key := range keys {
		rows, err := s.db.QueryContext(ctx, `
			SELECT DISTINCT document_id FROM document_claims WHERE pln = $1 AND date = $2`,
			key.PLN, landing.DayOf(key.Date))
		if err != nil {
			return nil, fmt.Errorf("find related documents for %s: %w", key.PLN, err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan related document id: %w", err)
			}
			ids[id] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterate related document ids: %w", err)
		}
		rows.Close()
	}

	out := make([]*models.Document, 0, len(ids))
	for id := range ids {
		doc, err := s.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *Postgres) UpdateStatus(ctx context.Context, docID string, status models.Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE documents SET status = $2 WHERE id = $1`, docID, string(status))
	if err != nil {
		return fmt.Errorf("update document %s status: %w", docID, err)
	}
	return requireRow(res)
}

func (s *Postgres) UpdateClaimStatuses(ctx context.Context, docID string, status models.ClaimStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE document_claims SET status = $2 WHERE document_id = $1`,
		docID, string(status))
	if err != nil {
		return fmt.Errorf("update claims for %s: %w", docID, err)
	}
	return nil
}

func (s *Postgres) UpdateClaim(ctx context.Context, docID, claimID string, status models.ClaimStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE document_claims SET status = $3 WHERE document_id = $1 AND id = $2`,
		docID, claimID, string(status))
	if err != nil {
		return fmt.Errorf("update claim %s: %w", claimID, err)
	}
	return requireRow(res)
}

func (s *Postgres) loadClaims(ctx context.Context, docID string) ([]models.LandingClaim, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pln, date, species, state, presentation, weight, status
		FROM document_claims WHERE document_id = $1 ORDER BY id`, docID)
	if err != nil {
		return nil, fmt.Errorf("load claims for %s: %w", docID, err)
	}
	defer rows.Close()

	var claims []models.LandingClaim
	for rows.Next() {
		var (
			claim  models.LandingClaim
			status string
		)
		if err := rows.Scan(&claim.ID, &claim.PLN, &claim.Date, &claim.Species,
			&claim.State, &claim.Presentation, &claim.Weight, &status); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		claim.Status = models.ClaimStatus(status)
		claim.Date = claim.Date.UTC()
		claims = append(claims, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return claims, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// FailedPostgres archives failed validation rows as JSONB.
type FailedPostgres struct {
	db *sql.DB
}

func NewFailedPostgres(db *sql.DB) *FailedPostgres {
	return &FailedPostgres{db: db}
}

func (s *FailedPostgres) Save(ctx context.Context, record models.FailedValidationRecord) error {
	rows, err := json.Marshal(record.Rows)
	if err != nil {
		return fmt.Errorf("marshal failed rows: %w", err)
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = requestcontext.Now(ctx)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO failed_validation_records (document_id, status, rows, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (document_id) DO UPDATE
		SET status = EXCLUDED.status, rows = EXCLUDED.rows, created_at = EXCLUDED.created_at`,
		record.DocumentID, record.Status, rows, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("save failed validation for %s: %w", record.DocumentID, err)
	}
	return nil
}

func (s *FailedPostgres) FindByDocument(ctx context.Context, docID string) (*models.FailedValidationRecord, error) {
	var (
		record models.FailedValidationRecord
		rows   []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT document_id, status, rows, created_at
		FROM failed_validation_records WHERE document_id = $1`, docID).
		Scan(&record.DocumentID, &record.Status, &rows, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find failed validation for %s: %w", docID, err)
	}
	if err := json.Unmarshal(rows, &record.Rows); err != nil {
		return nil, fmt.Errorf("unmarshal failed rows: %w", err)
	}
	return &record, nil
}
