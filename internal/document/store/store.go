package store

import (
	"context"

	"catchcert/internal/document/models"
	landing "catchcert/internal/landing/models"
)

// Store persists certificate documents and their landing claims.
type Store interface {
	Save(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id string) (*models.Document, error)
	// FindRelated returns every document with at least one claim on any of the
	// given (vessel, day) pairs.
	FindRelated(ctx context.Context, keys []landing.DayKey) ([]*models.Document, error)
	UpdateStatus(ctx context.Context, docID string, status models.Status) error
	// UpdateClaimStatuses sets every claim on the document to the given status.
	UpdateClaimStatuses(ctx context.Context, docID string, status models.ClaimStatus) error
	// UpdateClaim sets a single claim's status.
	UpdateClaim(ctx context.Context, docID, claimID string, status models.ClaimStatus) error
}

// FailedValidationStore archives blocked certificates' failing rows.
type FailedValidationStore interface {
	Save(ctx context.Context, record models.FailedValidationRecord) error
	FindByDocument(ctx context.Context, docID string) (*models.FailedValidationRecord, error)
}
