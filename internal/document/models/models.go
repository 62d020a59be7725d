package models

import (
	"time"

	landing "catchcert/internal/landing/models"
)

// Status is the certificate lifecycle state.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusComplete Status = "COMPLETE"
	StatusBlocked  Status = "BLOCKED"
)

// ClaimStatus tracks whether a claimed landing line has been matched against
// system landing data yet.
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "PENDING"
	ClaimComplete ClaimStatus = "COMPLETE"
	ClaimBlocked  ClaimStatus = "BLOCKED"
)

// LandingClaim is one claimed catch line on a certificate.
type LandingClaim struct {
	ID           string      `json:"id"`
	PLN          string      `json:"pln"`
	Date         time.Time   `json:"date"`
	Species      string      `json:"species"`
	State        string      `json:"state"`
	Presentation string      `json:"presentation"`
	Weight       float64     `json:"weight"`
	Status       ClaimStatus `json:"status"`
}

// Document is the certificate aggregate.
type Document struct {
	ID       string         `json:"id"`
	Status   Status         `json:"status"`
	Landings []LandingClaim `json:"landings"`
}

// DayKeys returns the unique (vessel, UTC day) pairs this document claims.
func (d Document) DayKeys() []landing.DayKey {
	seen := make(map[landing.DayKey]struct{})
	var keys []landing.DayKey
	for _, claim := range d.Landings {
		key := landing.DayKey{PLN: claim.PLN, Date: landing.DayOf(claim.Date)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

// ReportRow is one failing line in a validation report, attributable to a
// single document.
type ReportRow struct {
	Species      string    `json:"species"`
	Presentation string    `json:"presentation"`
	State        string    `json:"state"`
	Vessel       string    `json:"vessel"`
	Date         time.Time `json:"date"`
	Failures     []string  `json:"failures"`
}

// FailedValidationRecord archives the failing rows of a blocked certificate,
// keyed by document id. Created at most once per blocking, non-pre-approved
// validation pass.
type FailedValidationRecord struct {
	DocumentID string      `json:"documentId"`
	Status     string      `json:"status"`
	Rows       []ReportRow `json:"rows"`
	CreatedAt  time.Time   `json:"createdAt"`
}
