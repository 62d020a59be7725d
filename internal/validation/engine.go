package validation

import (
	"context"
	"time"

	docmodels "catchcert/internal/document/models"
	landing "catchcert/internal/landing/models"
	"catchcert/internal/refdata"
)

// AliasResolver maps a claimed species code onto its canonical form. Alias
// data is owned elsewhere; the orchestrator passes the resolver through
// opaquely.
type AliasResolver func(species string) string

// Result is one per-claimed-line verdict from the query engine: weight
// accounting, landing existence, and the failure codes that apply.
type Result struct {
	DocumentID    string    `json:"documentId"`
	PLN           string    `json:"pln"`
	Vessel        string    `json:"vessel"`
	Date          time.Time `json:"date"`
	Species       string    `json:"species"`
	State         string    `json:"state"`
	Presentation  string    `json:"presentation"`
	ClaimedWeight float64   `json:"claimedWeight"`
	// TotalWeight is the combined claimed weight for this species across every
	// certificate in the query, the figure overuse is judged against.
	TotalWeight   float64  `json:"totalWeight"`
	LandedWeight  float64  `json:"landedWeight"`
	LandingExists bool     `json:"landingExists"`
	Failures      []string `json:"failures"`
}

// Engine is the external validation query engine. The orchestrator treats it
// as a pure function over the certificates and landings it is handed and does
// not reimplement its accounting. QueryForeign is the analogous variant for
// foreign-caught certificates.
type Engine interface {
	Query(ctx context.Context, certs []*docmodels.Document, landings []landing.Landing,
		vessels map[string]refdata.Vessel, asOf time.Time, resolve AliasResolver) ([]Result, error)
	QueryForeign(ctx context.Context, certs []*docmodels.Document,
		vessels map[string]refdata.Vessel, asOf time.Time, resolve AliasResolver) ([]Result, error)
}
