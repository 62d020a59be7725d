// Package cascade propagates fresh landing data onto sibling certificates:
// documents whose claims reference the same (vessel, day) pairs as the one
// just validated.
package cascade

import (
	"context"
	"log/slog"

	docmodels "catchcert/internal/document/models"
	docstore "catchcert/internal/document/store"
	landing "catchcert/internal/landing/models"
	"catchcert/internal/reporting"
)

// Result records one sibling's cascade outcome. A nil Err means the reporter
// was notified and every matched claim persisted.
type Result struct {
	DocumentID string
	Err        error
}

// Propagator walks sibling groups one at a time. Sequential on purpose: it
// avoids concurrent writes to one document without needing locks beyond the
// store's keyed-upsert atomicity. One sibling's failure is recorded in its
// Result and the loop continues.
type Propagator struct {
	documents docstore.Store
	reporter  reporting.Reporter
	logger    *slog.Logger
}

type Option func(*Propagator)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Propagator) {
		p.logger = logger
	}
}

func New(documents docstore.Store, reporter reporting.Reporter, opts ...Option) *Propagator {
	p := &Propagator{
		documents: documents,
		reporter:  reporter,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Propagate updates each sibling whose Pending claims now have a matching
// landing: the reporter is notified with the sibling's update group, then each
// matched claim is marked Complete. Siblings with nothing to update are
// skipped and produce no Result.
func (p *Propagator) Propagate(ctx context.Context, siblings []*docmodels.Document, landings []landing.Landing) []Result {
	results := make([]Result, 0, len(siblings))
	for _, sibling := range siblings {
		matched := matchPendingClaims(sibling, landings)
		if len(matched) == 0 {
			continue
		}
		results = append(results, Result{
			DocumentID: sibling.ID,
			Err:        p.updateSibling(ctx, sibling, matched),
		})
	}
	return results
}

func (p *Propagator) updateSibling(ctx context.Context, sibling *docmodels.Document, matched []docmodels.LandingClaim) error {
	group := reporting.LandingUpdateGroup{DocumentID: sibling.ID, Claims: matched}
	if err := p.reporter.ReportLandingUpdate(ctx, group); err != nil {
		p.logger.ErrorContext(ctx, "landing update report failed",
			"document_id", sibling.ID,
			"error", err,
		)
		return err
	}

	for _, claim := range matched {
		if err := p.documents.UpdateClaim(ctx, sibling.ID, claim.ID, docmodels.ClaimComplete); err != nil {
			p.logger.ErrorContext(ctx, "sibling claim update failed",
				"document_id", sibling.ID,
				"claim_id", claim.ID,
				"error", err,
			)
			return err
		}
	}
	return nil
}

// matchPendingClaims returns the sibling's Pending claims that now have a
// landing on the same (vessel, day) carrying the claimed species.
func matchPendingClaims(doc *docmodels.Document, landings []landing.Landing) []docmodels.LandingClaim {
	var matched []docmodels.LandingClaim
	for _, claim := range doc.Landings {
		if claim.Status != docmodels.ClaimPending {
			continue
		}
		if hasMatchingLanding(claim, landings) {
			matched = append(matched, claim)
		}
	}
	return matched
}

func hasMatchingLanding(claim docmodels.LandingClaim, landings []landing.Landing) bool {
	claimDay := landing.DayOf(claim.Date)
	for _, l := range landings {
		if l.PLN != claim.PLN || !l.Day().Equal(claimDay) {
			continue
		}
		for _, item := range l.Items {
			if item.Species == claim.Species {
				return true
			}
		}
	}
	return false
}
