// Package rules is the in-process implementation of the validation engine
// port. It performs per-line weight accounting against known landings and
// emits the regulatory failure codes. Deployments with an external query
// engine swap this out at wiring time; the orchestrator only sees the port.
package rules

import (
	"context"
	"time"

	docmodels "catchcert/internal/document/models"
	landing "catchcert/internal/landing/models"
	"catchcert/internal/refdata"
	"catchcert/internal/validation"
)

// Failure codes emitted by the rule chain.
const (
	// CodeSpeciesMismatch: the claimed species was not landed that day.
	CodeSpeciesMismatch = "3C"
	// CodeOveruse: claimed weight exceeds the landed weight after conversion.
	CodeOveruse = "3D"
	// CodeNoData: no landing data exists for the claimed vessel/day.
	CodeNoData = "noDataSubmitted"
	// CodeNoLicence: the vessel is unknown or unlicensed on the landing date.
	CodeNoLicence = "noLicenceHolder"
)

// Engine evaluates certificates against landings. Pure over its inputs; no
// I/O and no stored state.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

func (e *Engine) Query(
	_ context.Context,
	certs []*docmodels.Document,
	landings []landing.Landing,
	vessels map[string]refdata.Vessel,
	_ time.Time,
	resolve validation.AliasResolver,
) ([]validation.Result, error) {
	if resolve == nil {
		resolve = identity
	}
	totals := claimTotals(certs, resolve)
	var results []validation.Result
	for _, cert := range certs {
		for _, claim := range cert.Landings {
			results = append(results, evaluateClaim(cert.ID, claim, landings, vessels, totals, resolve))
		}
	}
	return results, nil
}

type claimKey struct {
	pln     string
	day     time.Time
	species string
}

// claimTotals sums claimed weight per (vessel, day, species) across every
// certificate in the query. Overuse is judged against the combined figure so
// two certificates cannot each claim the full landed weight.
func claimTotals(certs []*docmodels.Document, resolve validation.AliasResolver) map[claimKey]float64 {
	totals := make(map[claimKey]float64)
	for _, cert := range certs {
		for _, claim := range cert.Landings {
			key := claimKey{
				pln:     claim.PLN,
				day:     landing.DayOf(claim.Date),
				species: resolve(claim.Species),
			}
			totals[key] += claim.Weight
		}
	}
	return totals
}

// QueryForeign checks foreign-caught certificates. Foreign landings are not
// in the domestic registry, so only the licence rule applies.
func (e *Engine) QueryForeign(
	_ context.Context,
	certs []*docmodels.Document,
	vessels map[string]refdata.Vessel,
	_ time.Time,
	resolve validation.AliasResolver,
) ([]validation.Result, error) {
	if resolve == nil {
		resolve = identity
	}
	var results []validation.Result
	for _, cert := range certs {
		for _, claim := range cert.Landings {
			result := newResult(cert.ID, claim, vessels)
			if !licenceValid(claim, vessels) {
				result.Failures = append(result.Failures, CodeNoLicence)
			}
			results = append(results, result)
		}
	}
	return results, nil
}

// evaluateClaim runs the rule chain for one claimed line. Rule priority:
//  1. Licence validity (hard fail)
//  2. Landing data existence
//  3. Species match
//  4. Weight overuse after conversion factors
func evaluateClaim(
	docID string,
	claim docmodels.LandingClaim,
	landings []landing.Landing,
	vessels map[string]refdata.Vessel,
	totals map[claimKey]float64,
	resolve validation.AliasResolver,
) validation.Result {
	result := newResult(docID, claim, vessels)

	if !licenceValid(claim, vessels) {
		result.Failures = append(result.Failures, CodeNoLicence)
	}

	dayLandings := landingsFor(claim, landings)
	if len(dayLandings) == 0 {
		result.Failures = append(result.Failures, CodeNoData)
		return result
	}
	result.LandingExists = true

	species := resolve(claim.Species)
	result.TotalWeight = totals[claimKey{pln: claim.PLN, day: landing.DayOf(claim.Date), species: species}]

	landed := 0.0
	matched := false
	for _, l := range dayLandings {
		for _, item := range l.Items {
			if resolve(item.Species) != species {
				continue
			}
			matched = true
			landed += item.Weight * item.Factor
		}
	}
	result.LandedWeight = landed

	if !matched {
		result.Failures = append(result.Failures, CodeSpeciesMismatch)
		return result
	}
	if result.TotalWeight > landed {
		result.Failures = append(result.Failures, CodeOveruse)
	}
	return result
}

func newResult(docID string, claim docmodels.LandingClaim, vessels map[string]refdata.Vessel) validation.Result {
	name := ""
	if vessel, ok := vessels[claim.PLN]; ok {
		name = vessel.Name
	}
	return validation.Result{
		DocumentID:    docID,
		PLN:           claim.PLN,
		Vessel:        name,
		Date:          landing.DayOf(claim.Date),
		Species:       claim.Species,
		State:         claim.State,
		Presentation:  claim.Presentation,
		ClaimedWeight: claim.Weight,
	}
}

func licenceValid(claim docmodels.LandingClaim, vessels map[string]refdata.Vessel) bool {
	vessel, ok := vessels[claim.PLN]
	if !ok {
		return false
	}
	return vessel.LicenceValidOn(landing.DayOf(claim.Date))
}

func landingsFor(claim docmodels.LandingClaim, landings []landing.Landing) []landing.Landing {
	day := landing.DayOf(claim.Date)
	var out []landing.Landing
	for _, l := range landings {
		if l.PLN == claim.PLN && l.Day().Equal(day) {
			out = append(out, l)
		}
	}
	return out
}

func identity(species string) string { return species }
