package validation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	docmodels "catchcert/internal/document/models"
	docstore "catchcert/internal/document/store"
	landingmodels "catchcert/internal/landing/models"
	landingstore "catchcert/internal/landing/store"
	"catchcert/internal/refdata"
	"catchcert/internal/reporting"
	"catchcert/internal/validation"
	"catchcert/internal/validation/blocking"
	"catchcert/internal/validation/cascade"
	"catchcert/internal/validation/preapproval"
	"catchcert/internal/validation/rules"
	"catchcert/pkg/platform/sentinel"
)

type OrchestratorSuite struct {
	suite.Suite
	documents *docstore.InMemory
	failed    *docstore.FailedInMemory
	landings  *landingstore.InMemory
	toggles   *blocking.MemoryToggles
	approvals *preapproval.Memory
	reporter  *reporting.Memory
	ctx       context.Context
}

func (s *OrchestratorSuite) SetupTest() {
	s.documents = docstore.NewInMemory()
	s.failed = docstore.NewFailedInMemory()
	s.landings = landingstore.NewInMemory()
	s.toggles = blocking.NewMemoryToggles(nil)
	s.approvals = preapproval.NewMemory()
	s.reporter = reporting.NewMemory()
	s.ctx = context.Background()
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

func (s *OrchestratorSuite) newOrchestrator() *validation.Orchestrator {
	vessels := refdata.NewMemory([]refdata.Vessel{{
		PLN:              "WA1",
		Name:             "DAYBREAK",
		Length:           113.97,
		LicenceValidFrom: time.Date(2000, 12, 29, 0, 0, 0, 0, time.UTC),
		LicenceValidTo:   time.Date(2100, 12, 20, 0, 0, 0, 0, time.UTC),
	}})
	return validation.New(
		vessels,
		s.documents,
		s.failed,
		s.landings,
		rules.New(),
		blocking.New(s.toggles),
		s.approvals,
		cascade.New(s.documents, s.reporter),
	)
}

func (s *OrchestratorSuite) storeLanding(species string, weight float64) {
	s.Require().NoError(s.landings.Upsert(s.ctx, landingmodels.Landing{
		PLN:      "WA1",
		LandedAt: time.Date(2019, 10, 6, 8, 0, 0, 0, time.UTC),
		Source:   landingmodels.SourceDeclaration,
		Items:    []landingmodels.CatchItem{{Species: species, State: "FRE", Presentation: "WHL", Weight: weight, Factor: 1}},
	}))
}

func payload(docID string, claims ...validation.ClaimPayload) validation.CertificatePayload {
	return validation.CertificatePayload{DocumentID: docID, Landings: claims}
}

func lobsterClaim(weight float64) validation.ClaimPayload {
	return validation.ClaimPayload{
		ID:           "claim-1",
		PLN:          "WA1",
		Date:         "2019-10-06",
		Species:      "LBE",
		State:        "BAD",
		Presentation: "FIS",
		Weight:       weight,
	}
}

// TestSpeciesMismatchBlocks walks the full blocking path: the certificate
// claims lobster but only herring was landed that day.
func (s *OrchestratorSuite) TestSpeciesMismatchBlocks() {
	s.storeLanding("HER", 50)
	s.toggles.Set("3C", true)

	outcome, err := s.newOrchestrator().Validate(s.ctx, payload("doc-1", lobsterClaim(78)))
	s.Require().NoError(err)

	s.Equal(validation.StateBlockingNotApproved, outcome.State)
	s.Require().Len(outcome.Report, 1)
	row := outcome.Report[0]
	s.Equal("LBE", row.Species)
	s.Equal("BAD", row.State)
	s.Equal("FIS", row.Presentation)
	s.Equal("DAYBREAK", row.Vessel)
	s.Equal(time.Date(2019, 10, 6, 0, 0, 0, 0, time.UTC), row.Date)
	s.Equal([]string{"3C"}, row.Failures)

	doc, err := s.documents.FindByID(s.ctx, "doc-1")
	s.Require().NoError(err)
	s.Equal(docmodels.StatusBlocked, doc.Status)
	s.Equal(docmodels.ClaimBlocked, doc.Landings[0].Status)

	record, err := s.failed.FindByDocument(s.ctx, "doc-1")
	s.Require().NoError(err)
	s.Equal(string(docmodels.StatusBlocked), record.Status)
	s.Require().Len(record.Rows, 1)
	s.Equal([]string{"3C"}, record.Rows[0].Failures)

	// Raw data is scoped to the document under validation.
	for _, raw := range outcome.RawData {
		s.Equal("doc-1", raw.DocumentID)
	}
}

func (s *OrchestratorSuite) TestMatchingClaimCompletes() {
	s.storeLanding("HER", 50)

	claim := lobsterClaim(40)
	claim.Species = "HER"

	outcome, err := s.newOrchestrator().Validate(s.ctx, payload("doc-1", claim))
	s.Require().NoError(err)

	s.Equal(validation.StateNotBlocking, outcome.State)
	s.Empty(outcome.Report)

	doc, err := s.documents.FindByID(s.ctx, "doc-1")
	s.Require().NoError(err)
	s.Equal(docmodels.StatusComplete, doc.Status)
	s.Equal(docmodels.ClaimComplete, doc.Landings[0].Status)

	_, err = s.failed.FindByDocument(s.ctx, "doc-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *OrchestratorSuite) TestDisabledToggleDoesNotBlock() {
	s.storeLanding("HER", 50)
	// 3C failure present but its toggle is off.

	outcome, err := s.newOrchestrator().Validate(s.ctx, payload("doc-1", lobsterClaim(78)))
	s.Require().NoError(err)

	s.Equal(validation.StateNotBlocking, outcome.State)
	s.Require().Len(outcome.Report, 1)

	doc, err := s.documents.FindByID(s.ctx, "doc-1")
	s.Require().NoError(err)
	s.Equal(docmodels.StatusComplete, doc.Status)
}

func (s *OrchestratorSuite) TestPreApprovalOverridesBlocking() {
	s.storeLanding("HER", 50)
	s.toggles.Set("3C", true)
	s.approvals.Approve("doc-1")

	outcome, err := s.newOrchestrator().Validate(s.ctx, payload("doc-1", lobsterClaim(78)))
	s.Require().NoError(err)

	s.Equal(validation.StateBlockingPreApproved, outcome.State)
	s.True(outcome.IsPreApproved)
	s.Empty(outcome.Report)

	doc, err := s.documents.FindByID(s.ctx, "doc-1")
	s.Require().NoError(err)
	s.Equal(docmodels.StatusComplete, doc.Status)

	_, err = s.failed.FindByDocument(s.ctx, "doc-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *OrchestratorSuite) TestNoDataSubmittedBlocksUnconditionally() {
	// No landing stored, no toggles configured.
	outcome, err := s.newOrchestrator().Validate(s.ctx, payload("doc-1", lobsterClaim(78)))
	s.Require().NoError(err)

	s.Equal(validation.StateBlockingNotApproved, outcome.State)
	s.Require().Len(outcome.Report, 1)
	s.Equal([]string{"noDataSubmitted"}, outcome.Report[0].Failures)
}

func (s *OrchestratorSuite) TestUnknownVesselBlocksOnLicence() {
	claim := lobsterClaim(78)
	claim.PLN = "XX9"

	outcome, err := s.newOrchestrator().Validate(s.ctx, payload("doc-1", claim))
	s.Require().NoError(err)

	s.Equal(validation.StateBlockingNotApproved, outcome.State)
	s.Require().Len(outcome.Report, 1)
	s.Contains(outcome.Report[0].Failures, "noLicenceHolder")
}

func (s *OrchestratorSuite) TestOveruseDetected() {
	s.storeLanding("HER", 50)
	s.toggles.Set("3D", true)

	claim := lobsterClaim(78)
	claim.Species = "HER"

	outcome, err := s.newOrchestrator().Validate(s.ctx, payload("doc-1", claim))
	s.Require().NoError(err)

	s.Equal(validation.StateBlockingNotApproved, outcome.State)
	s.Require().Len(outcome.Report, 1)
	s.Equal([]string{"3D"}, outcome.Report[0].Failures)
}

// TestCascadeUpdatesSiblings verifies a pass on one document completes sibling
// claims that now have matching landing data.
func (s *OrchestratorSuite) TestCascadeUpdatesSiblings() {
	s.storeLanding("HER", 50)

	sibling := &docmodels.Document{
		ID:     "doc-2",
		Status: docmodels.StatusDraft,
		Landings: []docmodels.LandingClaim{{
			ID:      "sib-claim",
			PLN:     "WA1",
			Date:    time.Date(2019, 10, 6, 0, 0, 0, 0, time.UTC),
			Species: "HER",
			Weight:  20,
			Status:  docmodels.ClaimPending,
		}},
	}
	s.Require().NoError(s.documents.Save(s.ctx, sibling))

	claim := lobsterClaim(40)
	claim.Species = "HER"

	outcome, err := s.newOrchestrator().Validate(s.ctx, payload("doc-1", claim))
	s.Require().NoError(err)

	s.Require().Len(outcome.Cascade, 1)
	s.Equal("doc-2", outcome.Cascade[0].DocumentID)
	s.NoError(outcome.Cascade[0].Err)

	updated, err := s.documents.FindByID(s.ctx, "doc-2")
	s.Require().NoError(err)
	s.Equal(docmodels.ClaimComplete, updated.Landings[0].Status)

	reported := s.reporter.Reported()
	s.Require().Len(reported, 1)
	s.Equal("doc-2", reported[0].DocumentID)
}

func (s *OrchestratorSuite) TestInvalidClaimDateIsBadRequest() {
	claim := lobsterClaim(78)
	claim.Date = "06/10/2019"

	_, err := s.newOrchestrator().Validate(s.ctx, payload("doc-1", claim))
	s.Require().Error(err)
}

func (s *OrchestratorSuite) TestMissingIDsAreGenerated() {
	s.storeLanding("HER", 50)

	claim := lobsterClaim(40)
	claim.ID = ""
	claim.Species = "HER"

	outcome, err := s.newOrchestrator().Validate(s.ctx, validation.CertificatePayload{Landings: []validation.ClaimPayload{claim}})
	s.Require().NoError(err)
	s.Equal(validation.StateNotBlocking, outcome.State)
}
