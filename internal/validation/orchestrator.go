// Package validation orchestrates a certificate validation pass: discovering
// related state, querying the validation engine, applying the blocking
// policy, and cascading landing updates onto sibling documents.
package validation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	docmodels "catchcert/internal/document/models"
	docstore "catchcert/internal/document/store"
	landingstore "catchcert/internal/landing/store"
	"catchcert/internal/refdata"
	"catchcert/internal/validation/blocking"
	"catchcert/internal/validation/cascade"
	"catchcert/internal/validation/metrics"
	"catchcert/internal/validation/preapproval"
	"catchcert/pkg/domerr"
	"catchcert/pkg/requestcontext"
)

var tracer = otel.Tracer("catchcert/validation")

// State is the terminal state of a completed validation pass. A pass that
// errors out before completing has no state; the error surfaces to the outer
// handler instead.
type State string

const (
	StateNotBlocking         State = "notBlocking"
	StateBlockingPreApproved State = "blockingPreApproved"
	StateBlockingNotApproved State = "blockingNotApproved"
)

// Outcome is what a completed pass returns to the caller.
type Outcome struct {
	State         State                 `json:"state"`
	Report        []docmodels.ReportRow `json:"report"`
	RawData       []Result              `json:"rawData"`
	IsPreApproved bool                  `json:"isPreApproved"`
	Cascade       []cascade.Result      `json:"-"`
}

// CertificatePayload is the inbound certificate shape before canonical
// mapping.
type CertificatePayload struct {
	DocumentID string         `json:"documentId"`
	Landings   []ClaimPayload `json:"landings"`
}

// ClaimPayload is one claimed catch line on the inbound payload.
type ClaimPayload struct {
	ID           string  `json:"id"`
	PLN          string  `json:"pln"`
	Date         string  `json:"date"`
	Species      string  `json:"species"`
	State        string  `json:"state"`
	Presentation string  `json:"presentation"`
	Weight       float64 `json:"weight"`
}

// Orchestrator runs validation passes. Concurrent passes for the same
// document coalesce through singleflight so one decision is computed and
// shared rather than racing.
type Orchestrator struct {
	refdata      refdata.Cache
	documents    docstore.Store
	failed       docstore.FailedValidationStore
	landings     landingstore.Store
	engine       Engine
	blocking     *blocking.Evaluator
	preapproval  preapproval.Store
	cascade      *cascade.Propagator
	resolveAlias AliasResolver
	logger       *slog.Logger
	metrics      *metrics.Metrics
	flight       singleflight.Group
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithAliasResolver installs the species alias resolver passed through to the
// engine. Defaults to identity.
func WithAliasResolver(resolve AliasResolver) Option {
	return func(o *Orchestrator) {
		o.resolveAlias = resolve
	}
}

func New(
	ref refdata.Cache,
	documents docstore.Store,
	failed docstore.FailedValidationStore,
	landings landingstore.Store,
	engine Engine,
	evaluator *blocking.Evaluator,
	approvals preapproval.Store,
	propagator *cascade.Propagator,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		refdata:      ref,
		documents:    documents,
		failed:       failed,
		landings:     landings,
		engine:       engine,
		blocking:     evaluator,
		preapproval:  approvals,
		cascade:      propagator,
		resolveAlias: func(species string) string { return species },
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate maps the payload and runs a full pass. Mapping errors surface as
// bad requests; anything failing between sibling discovery and the engine
// query surfaces as an internal error for the outer handler.
func (o *Orchestrator) Validate(ctx context.Context, payload CertificatePayload) (*Outcome, error) {
	doc, err := mapPayload(payload)
	if err != nil {
		return nil, err
	}

	v, err, _ := o.flight.Do(doc.ID, func() (any, error) {
		return o.runPass(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Outcome), nil
}

func (o *Orchestrator) runPass(ctx context.Context, doc *docmodels.Document) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "validation.pass",
		trace.WithAttributes(attribute.String("document.id", doc.ID)))
	defer span.End()

	// Risking data refresh is best-effort: a stale cache beats a failed pass.
	if err := o.refdata.RefreshRiskingData(ctx); err != nil {
		o.logger.WarnContext(ctx, "risking data refresh failed, using stale cache", "error", err)
	}

	if err := o.documents.Save(ctx, doc); err != nil {
		return nil, domerr.Wrap(err, domerr.CodeInternal, "persist canonical certificate")
	}

	keys := doc.DayKeys()
	related, err := o.documents.FindRelated(ctx, keys)
	if err != nil {
		return nil, domerr.Wrap(err, domerr.CodeInternal, "discover sibling certificates")
	}
	landings, err := o.landings.BatchRange(ctx, keys)
	if err != nil {
		return nil, domerr.Wrap(err, domerr.CodeInternal, "load related landings")
	}

	asOf := requestcontext.Now(ctx)
	results, err := o.engine.Query(ctx, related, landings, o.refdata.VesselsIndex(), asOf, o.resolveAlias)
	if err != nil {
		return nil, domerr.Wrap(err, domerr.CodeInternal, "validation engine query")
	}

	report := buildReport(results, doc.ID)
	siblings := excludeDocument(related, doc.ID)

	outcome, err := o.decide(ctx, doc, report, results)
	if err != nil {
		return nil, err
	}

	outcome.Cascade = o.cascade.Propagate(ctx, siblings, landings)
	for _, result := range outcome.Cascade {
		if result.Err != nil && o.metrics != nil {
			o.metrics.CascadeFailures.Inc()
		}
	}

	if o.metrics != nil {
		o.metrics.Passes.WithLabelValues(string(outcome.State)).Inc()
	}
	o.logger.InfoContext(ctx, "validation pass complete",
		"document_id", doc.ID,
		"state", outcome.State,
		"failing_rows", len(report),
		"siblings_updated", len(outcome.Cascade),
	)
	return outcome, nil
}

// decide applies the blocking state machine to a built report.
func (o *Orchestrator) decide(ctx context.Context, doc *docmodels.Document, report []docmodels.ReportRow, results []Result) (*Outcome, error) {
	if len(report) == 0 || !o.blocking.ShouldBlock(ctx, collectCodes(report)) {
		if err := o.complete(ctx, doc.ID); err != nil {
			return nil, err
		}
		return &Outcome{State: StateNotBlocking, Report: report, RawData: results}, nil
	}

	approved, err := o.preapproval.IsPreApproved(ctx, doc.ID)
	if err != nil {
		o.logger.WarnContext(ctx, "pre-approval lookup failed, treating as not approved",
			"document_id", doc.ID,
			"error", err,
		)
	}
	if approved {
		if err := o.complete(ctx, doc.ID); err != nil {
			return nil, err
		}
		return &Outcome{
			State:         StateBlockingPreApproved,
			Report:        []docmodels.ReportRow{},
			RawData:       results,
			IsPreApproved: true,
		}, nil
	}

	if err := o.block(ctx, doc.ID, report); err != nil {
		return nil, err
	}
	return &Outcome{
		State:   StateBlockingNotApproved,
		Report:  report,
		RawData: filterResults(results, doc.ID),
	}, nil
}

func (o *Orchestrator) complete(ctx context.Context, docID string) error {
	if err := o.documents.UpdateClaimStatuses(ctx, docID, docmodels.ClaimComplete); err != nil {
		return domerr.Wrap(err, domerr.CodeInternal, "complete landing claims")
	}
	if err := o.documents.UpdateStatus(ctx, docID, docmodels.StatusComplete); err != nil {
		return domerr.Wrap(err, domerr.CodeInternal, "complete document")
	}
	return nil
}

// block marks the document and archives its failing rows. The archive is
// written once per blocking pass and only for the document under validation.
func (o *Orchestrator) block(ctx context.Context, docID string, report []docmodels.ReportRow) error {
	if err := o.documents.UpdateClaimStatuses(ctx, docID, docmodels.ClaimBlocked); err != nil {
		return domerr.Wrap(err, domerr.CodeInternal, "block landing claims")
	}
	if err := o.documents.UpdateStatus(ctx, docID, docmodels.StatusBlocked); err != nil {
		return domerr.Wrap(err, domerr.CodeInternal, "block document")
	}
	record := docmodels.FailedValidationRecord{
		DocumentID: docID,
		Status:     string(docmodels.StatusBlocked),
		Rows:       report,
	}
	if err := o.failed.Save(ctx, record); err != nil {
		return domerr.Wrap(err, domerr.CodeInternal, "archive failed validation")
	}
	return nil
}

func mapPayload(payload CertificatePayload) (*docmodels.Document, error) {
	doc := &docmodels.Document{
		ID:     payload.DocumentID,
		Status: docmodels.StatusDraft,
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	for _, claim := range payload.Landings {
		date, err := parseClaimDate(claim.Date)
		if err != nil {
			return nil, domerr.Wrap(err, domerr.CodeBadRequest, "invalid landing claim date")
		}
		id := claim.ID
		if id == "" {
			id = uuid.NewString()
		}
		doc.Landings = append(doc.Landings, docmodels.LandingClaim{
			ID:           id,
			PLN:          claim.PLN,
			Date:         date,
			Species:      claim.Species,
			State:        claim.State,
			Presentation: claim.Presentation,
			Weight:       claim.Weight,
			Status:       docmodels.ClaimPending,
		})
	}
	return doc, nil
}

func parseClaimDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse claim date %q: %w", value, err)
	}
	return t.UTC(), nil
}

// buildReport keeps only failures attributable to the document under
// validation.
func buildReport(results []Result, docID string) []docmodels.ReportRow {
	var report []docmodels.ReportRow
	for _, result := range results {
		if result.DocumentID != docID || len(result.Failures) == 0 {
			continue
		}
		report = append(report, docmodels.ReportRow{
			Species:      result.Species,
			Presentation: result.Presentation,
			State:        result.State,
			Vessel:       result.Vessel,
			Date:         result.Date,
			Failures:     result.Failures,
		})
	}
	return report
}

func collectCodes(report []docmodels.ReportRow) []string {
	var codes []string
	for _, row := range report {
		codes = append(codes, row.Failures...)
	}
	return codes
}

func excludeDocument(docs []*docmodels.Document, docID string) []*docmodels.Document {
	out := make([]*docmodels.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.ID != docID {
			out = append(out, doc)
		}
	}
	return out
}

func filterResults(results []Result, docID string) []Result {
	out := make([]Result, 0, len(results))
	for _, result := range results {
		if result.DocumentID == docID {
			out = append(out, result)
		}
	}
	return out
}
