package httptransport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	docstore "catchcert/internal/document/store"
	"catchcert/internal/landing/fetcher"
	landingmodels "catchcert/internal/landing/models"
	landingsvc "catchcert/internal/landing/service"
	landingstore "catchcert/internal/landing/store"
	"catchcert/internal/validation"
	"catchcert/pkg/domerr"
	"catchcert/pkg/platform/sentinel"
)

// HealthCheck reports whether one backing service is reachable.
type HealthCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check HealthCheck
}

// Handler exposes the certificate validation and landing endpoints.
type Handler struct {
	orchestrator *validation.Orchestrator
	fetcher      *fetcher.Fetcher
	landings     *landingsvc.Service
	landingStore landingstore.Store
	failed       docstore.FailedValidationStore
	logger       *slog.Logger
	checks       []namedCheck
}

type HandlerOption func(*Handler)

// WithHealthCheck attaches a backing-service check to the health endpoint.
func WithHealthCheck(name string, check HealthCheck) HandlerOption {
	return func(h *Handler) {
		h.checks = append(h.checks, namedCheck{name: name, check: check})
	}
}

func NewHandler(
	orchestrator *validation.Orchestrator,
	f *fetcher.Fetcher,
	landings *landingsvc.Service,
	store landingstore.Store,
	failed docstore.FailedValidationStore,
	logger *slog.Logger,
	opts ...HandlerOption,
) *Handler {
	h := &Handler{
		orchestrator: orchestrator,
		fetcher:      f,
		landings:     landings,
		landingStore: store,
		failed:       failed,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/certificates/validate", h.HandleValidate)
	r.Get("/certificates/{documentID}/failed-validation", h.HandleFailedValidation)
	r.Post("/landings/refresh", h.HandleRefreshLandings)
	r.Get("/landings", h.HandleListLandings)
}

// HandleValidate runs a validation pass over the submitted certificate and
// returns the decision plus the failure report.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var payload validation.CertificatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domerr.Wrap(err, domerr.CodeBadRequest, "invalid certificate payload"))
		return
	}

	outcome, err := h.orchestrator.Validate(r.Context(), payload)
	if err != nil {
		// Caller mistakes are warnings; anything else is an engine or store
		// failure worth paging on.
		if domerr.HasCode(err, domerr.CodeBadRequest) {
			h.logger.WarnContext(r.Context(), "certificate rejected",
				"document_id", payload.DocumentID,
				"error", err,
			)
		} else {
			h.logger.ErrorContext(r.Context(), "certificate validation failed",
				"document_id", payload.DocumentID,
				"error", err,
			)
		}
		writeError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "certificate validated",
		"document_id", payload.DocumentID,
		"state", outcome.State,
	)
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) HandleFailedValidation(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")

	record, err := h.failed.FindByDocument(r.Context(), docID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type refreshRequest struct {
	PLN  string `json:"pln"`
	Date string `json:"date"`
}

type refreshResponse struct {
	Fetched  int `json:"fetched"`
	Retained int `json:"retained"`
}

// HandleRefreshLandings pulls landing data from the registry for one vessel
// and day, reconciles it against stored state, and persists what is new. The
// sales-note fetch this spawns runs detached and is not awaited here.
func (h *Handler) HandleRefreshLandings(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domerr.Wrap(err, domerr.CodeBadRequest, "invalid refresh payload"))
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, domerr.Wrap(err, domerr.CodeBadRequest, "invalid date"))
		return
	}
	if req.PLN == "" {
		writeError(w, domerr.New(domerr.CodeBadRequest, "pln is required"))
		return
	}

	result := h.fetcher.Fetch(r.Context(), req.PLN, date)
	retained, err := h.landings.Reconcile(r.Context(), req.PLN, date, result.Landings)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "landing reconciliation failed",
			"pln", req.PLN,
			"date", req.Date,
			"error", err,
		)
		writeError(w, err)
		return
	}
	h.landings.Persist(r.Context(), retained)

	h.logger.InfoContext(r.Context(), "landings refreshed",
		"pln", req.PLN,
		"date", req.Date,
		"fetched", len(result.Landings),
		"retained", len(retained),
	)
	writeJSON(w, http.StatusOK, refreshResponse{Fetched: len(result.Landings), Retained: len(retained)})
}

func (h *Handler) HandleListLandings(w http.ResponseWriter, r *http.Request) {
	pln := r.URL.Query().Get("pln")
	if pln == "" {
		writeError(w, domerr.New(domerr.CodeBadRequest, "pln is required"))
		return
	}
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, domerr.Wrap(err, domerr.CodeBadRequest, "invalid date"))
		return
	}

	from, to := landingmodels.DayWindow(date)
	landings, err := h.landingStore.Range(r.Context(), pln, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, landings)
}

// HandleHealth reports process liveness plus the reachability of attached
// backing services. Any failing check makes the whole endpoint unavailable.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	for _, c := range h.checks {
		if err := c.check(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "health check failed",
				"check", c.name,
				"error", err,
			)
			writeError(w, fmt.Errorf("%s: %w", c.name, sentinel.ErrUnavailable))
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.RFC3339, value)
}
