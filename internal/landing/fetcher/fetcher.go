// Package fetcher selects the landing data source for a vessel, fetches with
// fallback, archives raw payloads, and spawns the detached sales-note fetch.
//
// Registry failures never escape this package: every source call is caught at
// the boundary, logged with vessel/date context, and degraded to an empty
// result. Callers must treat empty as "retry later", not "no catches".
package fetcher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"catchcert/internal/landing/archive"
	"catchcert/internal/landing/metrics"
	"catchcert/internal/landing/models"
	"catchcert/internal/refdata"
	"catchcert/internal/registry"
)

// over10Threshold splits the two source tiers on vessel length in metres.
const over10Threshold = 10.0

// Fetcher routes a (vessel, day) request to the right registry feed.
type Fetcher struct {
	vessels  refdata.Cache
	registry registry.Client
	archive  archive.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Fetcher)

func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

func New(vessels refdata.Cache, client registry.Client, archiveStore archive.Store, opts ...Option) *Fetcher {
	f := &Fetcher{
		vessels:  vessels,
		registry: client,
		archive:  archiveStore,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Result carries the mapped landings plus the handle of the detached
// sales-note fetch, so callers that need determinism (tests) can await it
// without the fetch ever blocking the landings path.
type Result struct {
	Landings   []models.Landing
	SalesNotes *Handle
}

// Fetch looks up the vessel, fetches from the tiered sources, archives the raw
// payload, and filters the mapped landings to the requested UTC calendar day.
//
// Tier selection:
//   - length >= 10m: landing declarations first, electronic logs exactly once
//     when the mapped declaration set is empty (daylight-saving overlap can
//     yield 0, 1 or 2 raw entries for one day).
//   - length < 10m: catch activity only; an absent document maps to an empty
//     slice, logged, with no archiving.
//
// An unknown vessel or one without a usable length short-circuits to empty
// with no source fetch. The sales-note fetch is spawned in every case.
func (f *Fetcher) Fetch(ctx context.Context, pln string, date time.Time) Result {
	handle := f.spawnSalesNoteFetch(ctx, pln, date)

	vessel, ok := f.vessels.VesselDetails(pln)
	if !ok || vessel.Length <= 0 {
		f.logger.InfoContext(ctx, "no usable vessel details, skipping landing fetch",
			"pln", pln,
			"date", date,
		)
		return Result{Landings: []models.Landing{}, SalesNotes: handle}
	}

	var landings []models.Landing
	if vessel.Length >= over10Threshold {
		landings = f.fetchOver10(ctx, pln, date)
	} else {
		landings = f.fetchUnder10(ctx, pln, date)
	}

	return Result{Landings: filterToDay(landings, date), SalesNotes: handle}
}

// fetchOver10 fetches declarations and falls back to electronic logs exactly
// once when the mapped declaration set is empty.
func (f *Fetcher) fetchOver10(ctx context.Context, pln string, date time.Time) []models.Landing {
	landings, raw := f.fetchSource(ctx, pln, date, registry.KindDeclaration)
	if len(landings) == 0 {
		if f.metrics != nil {
			f.metrics.SourceFallbacks.Inc()
		}
		landings, raw = f.fetchSource(ctx, pln, date, registry.KindELog)
	}
	f.archiveRaw(ctx, pln, date, models.KindLandings, raw)
	return landings
}

func (f *Fetcher) fetchSource(ctx context.Context, pln string, date time.Time, kind registry.DataKind) ([]models.Landing, []registry.RawLanding) {
	if f.metrics != nil {
		f.metrics.RegistryFetches.WithLabelValues(string(kind)).Inc()
	}
	raws, err := f.registry.LandingData(ctx, date, pln, kind)
	if err != nil {
		f.logSourceFailure(ctx, pln, date, string(kind), err)
		return nil, nil
	}

	var mapped []models.Landing
	switch kind {
	case registry.KindELog:
		mapped, err = registry.MapELogs(raws, f.vessels.ConversionFactor)
	default:
		mapped, err = registry.MapDeclarations(raws, f.vessels.ConversionFactor)
	}
	if err != nil {
		f.logSourceFailure(ctx, pln, date, string(kind), err)
		return nil, nil
	}
	return mapped, raws
}

func (f *Fetcher) fetchUnder10(ctx context.Context, pln string, date time.Time) []models.Landing {
	kind := string(models.SourceCatchActivity)
	if f.metrics != nil {
		f.metrics.RegistryFetches.WithLabelValues(kind).Inc()
	}
	raw, err := f.registry.CatchActivity(ctx, date, pln)
	if err != nil {
		f.logSourceFailure(ctx, pln, date, kind, err)
		return nil
	}
	if raw == nil {
		f.logger.InfoContext(ctx, "no catch activity reported",
			"pln", pln,
			"date", date,
		)
		return []models.Landing{}
	}

	landings, err := registry.MapCatchActivity(raw, f.vessels.ConversionFactor)
	if err != nil {
		f.logSourceFailure(ctx, pln, date, kind, err)
		return nil
	}
	f.archiveRaw(ctx, pln, date, models.KindLandings, raw)
	return landings
}

// archiveRaw stores the raw payload for audit. Awaited but non-fatal: a failed
// archive is logged and the landings still flow to the caller.
func (f *Fetcher) archiveRaw(ctx context.Context, pln string, date time.Time, kind models.RecordKind, payload any) {
	if isEmptyPayload(payload) {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		f.logger.WarnContext(ctx, "marshal raw payload failed", "pln", pln, "date", date, "error", err)
		return
	}
	record := models.ExtendedValidationRecord{
		PLN:  pln,
		Date: models.DayOf(date),
		Kind: kind,
		Raw:  raw,
	}
	if err := f.archive.Upsert(ctx, record); err != nil {
		f.logger.WarnContext(ctx, "raw payload archive failed",
			"pln", pln,
			"date", date,
			"kind", kind,
			"error", err,
		)
	}
}

func isEmptyPayload(payload any) bool {
	switch p := payload.(type) {
	case nil:
		return true
	case []registry.RawLanding:
		return len(p) == 0
	case *registry.RawCatchActivity:
		return p == nil
	}
	return false
}

func (f *Fetcher) logSourceFailure(ctx context.Context, pln string, date time.Time, source string, err error) {
	if f.metrics != nil {
		f.metrics.RegistryFailures.WithLabelValues(source).Inc()
	}
	f.logger.ErrorContext(ctx, "landing source fetch failed",
		"pln", pln,
		"date", date,
		"source", source,
		"error", err,
	)
}

func filterToDay(landings []models.Landing, date time.Time) []models.Landing {
	day := models.DayOf(date)
	out := make([]models.Landing, 0, len(landings))
	for _, landing := range landings {
		if landing.Day().Equal(day) {
			out = append(out, landing)
		}
	}
	return out
}
