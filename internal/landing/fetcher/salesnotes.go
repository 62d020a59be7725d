package fetcher

import (
	"context"
	"time"

	"catchcert/internal/landing/models"
	"catchcert/internal/registry"
)

// Handle observes a detached sales-note fetch. The fetch runs on its own
// goroutine with its own error boundary; failures are logged and recorded
// here, never surfaced to the landings caller. Consumers must not assume the
// sales-note record is available when the landings response returns.
type Handle struct {
	done chan struct{}
	err  error
}

// Done is closed when the background fetch has finished, success or not.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err reports the fetch outcome. Only meaningful after Done is closed.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the fetch completes or ctx expires.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return h.err
	}
}

// spawnSalesNoteFetch starts the detached fetch. The goroutine detaches from
// the caller's cancellation so its persistence may complete after the caller
// has already responded.
func (f *Fetcher) spawnSalesNoteFetch(ctx context.Context, pln string, date time.Time) *Handle {
	handle := &Handle{done: make(chan struct{})}
	bgCtx := context.WithoutCancel(ctx)

	go func() {
		defer close(handle.done)
		handle.err = f.fetchSalesNotes(bgCtx, pln, date)
		if handle.err != nil {
			f.logger.ErrorContext(bgCtx, "sales note fetch failed",
				"pln", pln,
				"date", date,
				"error", handle.err,
			)
		}
	}()

	return handle
}

func (f *Fetcher) fetchSalesNotes(ctx context.Context, pln string, date time.Time) error {
	if f.metrics != nil {
		f.metrics.RegistryFetches.WithLabelValues(string(registry.KindSalesNotes)).Inc()
	}
	raws, err := f.registry.LandingData(ctx, date, pln, registry.KindSalesNotes)
	if err != nil {
		if f.metrics != nil {
			f.metrics.RegistryFailures.WithLabelValues(string(registry.KindSalesNotes)).Inc()
		}
		return err
	}
	f.archiveRaw(ctx, pln, date, models.KindSalesNotes, raws)
	return nil
}
