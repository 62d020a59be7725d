// Package blocking decides whether a set of failing rule codes blocks
// certificate completion. Each named rule has an operator-managed toggle;
// a missing toggle fails open so incomplete configuration can never block all
// issuance. Two codes block unconditionally regardless of configuration.
package blocking

import (
	"context"
	"log/slog"
)

// ToggleStore looks up whether a rule's blocking toggle is enabled.
type ToggleStore interface {
	IsBlocking(ctx context.Context, rule string) (bool, error)
}

// alwaysBlocking codes block regardless of toggle state.
var alwaysBlocking = map[string]struct{}{
	"noDataSubmitted": {},
	"noLicenceHolder": {},
}

// Evaluator applies the toggle policy to failure codes.
type Evaluator struct {
	toggles ToggleStore
	logger  *slog.Logger
}

type Option func(*Evaluator)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

func New(toggles ToggleStore, opts ...Option) *Evaluator {
	e := &Evaluator{
		toggles: toggles,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ShouldBlock reports whether any failing code blocks completion. Toggle
// lookup failures are logged and treated as "not blocking" (fail-open).
func (e *Evaluator) ShouldBlock(ctx context.Context, codes []string) bool {
	for _, code := range codes {
		if _, ok := alwaysBlocking[code]; ok {
			return true
		}
		enabled, err := e.toggles.IsBlocking(ctx, code)
		if err != nil {
			e.logger.WarnContext(ctx, "blocking toggle lookup failed, failing open",
				"rule", code,
				"error", err,
			)
			continue
		}
		if enabled {
			return true
		}
	}
	return false
}
