package service

import (
	"log/slog"

	"catchcert/internal/landing/metrics"
	"catchcert/internal/landing/store"
)

// Service owns the write path for landings: reconciling freshly fetched data
// against the store and persisting the retained subset.
type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(st store.Store, opts ...Option) *Service {
	svc := &Service{
		store:  st,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}
