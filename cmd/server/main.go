package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	docstore "catchcert/internal/document/store"
	"catchcert/internal/landing/archive"
	"catchcert/internal/landing/fetcher"
	landingmetrics "catchcert/internal/landing/metrics"
	landingsvc "catchcert/internal/landing/service"
	landingstore "catchcert/internal/landing/store"
	"catchcert/internal/platform/config"
	"catchcert/internal/platform/httpserver"
	"catchcert/internal/platform/logger"
	platformredis "catchcert/internal/platform/redis"
	"catchcert/internal/refdata"
	"catchcert/internal/registry"
	"catchcert/internal/reporting"
	httptransport "catchcert/internal/transport/http"
	"catchcert/internal/validation"
	"catchcert/internal/validation/blocking"
	"catchcert/internal/validation/cascade"
	validationmetrics "catchcert/internal/validation/metrics"
	"catchcert/internal/validation/preapproval"
	"catchcert/internal/validation/rules"
)

func main() {
	// Best-effort: absent .env just means env vars come from the process.
	_ = godotenv.Load()

	log := logger.New()

	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		log.Info("using postgres stores")
	} else {
		log.Info("using in-memory stores")
	}

	var landings landingstore.Store
	var archiveStore archive.Store
	var documents docstore.Store
	var failed docstore.FailedValidationStore
	if db != nil {
		landings = landingstore.NewPostgres(db)
		archiveStore = archive.NewPostgres(db)
		documents = docstore.NewPostgres(db)
		failed = docstore.NewFailedPostgres(db)
	} else {
		landings = landingstore.NewInMemory()
		archiveStore = archive.NewInMemory()
		documents = docstore.NewInMemory()
		failed = docstore.NewFailedInMemory()
	}

	rdb, err := platformredis.New(cfg.RedisURL, cfg.Redis)
	if err != nil {
		return err
	}
	var toggles blocking.ToggleStore
	var approvals preapproval.Store
	if rdb != nil {
		defer rdb.Close()
		toggles = blocking.NewRedisToggles(rdb.Client)
		approvals = preapproval.NewRedis(rdb.Client)
		log.Info("using redis-backed toggles and pre-approvals")
	} else {
		toggles = blocking.NewMemoryToggles(nil)
		approvals = preapproval.NewMemory()
	}

	var reporter reporting.Reporter
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := reporting.NewKafka(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		reporter = kafka
		log.Info("reporting landing updates to kafka", "topic", cfg.KafkaTopic)
	} else {
		reporter = reporting.NewMemory()
	}

	var vessels *refdata.Memory
	if cfg.VesselSeedFile != "" {
		vessels, err = refdata.NewFromSeedFile(cfg.VesselSeedFile)
		if err != nil {
			return err
		}
		log.Info("loaded vessel reference data",
			"file", cfg.VesselSeedFile,
			"vessels", len(vessels.VesselsIndex()),
		)
	} else {
		vessels = refdata.NewMemory(nil)
		log.Warn("no vessel seed configured, landing fetches will find no vessels", "env", "VESSEL_SEED_FILE")
	}
	registryClient := registry.NewHTTP(cfg.RegistryBaseURL, cfg.RegistryTimeout)

	lmetrics := landingmetrics.New()
	landingService := landingsvc.New(landings,
		landingsvc.WithLogger(log),
		landingsvc.WithMetrics(lmetrics),
	)
	landingFetcher := fetcher.New(vessels, registryClient, archiveStore,
		fetcher.WithLogger(log),
		fetcher.WithMetrics(lmetrics),
	)

	orchestrator := validation.New(
		vessels,
		documents,
		failed,
		landings,
		rules.New(),
		blocking.New(toggles, blocking.WithLogger(log)),
		approvals,
		cascade.New(documents, reporter, cascade.WithLogger(log)),
		validation.WithLogger(log),
		validation.WithMetrics(validationmetrics.New()),
	)

	var handlerOpts []httptransport.HandlerOption
	if db != nil {
		handlerOpts = append(handlerOpts, httptransport.WithHealthCheck("postgres", db.PingContext))
	}
	if rdb != nil {
		handlerOpts = append(handlerOpts, httptransport.WithHealthCheck("redis", rdb.Health))
	}

	handler := httptransport.NewHandler(orchestrator, landingFetcher, landingService, landings, failed, log, handlerOpts...)
	server := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
