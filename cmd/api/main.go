package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prospecting_backend/internal/adapters/storage"
	"prospecting_backend/internal/events"
	apphttp "prospecting_backend/internal/http"
	"prospecting_backend/internal/http/router"
	"prospecting_backend/internal/integrations"
	"prospecting_backend/internal/lookups"
	"prospecting_backend/internal/scheduler"
	"prospecting_backend/platform/config"
	"prospecting_backend/platform/db"
	"prospecting_backend/platform/logger"
	"prospecting_backend/platform/metrics"
	"prospecting_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		applied, err := db.RunMigrations(ctx, pool)
		if err == nil && applied > 0 {
			log.Info("database migrations applied", "count", applied)
		}
		return err
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	events.SubscribeAuditLog(eventBus, log)

	var m *metrics.Metrics
	if cfg.IsMetricsEnabled() {
		m = metrics.New()
	}

	health := []apphttp.HealthChecker{db.NewPoolAdapter(pool)}

	deadlines, closeScheduler := initDeadlineScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
		if h, err := scheduler.NewRedisHealth(cfg); err == nil {
			defer func() { _ = h.Close() }()
			health = append(health, h)
		}
	}

	archive, archiveHealth := initCallbackArchive(ctx, cfg, log)
	if archiveHealth != nil {
		health = append(health, archiveHealth)
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// A nil *metrics.Metrics records nothing.
	integrationsModule, err := integrations.NewModule(pool, cfg, eventBus, m, val, log)
	if err != nil {
		log.Error("failed to initialize integrations module", "error", err)
		panic("failed to initialize integrations module: " + err.Error())
	}

	lookupDeps := lookups.Deps{
		Provider: integrationsModule.SignalHire(),
		Catalog:  integrationsModule.Executor().Catalog(),
		Recorder: m,
	}
	if deadlines != nil {
		lookupDeps.Scheduler = deadlines
	}
	if archive != nil {
		lookupDeps.Archive = archive
	}
	lookupsModule := lookups.NewModule(pool, cfg, lookupDeps, eventBus, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			integrationsModule,
			lookupsModule,
		},
	}
	if m != nil {
		app.Metrics = m.Handler()
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initDeadlineScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; lookups expire only through the periodic sweep")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize deadline scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initCallbackArchive(ctx context.Context, cfg config.ArchiveConfig, log *logger.Logger) (*storage.CallbackArchive, apphttp.HealthChecker) {
	if !cfg.IsArchiveEnabled() {
		log.Info("MINIO_ENDPOINT not configured; provider callbacks are not archived")
		return nil, nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinIOBucketCallbacks()
	archive := storage.NewCallbackArchive(storageSvc, bucket)
	if err := withRetry(ctx, log, "ensure callback bucket", 5, 2*time.Second, func() error {
		return archive.Prepare(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("callback archive initialized", "bucket", bucket)

	return archive, storage.NewBucketHealth(storageSvc, bucket)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
