package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prospecting_backend/internal/events"
	"prospecting_backend/internal/integrations"
	"prospecting_backend/internal/lookups"
	"prospecting_backend/internal/scheduler"
	"prospecting_backend/platform/config"
	"prospecting_backend/platform/db"
	"prospecting_backend/platform/logger"
	"prospecting_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	events.SubscribeAuditLog(eventBus, log)
	defer eventBus.Wait()

	val := validator.New()

	// Worker-side lookup wiring (no HTTP handlers required).
	integrationsModule, err := integrations.NewModule(pool, cfg, eventBus, nil, val, log)
	if err != nil {
		log.Error("failed to initialize integrations module", "error", err)
		panic("failed to initialize integrations module: " + err.Error())
	}
	lookupsModule := lookups.NewModule(pool, cfg, lookups.Deps{
		Provider: integrationsModule.SignalHire(),
		Catalog:  integrationsModule.Executor().Catalog(),
	}, eventBus, val, log)

	sweeper := scheduler.NewLookupSweeper(lookupsModule.Service(), log, cfg.GetLookupSweepInterval(), cfg.GetLookupExpiry())
	go sweeper.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, lookupsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
