package scheduler

import (
	"context"
	"fmt"

	"prospecting_backend/platform/config"
	"prospecting_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// LookupExpirer expires a lookup that is still pending past its deadline.
type LookupExpirer interface {
	ExpireIfPending(ctx context.Context, lookupID uuid.UUID) (bool, error)
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	lookups LookupExpirer
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, lookups LookupExpirer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetSchedulerConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	return newWorker(server, lookups, log), nil
}

func newWorker(server *asynq.Server, lookups LookupExpirer, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		lookups: lookups,
		log:     log,
	}
	mux.HandleFunc(TaskLookupDeadline, w.handleLookupDeadline)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleLookupDeadline(ctx context.Context, task *asynq.Task) error {
	lookupID, err := ParseLookupDeadlinePayload(task)
	if err != nil {
		// A malformed payload will never succeed.
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	expired, err := w.lookups.ExpireIfPending(ctx, lookupID)
	if err != nil {
		return err
	}
	if expired {
		w.log.Info("lookup expired at deadline", "lookup_id", lookupID)
	}
	return nil
}
