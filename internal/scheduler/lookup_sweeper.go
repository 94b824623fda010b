package scheduler

import (
	"context"
	"time"

	"prospecting_backend/platform/logger"
)

const (
	defaultLookupSweepInterval = 5 * time.Minute
	defaultLookupExpiry        = time.Hour
)

// ExpirySweeper expires pending lookups last updated before a deadline.
type ExpirySweeper interface {
	SweepExpired(ctx context.Context, deadline time.Time) (int64, error)
}

// LookupSweeper periodically expires lookups whose callback never arrived.
// It backs up the per-lookup deadline tasks.
type LookupSweeper struct {
	sweeper  ExpirySweeper
	log      *logger.Logger
	interval time.Duration
	expiry   time.Duration
	now      func() time.Time
}

func NewLookupSweeper(sweeper ExpirySweeper, log *logger.Logger, interval, expiry time.Duration) *LookupSweeper {
	if interval <= 0 {
		interval = defaultLookupSweepInterval
	}
	if expiry <= 0 {
		expiry = defaultLookupExpiry
	}

	return &LookupSweeper{
		sweeper:  sweeper,
		log:      log,
		interval: interval,
		expiry:   expiry,
		now:      time.Now,
	}
}

func (s *LookupSweeper) Run(ctx context.Context) {
	if s == nil || s.sweeper == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *LookupSweeper) sweep(ctx context.Context) {
	expired, err := s.sweeper.SweepExpired(ctx, s.now().Add(-s.expiry))
	if err != nil {
		s.log.Warn("lookup expiry sweep failed", "error", err)
		return
	}

	if expired > 0 {
		s.log.Info("lookup expiry sweep expired stale lookups", "expired", expired)
	}
}
