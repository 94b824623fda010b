package service

import (
	"context"
	"time"

	"prospecting_backend/internal/lookups/domain"

	"github.com/google/uuid"
)

const (
	DefaultPollTimeout  = 30 * time.Second
	DefaultPollInterval = 2 * time.Second
	MaxPollTimeout      = 2 * time.Minute
	minPollInterval     = 100 * time.Millisecond

	// OutcomeClientTimeout is reported when the caller stops waiting before the lookup resolves.
	// It is distinct from the expired status, which the lookup itself reached.
	OutcomeClientTimeout = "client_timeout"
)

// StatusReader is the read-only view the poller needs.
type StatusReader interface {
	GetStatus(ctx context.Context, tenantID, lookupID uuid.UUID) (domain.LookupRequest, error)
}

// PollOptions bound one Wait. Zero values take the defaults.
type PollOptions struct {
	Timeout  time.Duration
	Interval time.Duration
}

func (o PollOptions) normalized() PollOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultPollTimeout
	}
	if o.Timeout > MaxPollTimeout {
		o.Timeout = MaxPollTimeout
	}
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	if o.Interval < minPollInterval {
		o.Interval = minPollInterval
	}
	return o
}

// PollResult is the last snapshot seen and whether the wait gave up first.
type PollResult struct {
	Lookup   domain.LookupRequest
	TimedOut bool
	Polls    int
}

// Outcome is the lookup status, or OutcomeClientTimeout.
func (r PollResult) Outcome() string {
	if r.TimedOut {
		return OutcomeClientTimeout
	}
	return string(r.Lookup.Status)
}

// Poller waits for a lookup to reach a terminal status. It never writes.
type Poller struct {
	reader StatusReader
}

func NewPoller(reader StatusReader) *Poller {
	return &Poller{reader: reader}
}

// Wait reads the lookup every Interval until it is terminal or Timeout elapses.
// Cancelling ctx returns ctx's error; it has no effect on the lookup.
func (p *Poller) Wait(ctx context.Context, tenantID, lookupID uuid.UUID, opts PollOptions) (PollResult, error) {
	opts = opts.normalized()
	deadline := time.NewTimer(opts.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	var result PollResult
	for {
		lookup, err := p.reader.GetStatus(ctx, tenantID, lookupID)
		if err != nil {
			return result, err
		}
		result.Lookup = lookup
		result.Polls++
		if lookup.Status.Terminal() {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-deadline.C:
			result.TimedOut = true
			return result, nil
		case <-ticker.C:
		}
	}
}
