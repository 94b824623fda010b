// Package service implements the callback-driven lookup state machine.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prospecting_backend/internal/events"
	"prospecting_backend/internal/integrations/external"
	"prospecting_backend/internal/integrations/signalhire"
	"prospecting_backend/internal/lookups/domain"
	"prospecting_backend/internal/lookups/repository"
	"prospecting_backend/platform/apperr"
	"prospecting_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	// sweepBatch bounds one expiry statement; SweepExpired loops until a batch comes back short.
	sweepBatch = 500

	// deadlineGrace delays the per-lookup expiry task past the sweep cutoff.
	deadlineGrace = time.Minute
)

// LookupProvider is the slice of the SignalHire adapter the state machine drives.
type LookupProvider interface {
	RequestLookup(ctx context.Context, tenantID uuid.UUID, items []string, callbackURL string) external.Result[signalhire.LookupAccepted]
}

// DeadlineScheduler enqueues a task that expires one lookup if its callback never arrives.
type DeadlineScheduler interface {
	ScheduleLookupDeadline(ctx context.Context, lookupID uuid.UUID, runAt time.Time) error
}

// TransitionRecorder counts transitions; *metrics.Metrics implements it.
type TransitionRecorder interface {
	LookupTransition(to string)
}

// CallbackOutcome summarizes one webhook delivery.
type CallbackOutcome struct {
	Resolved   int `json:"resolved"`
	Duplicates int `json:"duplicates"`
	Unmatched  int `json:"unmatched"`
}

type Service struct {
	repo      repository.Repository
	provider  LookupProvider
	signer    *CallbackSigner
	deadlines DeadlineScheduler
	recorder  TransitionRecorder
	bus       events.Bus
	log       *logger.Logger
	expiry    time.Duration
	now       func() time.Time
}

type Option func(*Service)

// WithDeadlineScheduler schedules a per-lookup expiry task on initiate.
func WithDeadlineScheduler(d DeadlineScheduler) Option { return func(s *Service) { s.deadlines = d } }

func WithRecorder(r TransitionRecorder) Option { return func(s *Service) { s.recorder = r } }

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func New(repo repository.Repository, provider LookupProvider, signer *CallbackSigner, bus events.Bus, log *logger.Logger, expiry time.Duration, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		provider: provider,
		signer:   signer,
		bus:      bus,
		log:      log,
		expiry:   expiry,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Expiry is how long a lookup may stay pending.
func (s *Service) Expiry() time.Duration { return s.expiry }

// CallbackURL is the signed webhook URL for tenantID.
func (s *Service) CallbackURL(tenantID uuid.UUID) string {
	return s.signer.URL(tenantID)
}

// Initiate asks the provider for a lookup and persists it as initiated.
// Provider failures are returned as *external.ServiceError; a missing credential
// fails with the not-configured category before any network call.
func (s *Service) Initiate(ctx context.Context, tenantID uuid.UUID, subject, callbackURL string) (domain.LookupRequest, error) {
	normalized, err := domain.NormalizeSubject(subject)
	if err != nil {
		return domain.LookupRequest{}, apperr.Validation(err.Error())
	}
	if callbackURL == "" {
		callbackURL = s.CallbackURL(tenantID)
	}

	res := s.provider.RequestLookup(ctx, tenantID, []string{normalized.Value}, callbackURL)
	if !res.OK() {
		return domain.LookupRequest{}, res.Err
	}

	now := s.now().UTC()
	lookup := domain.LookupRequest{
		ID:                uuid.New(),
		TenantID:          tenantID,
		Service:           string(external.ServiceSignalHire),
		SubjectIdentifier: normalized.Value,
		ExternalRequestID: res.Value.RequestID,
		Status:            domain.StatusInitiated,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, lookup); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return domain.LookupRequest{}, apperr.Conflict("lookup already exists for this provider request")
		}
		s.log.DatabaseError("lookups.Create", err)
		return domain.LookupRequest{}, apperr.Unavailable("failed to save lookup", err)
	}

	s.record(ctx, lookup.ID, "", domain.StatusInitiated)
	s.publish(ctx, events.LookupInitiated{
		BaseEvent:         events.NewBaseEvent(),
		LookupID:          lookup.ID,
		TenantID:          tenantID,
		Service:           lookup.Service,
		ExternalRequestID: lookup.ExternalRequestID,
	})
	s.scheduleDeadline(ctx, lookup)
	return lookup, nil
}

// HandleCallback applies a provider delivery. Items for lookups that are already
// terminal are counted as duplicates and leave the stored row untouched.
func (s *Service) HandleCallback(ctx context.Context, tenantID uuid.UUID, cb signalhire.Callback) (CallbackOutcome, error) {
	var out CallbackOutcome
	log := s.log.WithContext(ctx)

	for _, item := range cb.Items {
		subject := item.Item
		if normalized, err := domain.NormalizeSubject(item.Item); err == nil {
			subject = normalized.Value
		}

		resolution := domain.Failed(item.FailureReason())
		if item.Succeeded() {
			resolution = domain.Completed(item.Candidate)
		}

		lookup, transitions, err := s.repo.ResolveCallback(ctx, tenantID, cb.RequestID, subject, resolution, s.now().UTC())
		switch {
		case errors.Is(err, domain.ErrNotFound):
			out.Unmatched++
			log.Warn("callback for unknown lookup", "request_id", cb.RequestID, "item_status", item.Status)
			continue
		case err != nil:
			s.log.DatabaseError("lookups.ResolveCallback", err)
			return out, fmt.Errorf("resolve callback %s: %w", cb.RequestID, err)
		}

		if len(transitions) == 0 {
			out.Duplicates++
			continue
		}
		out.Resolved++
		for _, t := range transitions {
			s.record(ctx, t.LookupID, t.From, t.To)
		}
		s.publish(ctx, events.LookupResolved{
			BaseEvent: events.NewBaseEvent(),
			LookupID:  lookup.ID,
			TenantID:  tenantID,
			Status:    string(lookup.Status),
		})
	}
	return out, nil
}

// GetStatus returns the current snapshot without side effects.
func (s *Service) GetStatus(ctx context.Context, tenantID, lookupID uuid.UUID) (domain.LookupRequest, error) {
	lookup, err := s.repo.Get(ctx, tenantID, lookupID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.LookupRequest{}, apperr.NotFound("lookup not found")
	}
	if err != nil {
		return domain.LookupRequest{}, apperr.Unavailable("failed to load lookup", err)
	}
	return lookup, nil
}

// History returns the recorded transitions of a lookup.
func (s *Service) History(ctx context.Context, tenantID, lookupID uuid.UUID) ([]domain.Transition, error) {
	if _, err := s.GetStatus(ctx, tenantID, lookupID); err != nil {
		return nil, err
	}
	transitions, err := s.repo.Transitions(ctx, tenantID, lookupID)
	if err != nil {
		return nil, apperr.Unavailable("failed to load lookup history", err)
	}
	return transitions, nil
}

// SweepExpired expires every pending lookup last updated before deadline.
func (s *Service) SweepExpired(ctx context.Context, deadline time.Time) (int64, error) {
	var total int64
	for {
		expired, err := s.repo.ExpireBefore(ctx, deadline, sweepBatch, s.now().UTC())
		if err != nil {
			return total, fmt.Errorf("expire lookups: %w", err)
		}
		for _, e := range expired {
			s.expired(ctx, e)
		}
		total += int64(len(expired))
		if len(expired) < sweepBatch {
			return total, nil
		}
	}
}

// ExpireIfPending expires one lookup when it has been pending longer than the expiry.
// It backs the per-lookup deadline task and is a no-op for resolved lookups.
func (s *Service) ExpireIfPending(ctx context.Context, lookupID uuid.UUID) (bool, error) {
	now := s.now().UTC()
	e, ok, err := s.repo.ExpireOne(ctx, lookupID, now.Add(-s.expiry), now)
	if err != nil {
		return false, fmt.Errorf("expire lookup %s: %w", lookupID, err)
	}
	if ok {
		s.expired(ctx, e)
	}
	return ok, nil
}

func (s *Service) expired(ctx context.Context, e domain.Expired) {
	s.record(ctx, e.LookupID, e.PreviousStatus, domain.StatusExpired)
	s.publish(ctx, events.LookupExpired{
		BaseEvent:      events.NewBaseEvent(),
		LookupID:       e.LookupID,
		TenantID:       e.TenantID,
		PreviousStatus: string(e.PreviousStatus),
	})
}

func (s *Service) scheduleDeadline(ctx context.Context, lookup domain.LookupRequest) {
	if s.deadlines == nil {
		return
	}
	runAt := lookup.CreatedAt.Add(s.expiry + deadlineGrace)
	if err := s.deadlines.ScheduleLookupDeadline(ctx, lookup.ID, runAt); err != nil {
		// The periodic sweep still expires the lookup.
		s.log.WithContext(ctx).Warn("failed to schedule lookup deadline", "lookup_id", lookup.ID, "error", err)
	}
}

func (s *Service) record(ctx context.Context, id uuid.UUID, from, to domain.Status) {
	s.log.WithContext(ctx).LookupTransition(id.String(), string(from), string(to))
	if s.recorder != nil {
		s.recorder.LookupTransition(string(to))
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}
