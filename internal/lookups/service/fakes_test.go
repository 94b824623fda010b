package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"prospecting_backend/internal/events"
	"prospecting_backend/internal/integrations/external"
	"prospecting_backend/internal/integrations/signalhire"
	"prospecting_backend/internal/lookups/domain"

	"github.com/google/uuid"
)

// memRepo mirrors the conditional updates of the Postgres repository.
type memRepo struct {
	mu          sync.Mutex
	rows        map[uuid.UUID]domain.LookupRequest
	transitions []domain.Transition
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[uuid.UUID]domain.LookupRequest)}
}

func (m *memRepo) put(l domain.LookupRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[l.ID] = l
}

func (m *memRepo) row(id uuid.UUID) domain.LookupRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

func (m *memRepo) Create(_ context.Context, l domain.LookupRequest) error {
	if err := l.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.TenantID == l.TenantID && r.SubjectIdentifier == l.SubjectIdentifier && r.ExternalRequestID == l.ExternalRequestID {
			return domain.ErrDuplicate
		}
	}
	m.rows[l.ID] = l
	return nil
}

func (m *memRepo) Get(_ context.Context, tenantID, id uuid.UUID) (domain.LookupRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok || l.TenantID != tenantID {
		return domain.LookupRequest{}, domain.ErrNotFound
	}
	return l, nil
}

func (m *memRepo) Transitions(_ context.Context, _ uuid.UUID, id uuid.UUID) ([]domain.Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Transition
	for _, t := range m.transitions {
		if t.LookupID == id {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memRepo) ResolveCallback(_ context.Context, tenantID uuid.UUID, externalID, subject string, res domain.Resolution, now time.Time) (domain.LookupRequest, []domain.Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.rows {
		if l.TenantID != tenantID || l.ExternalRequestID != externalID || l.SubjectIdentifier != subject {
			continue
		}
		if l.Status.Terminal() {
			return l, nil, nil
		}
		var recorded []domain.Transition
		if l.Status == domain.StatusInitiated {
			t, err := domain.NewTransition(id, l.Status, domain.StatusCallbackReceived, now)
			if err != nil {
				return l, nil, err
			}
			recorded = append(recorded, t)
			l.Status = domain.StatusCallbackReceived
		}
		t, err := domain.NewTransition(id, l.Status, res.Status, now)
		if err != nil {
			return l, nil, err
		}
		recorded = append(recorded, t)
		l.Status = res.Status
		l.ResultPayload = res.Payload
		if res.ErrorMessage != "" {
			msg := res.ErrorMessage
			l.ErrorMessage = &msg
		}
		l.UpdatedAt = now
		m.rows[id] = l
		m.transitions = append(m.transitions, recorded...)
		return l, recorded, nil
	}
	return domain.LookupRequest{}, nil, domain.ErrNotFound
}

func (m *memRepo) ExpireBefore(_ context.Context, deadline time.Time, limit int, now time.Time) ([]domain.Expired, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Expired
	for id, l := range m.rows {
		if len(out) >= limit {
			break
		}
		if slices.Contains(domain.PendingStatuses, l.Status) && l.UpdatedAt.Before(deadline) {
			out = append(out, m.expireLocked(id, now))
		}
	}
	return out, nil
}

func (m *memRepo) ExpireOne(_ context.Context, id uuid.UUID, cutoff, now time.Time) (domain.Expired, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok || !slices.Contains(domain.PendingStatuses, l.Status) || !l.UpdatedAt.Before(cutoff) {
		return domain.Expired{}, false, nil
	}
	return m.expireLocked(id, now), true, nil
}

func (m *memRepo) expireLocked(id uuid.UUID, now time.Time) domain.Expired {
	l := m.rows[id]
	e := domain.Expired{LookupID: id, TenantID: l.TenantID, PreviousStatus: l.Status}
	m.transitions = append(m.transitions, domain.Transition{LookupID: id, From: l.Status, To: domain.StatusExpired, OccurredAt: now})
	l.Status = domain.StatusExpired
	l.UpdatedAt = now
	m.rows[id] = l
	return e
}

type stubProvider struct {
	mu        sync.Mutex
	requestID string
	err       *external.ServiceError
	calls     int
	lastItems []string
	lastURL   string
}

func (p *stubProvider) RequestLookup(_ context.Context, _ uuid.UUID, items []string, callbackURL string) external.Result[signalhire.LookupAccepted] {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.lastItems = items
	p.lastURL = callbackURL
	if p.err != nil {
		return external.Result[signalhire.LookupAccepted]{Err: p.err, Attempts: 1}
	}
	return external.Result[signalhire.LookupAccepted]{Value: signalhire.LookupAccepted{RequestID: p.requestID}, Attempts: 1}
}

type captureBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *captureBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *captureBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *captureBus) Subscribe(string, events.Handler) {}

func (b *captureBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.EventName()
	}
	return out
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) LookupTransition(to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[to]++
}

type deadlineCall struct {
	id    uuid.UUID
	runAt time.Time
}

type recordingDeadlines struct {
	calls []deadlineCall
}

func (d *recordingDeadlines) ScheduleLookupDeadline(_ context.Context, id uuid.UUID, runAt time.Time) error {
	d.calls = append(d.calls, deadlineCall{id, runAt})
	return nil
}
