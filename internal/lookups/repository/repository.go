// Package repository stores lookups in Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prospecting_backend/internal/lookups/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

const lookupColumns = `id, organization_id, service, subject_identifier, external_request_id,
	status, result_payload, error_message, created_at, updated_at`

const insertLookupQuery = `
	INSERT INTO lookup_requests (` + lookupColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const getLookupQuery = `
	SELECT ` + lookupColumns + `
	FROM lookup_requests
	WHERE organization_id = $1 AND id = $2`

const lockForCallbackQuery = `
	SELECT ` + lookupColumns + `
	FROM lookup_requests
	WHERE organization_id = $1 AND external_request_id = $2 AND subject_identifier = $3
	FOR UPDATE`

const advanceLookupQuery = `
	UPDATE lookup_requests
	SET status = $2, result_payload = $3, error_message = $4, updated_at = $5
	WHERE id = $1 AND status = ANY($6)
	RETURNING ` + lookupColumns

const expireBeforeQuery = `
	WITH due AS (
		SELECT id, status
		FROM lookup_requests
		WHERE status = ANY($1) AND updated_at < $2
		ORDER BY updated_at
		LIMIT $3
		FOR UPDATE SKIP LOCKED
	)
	UPDATE lookup_requests l
	SET status = 'expired', updated_at = $4
	FROM due
	WHERE l.id = due.id
	RETURNING l.id, l.organization_id, due.status`

const expireOneQuery = `
	WITH due AS (
		SELECT id, status
		FROM lookup_requests
		WHERE id = $1 AND status = ANY($2) AND updated_at < $3
		FOR UPDATE
	)
	UPDATE lookup_requests l
	SET status = 'expired', updated_at = $4
	FROM due
	WHERE l.id = due.id
	RETURNING l.id, l.organization_id, due.status`

const listTransitionsQuery = `
	SELECT t.lookup_id, t.from_status, t.to_status, t.occurred_at
	FROM lookup_transitions t
	JOIN lookup_requests l ON l.id = t.lookup_id
	WHERE l.organization_id = $1 AND t.lookup_id = $2
	ORDER BY t.occurred_at, t.id`

var transitionColumns = []string{"lookup_id", "from_status", "to_status", "occurred_at"}

type PgRepository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Create(ctx context.Context, l domain.LookupRequest) error {
	if err := l.Validate(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, insertLookupQuery,
		l.ID, l.TenantID, l.Service, l.SubjectIdentifier, l.ExternalRequestID,
		l.Status, nullableJSON(l.ResultPayload), l.ErrorMessage, l.CreatedAt, l.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.ErrDuplicate
	}
	return err
}

func (r *PgRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (domain.LookupRequest, error) {
	l, err := scanLookup(r.pool.QueryRow(ctx, getLookupQuery, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LookupRequest{}, domain.ErrNotFound
	}
	return l, err
}

func (r *PgRepository) Transitions(ctx context.Context, tenantID, id uuid.UUID) ([]domain.Transition, error) {
	rows, err := r.pool.Query(ctx, listTransitionsQuery, tenantID, id)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Transition, error) {
		var t domain.Transition
		err := row.Scan(&t.LookupID, &t.From, &t.To, &t.OccurredAt)
		return t, err
	})
}

func (r *PgRepository) ResolveCallback(ctx context.Context, tenantID uuid.UUID, externalID, subject string, res domain.Resolution, now time.Time) (domain.LookupRequest, []domain.Transition, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.LookupRequest{}, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanLookup(tx.QueryRow(ctx, lockForCallbackQuery, tenantID, externalID, subject))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LookupRequest{}, nil, domain.ErrNotFound
	}
	if err != nil {
		return domain.LookupRequest{}, nil, err
	}
	if current.Status.Terminal() {
		return current, nil, tx.Commit(ctx)
	}

	var recorded []domain.Transition
	if current.Status == domain.StatusInitiated {
		current, recorded, err = advance(ctx, tx, current, domain.Resolution{Status: domain.StatusCallbackReceived}, now, recorded)
		if err != nil {
			return domain.LookupRequest{}, nil, err
		}
	}
	current, recorded, err = advance(ctx, tx, current, res, now, recorded)
	if err != nil {
		return domain.LookupRequest{}, nil, err
	}

	if err := insertTransitions(ctx, tx, recorded); err != nil {
		return domain.LookupRequest{}, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.LookupRequest{}, nil, err
	}
	return current, recorded, nil
}

func advance(ctx context.Context, tx pgx.Tx, current domain.LookupRequest, res domain.Resolution, now time.Time, recorded []domain.Transition) (domain.LookupRequest, []domain.Transition, error) {
	t, err := domain.NewTransition(current.ID, current.Status, res.Status, now)
	if err != nil {
		return current, recorded, err
	}

	var errMsg *string
	if res.ErrorMessage != "" {
		errMsg = &res.ErrorMessage
	}
	next, err := scanLookup(tx.QueryRow(ctx, advanceLookupQuery,
		current.ID, res.Status, nullableJSON(res.Payload), errMsg, now,
		domain.Strings(domain.PendingStatuses),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return current, recorded, fmt.Errorf("lookup %s left pending state concurrently: %w", current.ID, domain.ErrInvalidTransition)
	}
	if err != nil {
		return current, recorded, err
	}
	return next, append(recorded, t), nil
}

func (r *PgRepository) ExpireBefore(ctx context.Context, deadline time.Time, limit int, now time.Time) ([]domain.Expired, error) {
	return r.expire(ctx, expireBeforeQuery, now, domain.Strings(domain.PendingStatuses), deadline, limit, now)
}

func (r *PgRepository) ExpireOne(ctx context.Context, id uuid.UUID, cutoff, now time.Time) (domain.Expired, bool, error) {
	expired, err := r.expire(ctx, expireOneQuery, now, id, domain.Strings(domain.PendingStatuses), cutoff, now)
	if err != nil || len(expired) == 0 {
		return domain.Expired{}, false, err
	}
	return expired[0], true, nil
}

func (r *PgRepository) expire(ctx context.Context, query string, now time.Time, args ...any) ([]domain.Expired, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	expired, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Expired, error) {
		var e domain.Expired
		err := row.Scan(&e.LookupID, &e.TenantID, &e.PreviousStatus)
		return e, err
	})
	if err != nil {
		return nil, err
	}

	transitions := make([]domain.Transition, 0, len(expired))
	for _, e := range expired {
		t, err := domain.NewTransition(e.LookupID, e.PreviousStatus, domain.StatusExpired, now)
		if err != nil {
			return nil, err
		}
		transitions = append(transitions, t)
	}
	if err := insertTransitions(ctx, tx, transitions); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return expired, nil
}

func insertTransitions(ctx context.Context, tx pgx.Tx, transitions []domain.Transition) error {
	if len(transitions) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"lookup_transitions"}, transitionColumns,
		pgx.CopyFromSlice(len(transitions), func(i int) ([]any, error) {
			t := transitions[i]
			return []any{t.LookupID, string(t.From), string(t.To), t.OccurredAt}, nil
		}),
	)
	return err
}

func scanLookup(row pgx.Row) (domain.LookupRequest, error) {
	var l domain.LookupRequest
	var payload []byte
	err := row.Scan(
		&l.ID, &l.TenantID, &l.Service, &l.SubjectIdentifier, &l.ExternalRequestID,
		&l.Status, &payload, &l.ErrorMessage, &l.CreatedAt, &l.UpdatedAt,
	)
	if len(payload) > 0 {
		l.ResultPayload = payload
	}
	return l, err
}

// nullableJSON keeps an absent payload as SQL NULL rather than a JSON null.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
