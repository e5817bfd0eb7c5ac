package repository

import (
	"context"
	"time"

	"venue-booking/internal/infra"
	"venue-booking/internal/infra/db"
	"venue-booking/internal/pkg/pgconv"
	"venue-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type IdempotencyRepository struct {
	db db.DBTX
}

func NewIdempotencyRepository(db db.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) TryInsert(ctx context.Context, key uuid.UUID, endpoint, requestHash string, now, expiresAt time.Time) (bool, error) {
	const stmt = `
INSERT INTO idempotency_keys (key, endpoint, request_hash, status, expires_at, created_at, updated_at)
VALUES ($1, $2, $3, 'processing', $4, $5, $5)
ON CONFLICT (key, endpoint) DO UPDATE
SET request_hash = EXCLUDED.request_hash,
	status = 'processing',
	booking_ids = '{}',
	expires_at = EXCLUDED.expires_at,
	updated_at = EXCLUDED.updated_at
WHERE idempotency_keys.expires_at <= $5`

	tag, err := r.db.Exec(ctx, stmt, key, endpoint, requestHash, pgconv.TimeToPgtype(expiresAt), pgconv.TimeToPgtype(now))
	if err != nil {
		return false, infra.WrapRepoErr("failed to try insert idempotency key", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *IdempotencyRepository) Get(ctx context.Context, key uuid.UUID, endpoint string) (*shared.IdempotencyRecord, error) {
	const query = `
SELECT key, endpoint, request_hash, status, booking_ids::text[], expires_at
FROM idempotency_keys
WHERE key = $1 AND endpoint = $2`

	var (
		rec    shared.IdempotencyRecord
		status string
		ids    []string
	)
	err := r.db.QueryRow(ctx, query, key, endpoint).
		Scan(&rec.Key, &rec.Endpoint, &rec.RequestHash, &status, &ids, &rec.ExpiresAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}

	rec.Status = shared.IdempotencyStatus(status)
	rec.BookingIDs = make([]uuid.UUID, 0, len(ids))
	for _, s := range ids {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, infra.WrapRepoErr("invalid booking id on idempotency key", err, infra.KindDBFailure)
		}
		rec.BookingIDs = append(rec.BookingIDs, id)
	}
	return &rec, nil
}

func (r *IdempotencyRepository) Complete(ctx context.Context, key uuid.UUID, endpoint string, bookingIDs []uuid.UUID, at time.Time) error {
	const stmt = `
UPDATE idempotency_keys
SET status = 'completed', booking_ids = $3::text[]::uuid[], updated_at = $4
WHERE key = $1 AND endpoint = $2 AND status = 'processing'`

	ids := make([]string, len(bookingIDs))
	for i, id := range bookingIDs {
		ids[i] = id.String()
	}

	tag, err := r.db.Exec(ctx, stmt, key, endpoint, ids, pgconv.TimeToPgtype(at))
	if err != nil {
		return infra.WrapRepoErr("failed to update idempotency key status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("idempotency key not in processing state", nil, infra.KindConflict)
	}
	return nil
}

func (r *IdempotencyRepository) Release(ctx context.Context, key uuid.UUID, endpoint string) error {
	const stmt = `DELETE FROM idempotency_keys WHERE key = $1 AND endpoint = $2 AND status = 'processing'`

	if _, err := r.db.Exec(ctx, stmt, key, endpoint); err != nil {
		return infra.WrapRepoErr("failed to release idempotency key", err)
	}
	return nil
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at <= $1`, pgconv.TimeToPgtype(now))
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete expired idempotency keys", err)
	}
	return tag.RowsAffected(), nil
}
