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

type OutboxRepository struct {
	db db.DBTX
}

func NewOutboxRepository(db db.DBTX) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	const stmt = `
INSERT INTO notification_jobs (kind, topic, payload, run_at, status)
VALUES ($1, $2, $3, $4, 'queued')`

	if _, err := r.db.Exec(ctx, stmt, kind, topic, payload, pgconv.TimeToPgtype(runAt)); err != nil {
		return infra.WrapRepoErr("failed to create notification job", err)
	}
	return nil
}

// ClaimBatch must run inside a transaction for the row locks to hold.
func (r *OutboxRepository) ClaimBatch(ctx context.Context, now time.Time, limit int) ([]shared.OutboxJob, error) {
	const query = `
SELECT id, kind, topic, payload, run_at, attempts
FROM notification_jobs
WHERE status = 'queued' AND run_at <= $1
ORDER BY run_at
LIMIT $2
FOR UPDATE SKIP LOCKED`

	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim notification jobs", err)
	}
	defer rows.Close()

	var jobs []shared.OutboxJob
	for rows.Next() {
		var j shared.OutboxJob
		var attempts int32
		if err := rows.Scan(&j.ID, &j.Kind, &j.Topic, &j.Payload, &j.RunAt, &attempts); err != nil {
			return nil, infra.WrapRepoErr("failed to scan notification job", err)
		}
		j.Attempts = int(attempts)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate notification jobs", err)
	}
	return jobs, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	const stmt = `
UPDATE notification_jobs
SET status = 'sent', attempts = attempts + 1, last_error = NULL, updated_at = $2
WHERE id = $1`

	if _, err := r.db.Exec(ctx, stmt, id, at); err != nil {
		return infra.WrapRepoErr("failed to update notification job status", err)
	}
	return nil
}

// MarkFailed requeues the job at nextRunAt until maxAttempts is reached.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string, nextRunAt time.Time, maxAttempts int) error {
	const stmt = `
UPDATE notification_jobs
SET attempts = attempts + 1,
	status = CASE WHEN attempts + 1 >= $4 THEN 'failed' ELSE 'queued' END,
	last_error = $2,
	run_at = $3,
	updated_at = NOW()
WHERE id = $1`

	if _, err := r.db.Exec(ctx, stmt, id, lastError, nextRunAt, maxAttempts); err != nil {
		return infra.WrapRepoErr("failed to update notification job status", err)
	}
	return nil
}
