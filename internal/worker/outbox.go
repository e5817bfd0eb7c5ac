package worker

import (
	"context"
	"log/slog"
	"time"

	"venue-booking/internal/pkg/clock"
	"venue-booking/internal/usecase/shared"
)

type OutboxPolicy struct {
	BatchSize   int
	MaxAttempts int
	// Backoff is multiplied by the attempt count for the next retry.
	Backoff time.Duration
}

// OutboxRelay publishes queued booking events to the message broker.
type OutboxRelay struct {
	uow       shared.UnitOfWork
	publisher shared.EventPublisher
	policy    OutboxPolicy
	clock     clock.Clock
	logger    *slog.Logger
}

func NewOutboxRelay(uow shared.UnitOfWork, publisher shared.EventPublisher, policy OutboxPolicy, clock clock.Clock, logger *slog.Logger) *OutboxRelay {
	return &OutboxRelay{
		uow:       uow,
		publisher: publisher,
		policy:    policy,
		clock:     clock,
		logger:    logger,
	}
}

// RunOnce drains one batch. Claimed rows stay locked until the batch commits,
// so concurrent relays never publish the same job.
func (r *OutboxRelay) RunOnce(ctx context.Context) (sent, failed int, err error) {
	err = r.uow.WithinOnce(ctx, func(ctx context.Context, tx shared.Tx) error {
		sent, failed = 0, 0
		now := r.clock.Now()
		jobs, err := tx.Outbox().ClaimBatch(ctx, now, r.policy.BatchSize)
		if err != nil {
			return err
		}

		for _, job := range jobs {
			if pubErr := r.publisher.Publish(ctx, job.Topic, job.Payload); pubErr != nil {
				next := now.Add(r.policy.Backoff * time.Duration(job.Attempts+1))
				if err := tx.Outbox().MarkFailed(ctx, job.ID, pubErr.Error(), next, r.policy.MaxAttempts); err != nil {
					return err
				}
				failed++
				r.logger.WarnContext(ctx, "Failed to publish booking event",
					"job_id", job.ID.String(),
					"topic", job.Topic,
					"attempt", job.Attempts+1,
					"error", pubErr.Error())
				continue
			}
			if err := tx.Outbox().MarkSent(ctx, job.ID, now); err != nil {
				return err
			}
			sent++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	if sent+failed > 0 {
		r.logger.InfoContext(ctx, "Outbox batch relayed", "sent", sent, "failed", failed)
	}
	return sent, failed, nil
}

func (r *OutboxRelay) Tick(ctx context.Context) error {
	_, _, err := r.RunOnce(ctx)
	return err
}
