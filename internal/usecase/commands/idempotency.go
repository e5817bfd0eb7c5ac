package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	reqdto "venue-booking/internal/handler/dto/request"
	"venue-booking/internal/infra"
	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/queries"
	"venue-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrIdempotencyInProgress  = errs.New("idempotency in progress")
	ErrIdempotencyKeyReused   = errs.New("idempotency key reused with a different request")
	ErrIdempotencyCheckFailed = errs.New("idempotency check failed")
)

const (
	submitEndpoint        = "POST /api/bookings"
	defaultIdempotencyTTL = 24 * time.Hour
)

// SubmitIdempotent runs Submit at most once per key. A repeated request
// replays the stored bookings in their current state.
func (c *bookingUseCaseImpl) SubmitIdempotent(ctx context.Context, req reqdto.CreateBookingRequest, key uuid.UUID) (*SubmitResult, error) {
	hash := requestHash(req)
	now := c.clock.Now()
	keys := c.uow.IdempotencyKeys()

	claimed, err := keys.TryInsert(ctx, key, submitEndpoint, hash, now, now.Add(c.idempotencyTTL()))
	if err != nil {
		return nil, errs.Mark(err, ErrIdempotencyCheckFailed)
	}
	if !claimed {
		return c.replay(ctx, key, hash)
	}

	result, err := c.submit(ctx, req, &key)
	if err != nil {
		if relErr := keys.Release(context.WithoutCancel(ctx), key, submitEndpoint); relErr != nil {
			c.logger.WarnContext(ctx, "Failed to release idempotency key",
				"idempotency_key", key.String(),
				"error", relErr.Error())
		}
		return nil, err
	}
	return result, nil
}

func (c *bookingUseCaseImpl) replay(ctx context.Context, key uuid.UUID, hash string) (*SubmitResult, error) {
	rec, err := c.uow.IdempotencyKeys().Get(ctx, key, submitEndpoint)
	if err != nil {
		// released by the first request between our insert and this read
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrIdempotencyInProgress
		}
		return nil, errs.Mark(err, ErrIdempotencyCheckFailed)
	}
	if rec.RequestHash != hash {
		return nil, errs.Wrapf(ErrIdempotencyKeyReused, "key %s", key)
	}
	if rec.Status != shared.IdempotencyCompleted {
		return nil, ErrIdempotencyInProgress
	}

	result := &SubmitResult{
		Bookings: make([]*queries.BookingView, 0, len(rec.BookingIDs)),
		Replayed: true,
	}
	for _, id := range rec.BookingIDs {
		b, err := c.load(ctx, id)
		if err != nil {
			return nil, err
		}
		result.Bookings = append(result.Bookings, queries.ToBookingView(b))
	}

	c.logger.InfoContext(ctx, "Replaying booking submission",
		"idempotency_key", key.String(),
		"bookings", len(result.Bookings))
	return result, nil
}

// PurgeIdempotencyKeys drops keys past their retention window.
func (c *bookingUseCaseImpl) PurgeIdempotencyKeys(ctx context.Context) (int64, error) {
	n, err := c.uow.IdempotencyKeys().DeleteExpired(ctx, c.clock.Now())
	if err != nil {
		return 0, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return n, nil
}

func (c *bookingUseCaseImpl) idempotencyTTL() time.Duration {
	if c.policy.IdempotencyTTL > 0 {
		return c.policy.IdempotencyTTL
	}
	return defaultIdempotencyTTL
}

func requestHash(req reqdto.CreateBookingRequest) string {
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
