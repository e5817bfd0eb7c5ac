package shared

//go:generate mockgen -source=uow.go -destination=../../../tests/mock/shared/uow.go -package=sharedmock

import (
	"context"
	"time"

	"venue-booking/internal/domain/booking"
	"venue-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

// ErrTransactionCommit marks a failed COMMIT. The outcome of the
// transaction is unknown to the caller.
var ErrTransactionCommit = errs.New("failed to commit transaction")

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithinOnce: Single attempt transaction for work with non-idempotent side effects
	WithinOnce(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Bookings: Repository bound to the pool for single statement operations
	Bookings() BookingRepository
	// Outbox: Outbox repository bound to the pool
	Outbox() OutboxRepository
	// IdempotencyKeys: Key store bound to the pool, claims commit on their own
	IdempotencyKeys() IdempotencyRepository
}

type Tx interface {
	Bookings() BookingRepository
	Outbox() OutboxRepository
	IdempotencyKeys() IdempotencyRepository
}

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	Update(ctx context.Context, b *booking.Booking) error
	SetLastError(ctx context.Context, id uuid.UUID, msg string, at time.Time) error
	ListExpiredPending(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error)
}

type OutboxJob struct {
	ID       uuid.UUID
	Kind     string
	Topic    string
	Payload  []byte
	RunAt    time.Time
	Attempts int
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
	// ClaimBatch returns due jobs locked with SKIP LOCKED.
	ClaimBatch(ctx context.Context, now time.Time, limit int) ([]OutboxJob, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string, nextRunAt time.Time, maxAttempts int) error
}

type IdempotencyStatus string

const (
	IdempotencyProcessing IdempotencyStatus = "processing"
	IdempotencyCompleted  IdempotencyStatus = "completed"
)

type IdempotencyRecord struct {
	Key         uuid.UUID
	Endpoint    string
	RequestHash string
	Status      IdempotencyStatus
	BookingIDs  []uuid.UUID
	ExpiresAt   time.Time
}

type IdempotencyRepository interface {
	// TryInsert claims key for endpoint. It reports false when a live claim
	// already exists; an expired claim is taken over.
	TryInsert(ctx context.Context, key uuid.UUID, endpoint, requestHash string, now, expiresAt time.Time) (bool, error)
	Get(ctx context.Context, key uuid.UUID, endpoint string) (*IdempotencyRecord, error)
	Complete(ctx context.Context, key uuid.UUID, endpoint string, bookingIDs []uuid.UUID, at time.Time) error
	// Release drops a claim that is still processing so the client can retry.
	Release(ctx context.Context, key uuid.UUID, endpoint string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
