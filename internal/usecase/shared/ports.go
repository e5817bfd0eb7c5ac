package shared

//go:generate mockgen -source=ports.go -destination=../../../tests/mock/shared/ports.go -package=sharedmock

import (
	"context"
	"time"

	"venue-booking/internal/domain/calendar"
	"venue-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrCalendarUnavailable = errs.New("calendar unavailable")
	ErrCalendarWriteFailed = errs.New("calendar write failed")
	ErrEventNotFound       = errs.New("calendar event not found")
	ErrLockHeld            = errs.New("lock held by another confirmation")
	ErrPaymentUnavailable  = errs.New("payment processing unavailable")
)

// CalendarReader lists raw events overlapping [from, to).
type CalendarReader interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]calendar.RawEvent, error)
}

// CalendarWriter persists blocking events. CreateEvent is not idempotent.
type CalendarWriter interface {
	CreateEvent(ctx context.Context, ev calendar.BlockingEvent) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentPending   PaymentStatus = "pending"
)

type ChargeRequest struct {
	BookingID   uuid.UUID
	AmountCents int64
	Currency    string
	CardToken   string
	Description string
}

type PaymentResult struct {
	ChargeID       string
	Status         PaymentStatus
	BookingID      uuid.UUID
	FailureMessage string
}

type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*PaymentResult, error)
	Retrieve(ctx context.Context, chargeID string) (*PaymentResult, error)
}

// SlotLocker serializes confirmations for the same key.
type SlotLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context), err error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, body []byte) error
}
