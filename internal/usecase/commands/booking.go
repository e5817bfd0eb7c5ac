package commands

//go:generate mockgen -source=booking.go -destination=../../../tests/mock/commands/booking.go -package=commandsmock

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"venue-booking/internal/domain/booking"
	"venue-booking/internal/domain/calendar"
	reqdto "venue-booking/internal/handler/dto/request"
	"venue-booking/internal/infra"
	"venue-booking/internal/pkg/clock"
	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/queries"
	"venue-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrBookingNotFound         = queries.ErrBookingNotFound
	ErrDomainValidation        = errs.New("domain validation error")
	ErrSlotUnavailable         = errs.New("slot no longer available")
	ErrPaymentDeclined         = errs.New("payment declined")
	ErrPaymentPending          = errs.New("payment pending")
	ErrPaymentUnavailable      = shared.ErrPaymentUnavailable
	ErrConfirmationNotRecorded = errs.New("calendar event created but confirmation not recorded")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

const (
	outboxKind = "booking_event"

	TopicCreated   = "booking.created"
	TopicConfirmed = "booking.confirmed"
	TopicCancelled = "booking.cancelled"
	TopicExpired   = "booking.expired"
)

type BookingPolicy struct {
	Currency           string
	PendingTTL         time.Duration
	ExpiryBatch        int
	RecheckBeforeWrite bool
	// FailOpen lets a confirmation proceed when the re-check read fails.
	FailOpen       bool
	LockTTL        time.Duration
	IdempotencyTTL time.Duration
}

type SubmitResult struct {
	Bookings []*queries.BookingView
	Failures []ConfirmFailure
	// Replayed is set when the result was stored under an earlier request
	// with the same idempotency key.
	Replayed bool
}

// ConfirmFailure is a pay-later booking that was stored but could not be confirmed.
type ConfirmFailure struct {
	BookingID uuid.UUID
	Err       error
}

type PaymentOutcome struct {
	Status  shared.PaymentStatus
	Booking *queries.BookingView
}

type BookingCommands interface {
	Submit(ctx context.Context, req reqdto.CreateBookingRequest) (*SubmitResult, error)
	SubmitIdempotent(ctx context.Context, req reqdto.CreateBookingRequest, key uuid.UUID) (*SubmitResult, error)
	Confirm(ctx context.Context, id uuid.UUID, via booking.ConfirmationSource) (*queries.BookingView, error)
	Pay(ctx context.Context, id uuid.UUID, cardToken string) (*PaymentOutcome, error)
	HandlePaymentEvent(ctx context.Context, chargeID string) (*PaymentOutcome, error)
	Cancel(ctx context.Context, id uuid.UUID) (*queries.BookingView, error)
	ExpirePending(ctx context.Context) (int, error)
	PurgeIdempotencyKeys(ctx context.Context) (int64, error)
}

// BookingEventPayload is the outbox body published for lifecycle changes.
type BookingEventPayload struct {
	BookingID       uuid.UUID `json:"booking_id"`
	Status          string    `json:"status"`
	EventName       string    `json:"event_name"`
	Date            string    `json:"date"`
	Slot            string    `json:"slot"`
	DurationHours   float64   `json:"duration_hours"`
	ContactEmail    string    `json:"contact_email"`
	TotalCents      int64     `json:"total_cents"`
	CalendarEventID string    `json:"calendar_event_id,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type bookingUseCaseImpl struct {
	uow      shared.UnitOfWork
	factory  *booking.Factory
	writer   *BookingEventWriter
	calendar shared.CalendarWriter
	reader   shared.CalendarReader
	resolver *calendar.Resolver
	locker   shared.SlotLocker
	payments shared.PaymentGateway
	policy   BookingPolicy
	clock    clock.Clock
	logger   *slog.Logger
}

func NewBookingUseCase(
	uow shared.UnitOfWork,
	factory *booking.Factory,
	writer *BookingEventWriter,
	calendarWriter shared.CalendarWriter,
	reader shared.CalendarReader,
	resolver *calendar.Resolver,
	locker shared.SlotLocker,
	payments shared.PaymentGateway,
	policy BookingPolicy,
	clock clock.Clock,
	logger *slog.Logger,
) BookingCommands {
	return &bookingUseCaseImpl{
		uow:      uow,
		factory:  factory,
		writer:   writer,
		calendar: calendarWriter,
		reader:   reader,
		resolver: resolver,
		locker:   locker,
		payments: payments,
		policy:   policy,
		clock:    clock,
		logger:   logger,
	}
}

func (c *bookingUseCaseImpl) Submit(ctx context.Context, req reqdto.CreateBookingRequest) (*SubmitResult, error) {
	return c.submit(ctx, req, nil)
}

// submit stores every item in one transaction. When key is set it is
// completed in that same transaction.
func (c *bookingUseCaseImpl) submit(ctx context.Context, req reqdto.CreateBookingRequest, key *uuid.UUID) (*SubmitResult, error) {
	drafts, err := req.ToDrafts()
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}

	created := make([]*booking.Booking, 0, len(drafts))
	for i, d := range drafts {
		b, defaulted, err := c.factory.Create(d)
		if err != nil {
			return nil, errs.Mark(errs.Wrapf(err, "item %d", i), ErrDomainValidation)
		}
		if defaulted {
			c.logger.WarnContext(ctx, "Booking item has no duration, using default",
				"item", i,
				"event_name", b.EventName(),
				"default_hours", b.DurationHours())
		}
		created = append(created, b)
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		for _, b := range created {
			if err := tx.Bookings().Create(ctx, b); err != nil {
				return err
			}
			if err := c.enqueue(ctx, tx.Outbox(), TopicCreated, b); err != nil {
				return err
			}
		}
		if key == nil {
			return nil
		}
		ids := make([]uuid.UUID, len(created))
		for i, b := range created {
			ids[i] = b.ID()
		}
		return tx.IdempotencyKeys().Complete(ctx, *key, submitEndpoint, ids, c.clock.Now())
	})
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	result := &SubmitResult{Bookings: make([]*queries.BookingView, 0, len(created))}
	for _, b := range created {
		if b.PaymentMethod() != booking.PaymentPayLater {
			result.Bookings = append(result.Bookings, queries.ToBookingView(b))
			continue
		}

		confirmed, err := c.confirm(ctx, b.ID(), booking.ConfirmedByPayLater)
		if err != nil {
			c.logger.ErrorContext(ctx, "Pay-later confirmation failed",
				"booking_id", b.ID().String(),
				"error", err.Error())
			result.Failures = append(result.Failures, ConfirmFailure{BookingID: b.ID(), Err: err})
			confirmed = c.reload(ctx, b)
		}
		result.Bookings = append(result.Bookings, queries.ToBookingView(confirmed))
	}

	return result, nil
}

func (c *bookingUseCaseImpl) Confirm(ctx context.Context, id uuid.UUID, via booking.ConfirmationSource) (*queries.BookingView, error) {
	b, err := c.confirm(ctx, id, via)
	if err != nil {
		return nil, err
	}
	return queries.ToBookingView(b), nil
}

// confirm is the only path into confirmed status. The calendar write happens
// while the booking row is locked, so a second caller observes the confirmed
// row and never writes a second event.
func (c *bookingUseCaseImpl) confirm(ctx context.Context, id uuid.UUID, via booking.ConfirmationSource) (*booking.Booking, error) {
	ctx, span := tracer.Start(ctx, "booking.confirm")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.id", id.String()),
		attribute.String("booking.confirmed_via", string(via)),
	)

	current, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.IsConfirmed() {
		return current, nil
	}

	release, err := c.locker.Acquire(ctx, lockKey(current), c.policy.LockTTL)
	if err != nil {
		return nil, err
	}
	defer release(context.WithoutCancel(ctx))

	var (
		result    *booking.Booking
		eventID   string
		failure   string
		confirmed bool
	)
	err = c.uow.WithinOnce(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByIDForUpdate(ctx, id)
		if err != nil {
			return mapNotFound(err)
		}
		if b.IsConfirmed() {
			result = b
			confirmed = true
			return nil
		}
		if !b.IsPending() {
			return errs.Wrapf(booking.ErrInvalidTransition, "booking %s is %s", id, b.Status())
		}

		if err := c.recheck(ctx, b); err != nil {
			failure = err.Error()
			return err
		}

		eventID, err = c.writer.Write(ctx, b)
		if err != nil {
			failure = err.Error()
			return err
		}

		if err := b.Confirm(eventID, via, c.clock.Now()); err != nil {
			return err
		}
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}
		if err := c.enqueue(ctx, tx.Outbox(), TopicConfirmed, b); err != nil {
			return err
		}
		result = b
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "confirmation failed")
		if eventID != "" {
			return nil, c.unrecorded(ctx, id, eventID, err)
		}
		if failure != "" {
			c.recordFailure(ctx, id, failure)
		}
		return nil, err
	}

	if confirmed {
		c.logger.InfoContext(ctx, "Booking already confirmed", "booking_id", id.String())
	} else {
		c.logger.InfoContext(ctx, "Booking confirmed",
			"booking_id", id.String(),
			"event_id", eventID,
			"confirmed_via", string(via))
	}
	return result, nil
}

// recheck reads the calendar for the full booked interval right before the
// write. It narrows the double-booking window but cannot close it.
func (c *bookingUseCaseImpl) recheck(ctx context.Context, b *booking.Booking) error {
	if !c.policy.RecheckBeforeWrite {
		return nil
	}

	start, end := b.Interval(c.resolver.Location())
	raws, err := c.reader.ListEvents(ctx, start, end)
	if err != nil {
		if c.policy.FailOpen {
			c.logger.ErrorContext(ctx, "Calendar unavailable during re-check, confirming without it",
				"booking_id", b.ID().String(),
				"error", err.Error())
			return nil
		}
		return errs.Mark(errs.Wrap(err, "re-check calendar"), shared.ErrCalendarUnavailable)
	}

	events, skipped := c.resolver.NormalizeAll(raws)
	for _, s := range skipped {
		c.logger.WarnContext(ctx, "Skipping malformed calendar event",
			"booking_id", b.ID().String(),
			"event_id", s.ID,
			"error", s.Err.Error())
	}
	if ev, ok := calendar.FirstConflict(events, start, end); ok {
		return errs.Wrapf(ErrSlotUnavailable, "%s %s overlaps event %s", b.Date(), b.Slot(), ev.ID)
	}
	return nil
}

// unrecorded handles a created calendar event whose confirmation did not
// persist. A failed COMMIT leaves the outcome unknown, so the event is kept.
func (c *bookingUseCaseImpl) unrecorded(ctx context.Context, id uuid.UUID, eventID string, cause error) error {
	ctx = context.WithoutCancel(ctx)

	if errs.Is(cause, shared.ErrTransactionCommit) {
		c.logger.ErrorContext(ctx, "Confirmation commit failed after calendar write, manual reconciliation required",
			"booking_id", id.String(),
			"event_id", eventID,
			"error", cause.Error())
		return errs.Mark(cause, ErrConfirmationNotRecorded)
	}

	if err := c.calendar.DeleteEvent(ctx, eventID); err != nil {
		c.logger.ErrorContext(ctx, "Failed to remove unrecorded calendar event, manual reconciliation required",
			"booking_id", id.String(),
			"event_id", eventID,
			"error", err.Error(),
			"cause", cause.Error())
	} else {
		c.logger.WarnContext(ctx, "Removed calendar event after confirmation rollback",
			"booking_id", id.String(),
			"event_id", eventID,
			"cause", cause.Error())
	}
	c.recordFailure(ctx, id, cause.Error())
	return errs.Mark(cause, ErrConfirmationNotRecorded)
}

func (c *bookingUseCaseImpl) Pay(ctx context.Context, id uuid.UUID, cardToken string) (*PaymentOutcome, error) {
	b, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsPending() {
		return nil, errs.Wrapf(booking.ErrInvalidTransition, "booking %s is %s", id, b.Status())
	}

	res, err := c.payments.Charge(ctx, shared.ChargeRequest{
		BookingID:   id,
		AmountCents: b.Quote().Total.Cents(),
		Currency:    c.policy.Currency,
		CardToken:   cardToken,
		Description: "Venue booking " + b.EventName() + " on " + b.Date().String(),
	})
	if err != nil {
		if errs.Is(err, shared.ErrPaymentUnavailable) {
			return nil, err
		}
		return nil, errs.Mark(errs.Wrap(err, "charge booking"), ErrPaymentUnavailable)
	}

	if err := c.attachCharge(ctx, id, res.ChargeID); err != nil {
		return nil, err
	}
	return c.applyPayment(ctx, id, res)
}

// HandlePaymentEvent re-reads the charge from the processor; webhook bodies are not trusted.
func (c *bookingUseCaseImpl) HandlePaymentEvent(ctx context.Context, chargeID string) (*PaymentOutcome, error) {
	res, err := c.payments.Retrieve(ctx, chargeID)
	if err != nil {
		if errs.Is(err, shared.ErrPaymentUnavailable) {
			return nil, err
		}
		return nil, errs.Mark(errs.Wrapf(err, "retrieve charge %s", chargeID), ErrPaymentUnavailable)
	}
	if res.BookingID == uuid.Nil {
		return nil, errs.Wrapf(ErrBookingNotFound, "charge %s has no booking reference", chargeID)
	}

	b, err := c.load(ctx, res.BookingID)
	if err != nil {
		return nil, err
	}
	if b.ChargeID() == "" {
		if err := c.attachCharge(ctx, b.ID(), res.ChargeID); err != nil {
			return nil, err
		}
	}
	if b.IsConfirmed() || b.IsCancelled() {
		c.logger.InfoContext(ctx, "Ignoring payment event for settled booking",
			"booking_id", b.ID().String(),
			"charge_id", res.ChargeID,
			"status", string(b.Status()))
		return &PaymentOutcome{Status: res.Status, Booking: queries.ToBookingView(b)}, nil
	}

	outcome, err := c.applyPayment(ctx, b.ID(), res)
	if err != nil && (errs.Is(err, ErrPaymentPending) || errs.Is(err, ErrPaymentDeclined)) {
		return &PaymentOutcome{Status: res.Status, Booking: queries.ToBookingView(c.reload(ctx, b))}, nil
	}
	return outcome, err
}

func (c *bookingUseCaseImpl) applyPayment(ctx context.Context, id uuid.UUID, res *shared.PaymentResult) (*PaymentOutcome, error) {
	switch res.Status {
	case shared.PaymentSucceeded:
		b, err := c.confirm(ctx, id, booking.ConfirmedByPayment)
		if err != nil {
			return nil, err
		}
		return &PaymentOutcome{Status: res.Status, Booking: queries.ToBookingView(b)}, nil

	case shared.PaymentPending:
		c.logger.InfoContext(ctx, "Payment pending",
			"booking_id", id.String(),
			"charge_id", res.ChargeID)
		return nil, errs.Wrapf(ErrPaymentPending, "charge %s", res.ChargeID)

	default:
		msg := "payment failed"
		if res.FailureMessage != "" {
			msg = "payment failed: " + res.FailureMessage
		}
		c.recordFailure(ctx, id, msg)
		c.logger.WarnContext(ctx, "Payment declined",
			"booking_id", id.String(),
			"charge_id", res.ChargeID,
			"reason", res.FailureMessage)
		return nil, errs.Wrapf(ErrPaymentDeclined, "charge %s: %s", res.ChargeID, res.FailureMessage)
	}
}

func (c *bookingUseCaseImpl) attachCharge(ctx context.Context, id uuid.UUID, chargeID string) error {
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByIDForUpdate(ctx, id)
		if err != nil {
			return mapNotFound(err)
		}
		b.AttachCharge(chargeID, c.clock.Now())
		return tx.Bookings().Update(ctx, b)
	})
	if err != nil && !errs.Is(err, ErrBookingNotFound) {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return err
}

// Cancel commits the cancellation before removing the calendar event. A
// failed removal leaves an orphan blocking event, never a confirmed booking
// without one.
func (c *bookingUseCaseImpl) Cancel(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	var cancelled *booking.Booking
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByIDForUpdate(ctx, id)
		if err != nil {
			return mapNotFound(err)
		}
		if err := b.Cancel(c.clock.Now()); err != nil {
			return err
		}
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}
		if err := c.enqueue(ctx, tx.Outbox(), TopicCancelled, b); err != nil {
			return err
		}
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if eventID := cancelled.CalendarEventID(); eventID != "" {
		if err := c.calendar.DeleteEvent(ctx, eventID); err != nil && !errs.Is(err, shared.ErrEventNotFound) {
			msg := "calendar event not removed: " + err.Error()
			c.logger.ErrorContext(ctx, "Failed to remove calendar event for cancelled booking",
				"booking_id", id.String(),
				"event_id", eventID,
				"error", err.Error())
			c.recordFailure(ctx, id, msg)
			cancelled.RecordFailure(msg, c.clock.Now())
		}
	}

	c.logger.InfoContext(ctx, "Booking cancelled", "booking_id", id.String())
	return queries.ToBookingView(cancelled), nil
}

// ExpirePending cancels pending bookings older than the configured TTL.
func (c *bookingUseCaseImpl) ExpirePending(ctx context.Context) (int, error) {
	now := c.clock.Now()
	ids, err := c.uow.Bookings().ListExpiredPending(ctx, now.Add(-c.policy.PendingTTL), c.policy.ExpiryBatch)
	if err != nil {
		return 0, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	expired := 0
	for _, id := range ids {
		var cancelled bool
		err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			cancelled = false
			b, err := tx.Bookings().FindByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if !b.IsExpired(now, c.policy.PendingTTL) {
				return nil
			}
			if err := b.Cancel(now); err != nil {
				return err
			}
			if err := tx.Bookings().Update(ctx, b); err != nil {
				return err
			}
			if err := c.enqueue(ctx, tx.Outbox(), TopicExpired, b); err != nil {
				return err
			}
			cancelled = true
			return nil
		})
		if err != nil {
			c.logger.WarnContext(ctx, "Failed to expire pending booking",
				"booking_id", id.String(),
				"error", err.Error())
			continue
		}
		if cancelled {
			expired++
			c.logger.InfoContext(ctx, "Pending booking expired", "booking_id", id.String())
		}
	}
	return expired, nil
}

func (c *bookingUseCaseImpl) load(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, err := c.uow.Bookings().FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return b, nil
}

// reload returns the stored state of b, or b itself when the read fails.
func (c *bookingUseCaseImpl) reload(ctx context.Context, b *booking.Booking) *booking.Booking {
	fresh, err := c.uow.Bookings().FindByID(context.WithoutCancel(ctx), b.ID())
	if err != nil {
		return b
	}
	return fresh
}

func (c *bookingUseCaseImpl) recordFailure(ctx context.Context, id uuid.UUID, msg string) {
	if err := c.uow.Bookings().SetLastError(context.WithoutCancel(ctx), id, msg, c.clock.Now()); err != nil {
		c.logger.WarnContext(ctx, "Failed to record booking error",
			"booking_id", id.String(),
			"error", err.Error())
	}
}

func (c *bookingUseCaseImpl) enqueue(ctx context.Context, outbox shared.OutboxRepository, topic string, b *booking.Booking) error {
	now := c.clock.Now()
	payload, err := json.Marshal(BookingEventPayload{
		BookingID:       b.ID(),
		Status:          string(b.Status()),
		EventName:       b.EventName(),
		Date:            b.Date().String(),
		Slot:            b.Slot().Label(),
		DurationHours:   b.DurationHours(),
		ContactEmail:    b.Contact().Email(),
		TotalCents:      b.Quote().Total.Cents(),
		CalendarEventID: b.CalendarEventID(),
		OccurredAt:      now,
	})
	if err != nil {
		return errs.Wrap(err, "marshal booking event")
	}
	return outbox.Enqueue(ctx, outboxKind, topic, payload, now)
}

func mapNotFound(err error) error {
	if infra.IsKind(err, infra.KindNotFound) {
		return errs.Mark(err, ErrBookingNotFound)
	}
	return err
}

func lockKey(b *booking.Booking) string {
	return "venue-booking:confirm:" + b.Date().String()
}
