package booking

import (
	"strings"
	"time"

	"venue-booking/internal/domain/calendar"
	"venue-booking/internal/domain/schedule"
	"venue-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrMissingEventName   = errs.New("event name is required")
	ErrMissingContact     = errs.New("contact name and email are required")
	ErrInvalidEmail       = errs.New("invalid email")
	ErrInvalidDuration    = errs.New("invalid booking duration")
	ErrInvalidPayment     = errs.New("invalid payment method")
	ErrInvalidTransition  = errs.New("invalid booking status transition")
	ErrMissingCalendarRef = errs.New("confirmed booking requires a calendar event id")
)

type Booking struct {
	id              uuid.UUID
	eventName       string
	eventType       string
	date            schedule.Date
	slot            schedule.TimeSlot
	durationHours   float64
	contact         Contact
	specialRequests string
	paymentMethod   PaymentMethod
	quote           Quote
	status          Status
	calendarEventID string
	confirmedVia    ConfirmationSource
	chargeID        string
	lastError       string
	createdAt       time.Time
	updatedAt       time.Time
	confirmedAt     *time.Time
	cancelledAt     *time.Time
}

// Interval is [date+slot, date+slot+duration) in loc.
func (b *Booking) Interval(loc *time.Location) (start, end time.Time) {
	start = b.date.At(loc, b.slot.MinuteOfDay())
	return start, start.Add(HoursToDuration(b.durationHours))
}

func HoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}

// Confirm moves a pending booking to confirmed. eventID is the blocking
// calendar event created for it.
func (b *Booking) Confirm(eventID string, via ConfirmationSource, now time.Time) error {
	if b.status != StatusPendingPayment {
		return errs.Wrapf(ErrInvalidTransition, "%s -> %s", b.status, StatusConfirmed)
	}
	if strings.TrimSpace(eventID) == "" {
		return ErrMissingCalendarRef
	}
	b.status = StatusConfirmed
	b.calendarEventID = eventID
	b.confirmedVia = via
	b.lastError = ""
	b.confirmedAt = &now
	b.updatedAt = now
	return nil
}

func (b *Booking) Cancel(now time.Time) error {
	if b.status == StatusCancelled {
		return errs.Wrapf(ErrInvalidTransition, "%s -> %s", b.status, StatusCancelled)
	}
	b.status = StatusCancelled
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

func (b *Booking) RecordFailure(msg string, now time.Time) {
	b.lastError = msg
	b.updatedAt = now
}

func (b *Booking) AttachCharge(chargeID string, now time.Time) {
	b.chargeID = chargeID
	b.updatedAt = now
}

func (b *Booking) IsPending() bool   { return b.status == StatusPendingPayment }
func (b *Booking) IsConfirmed() bool { return b.status == StatusConfirmed }
func (b *Booking) IsCancelled() bool { return b.status == StatusCancelled }

func (b *Booking) IsExpired(now time.Time, ttl time.Duration) bool {
	return b.IsPending() && now.Sub(b.createdAt) > ttl
}

// Reservation renders the fields the calendar needs to describe this booking.
func (b *Booking) Reservation() calendar.Reservation {
	return calendar.Reservation{
		BookingID:       b.id.String(),
		Status:          string(StatusConfirmed),
		EventName:       b.eventName,
		EventType:       b.eventType,
		ContactName:     b.contact.Name(),
		Email:           b.contact.Email(),
		Phone:           b.contact.Phone(),
		BusinessName:    b.contact.BusinessName(),
		SpecialRequests: b.specialRequests,
		DurationHours:   b.durationHours,
		CreatedAt:       b.createdAt,
	}
}

func (b *Booking) ID() uuid.UUID                    { return b.id }
func (b *Booking) EventName() string                { return b.eventName }
func (b *Booking) EventType() string                { return b.eventType }
func (b *Booking) Date() schedule.Date              { return b.date }
func (b *Booking) Slot() schedule.TimeSlot          { return b.slot }
func (b *Booking) DurationHours() float64           { return b.durationHours }
func (b *Booking) Contact() Contact                 { return b.contact }
func (b *Booking) SpecialRequests() string          { return b.specialRequests }
func (b *Booking) PaymentMethod() PaymentMethod     { return b.paymentMethod }
func (b *Booking) Quote() Quote                     { return b.quote }
func (b *Booking) Status() Status                   { return b.status }
func (b *Booking) CalendarEventID() string          { return b.calendarEventID }
func (b *Booking) ConfirmedVia() ConfirmationSource { return b.confirmedVia }
func (b *Booking) ChargeID() string                 { return b.chargeID }
func (b *Booking) LastError() string                { return b.lastError }
func (b *Booking) CreatedAt() time.Time             { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time             { return b.updatedAt }
func (b *Booking) ConfirmedAt() *time.Time          { return b.confirmedAt }
func (b *Booking) CancelledAt() *time.Time          { return b.cancelledAt }
