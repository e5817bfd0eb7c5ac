package converter

import (
	"strconv"

	"venue-booking/internal/domain/booking"
	"venue-booking/internal/domain/schedule"
	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

var ErrCorruptRow = errs.New("corrupt booking row")

// BookingRow mirrors the bookings table column for column.
type BookingRow struct {
	ID              uuid.UUID
	EventName       string
	EventType       string
	EventDate       string
	SlotLabel       string
	SlotMinute      int32
	DurationHours   pgtype.Numeric
	ContactName     string
	ContactEmail    string
	ContactPhone    string
	BusinessName    string
	SpecialRequests string
	PaymentMethod   string
	BillableHours   pgtype.Numeric
	SubtotalCents   int64
	FeeCents        int64
	TotalCents      int64
	Status          string
	CalendarEventID pgtype.Text
	ConfirmedVia    pgtype.Text
	ChargeID        pgtype.Text
	LastError       pgtype.Text
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
	ConfirmedAt     pgtype.Timestamptz
	CancelledAt     pgtype.Timestamptz
}

// ScanTargets returns pointers in bookingColumns order.
func (r *BookingRow) ScanTargets() []any {
	return []any{
		&r.ID, &r.EventName, &r.EventType, &r.EventDate, &r.SlotLabel, &r.SlotMinute,
		&r.DurationHours, &r.ContactName, &r.ContactEmail, &r.ContactPhone, &r.BusinessName,
		&r.SpecialRequests, &r.PaymentMethod, &r.BillableHours, &r.SubtotalCents, &r.FeeCents,
		&r.TotalCents, &r.Status, &r.CalendarEventID, &r.ConfirmedVia, &r.ChargeID, &r.LastError,
		&r.CreatedAt, &r.UpdatedAt, &r.ConfirmedAt, &r.CancelledAt,
	}
}

func BookingToRow(b *booking.Booking) (BookingRow, error) {
	s := b.Snapshot()

	var duration, billable pgtype.Numeric
	if err := duration.Scan(formatHours(s.DurationHours)); err != nil {
		return BookingRow{}, errs.Wrap(err, "encode duration")
	}
	if err := billable.Scan(formatHours(s.BillableHours)); err != nil {
		return BookingRow{}, errs.Wrap(err, "encode billable hours")
	}

	return BookingRow{
		ID:              s.ID,
		EventName:       s.EventName,
		EventType:       s.EventType,
		EventDate:       s.Date.String(),
		SlotLabel:       s.Slot.Label(),
		SlotMinute:      int32(s.Slot.MinuteOfDay()),
		DurationHours:   duration,
		ContactName:     s.ContactName,
		ContactEmail:    s.ContactEmail,
		ContactPhone:    s.ContactPhone,
		BusinessName:    s.BusinessName,
		SpecialRequests: s.SpecialRequests,
		PaymentMethod:   string(s.PaymentMethod),
		BillableHours:   billable,
		SubtotalCents:   s.SubtotalCents,
		FeeCents:        s.FeeCents,
		TotalCents:      s.TotalCents,
		Status:          s.Status.String(),
		CalendarEventID: pgconv.NullableText(s.CalendarEventID),
		ConfirmedVia:    pgconv.NullableText(string(s.ConfirmedVia)),
		ChargeID:        pgconv.NullableText(s.ChargeID),
		LastError:       pgconv.NullableText(s.LastError),
		CreatedAt:       pgconv.TimeToPgtype(s.CreatedAt),
		UpdatedAt:       pgconv.TimeToPgtype(s.UpdatedAt),
		ConfirmedAt:     pgconv.TimePtrToPgtype(s.ConfirmedAt),
		CancelledAt:     pgconv.TimePtrToPgtype(s.CancelledAt),
	}, nil
}

func RowToBooking(r BookingRow) (*booking.Booking, error) {
	date, err := schedule.ParseDate(r.EventDate)
	if err != nil {
		return nil, errs.Mark(errs.Wrapf(err, "booking %s", r.ID), ErrCorruptRow)
	}
	slot, err := schedule.ParseSlot(r.SlotLabel)
	if err != nil {
		return nil, errs.Mark(errs.Wrapf(err, "booking %s", r.ID), ErrCorruptRow)
	}
	duration, err := pgconv.Float64FromNumeric(r.DurationHours)
	if err != nil {
		return nil, errs.Mark(errs.Wrapf(err, "booking %s duration", r.ID), ErrCorruptRow)
	}
	billable, err := pgconv.Float64FromNumeric(r.BillableHours)
	if err != nil {
		return nil, errs.Mark(errs.Wrapf(err, "booking %s billable hours", r.ID), ErrCorruptRow)
	}
	status := booking.Status(r.Status)
	if !status.IsValid() {
		return nil, errs.Mark(errs.Newf("booking %s has status %q", r.ID, r.Status), ErrCorruptRow)
	}

	return booking.Reconstruct(booking.Snapshot{
		ID:              r.ID,
		EventName:       r.EventName,
		EventType:       r.EventType,
		Date:            date,
		Slot:            slot,
		DurationHours:   duration,
		ContactName:     r.ContactName,
		ContactEmail:    r.ContactEmail,
		ContactPhone:    r.ContactPhone,
		BusinessName:    r.BusinessName,
		SpecialRequests: r.SpecialRequests,
		PaymentMethod:   booking.PaymentMethod(r.PaymentMethod),
		BillableHours:   billable,
		SubtotalCents:   r.SubtotalCents,
		FeeCents:        r.FeeCents,
		TotalCents:      r.TotalCents,
		Status:          status,
		CalendarEventID: pgconv.StringFromPgtype(r.CalendarEventID),
		ConfirmedVia:    booking.ConfirmationSource(pgconv.StringFromPgtype(r.ConfirmedVia)),
		ChargeID:        pgconv.StringFromPgtype(r.ChargeID),
		LastError:       pgconv.StringFromPgtype(r.LastError),
		CreatedAt:       r.CreatedAt.Time,
		UpdatedAt:       r.UpdatedAt.Time,
		ConfirmedAt:     pgconv.TimePtrFromPgtype(r.ConfirmedAt),
		CancelledAt:     pgconv.TimePtrFromPgtype(r.CancelledAt),
	}), nil
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}
