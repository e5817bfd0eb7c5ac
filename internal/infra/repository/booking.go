package repository

import (
	"context"
	"time"

	"venue-booking/internal/domain/booking"
	"venue-booking/internal/infra"
	"venue-booking/internal/infra/db"
	"venue-booking/internal/infra/repository/converter"

	"github.com/google/uuid"
)

const bookingColumns = `
	id, event_name, event_type, to_char(event_date, 'YYYY-MM-DD'), slot_label, slot_minute,
	duration_hours, contact_name, contact_email, contact_phone, business_name,
	special_requests, payment_method, billable_hours, subtotal_cents, fee_cents,
	total_cents, status, calendar_event_id, confirmed_via, charge_id, last_error,
	created_at, updated_at, confirmed_at, cancelled_at`

type BookingRepository struct {
	db db.DBTX
}

func NewBookingRepository(db db.DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	row, err := converter.BookingToRow(b)
	if err != nil {
		return infra.WrapRepoErr("failed to encode booking", err, infra.KindDBFailure)
	}

	const stmt = `
INSERT INTO bookings (
	id, event_name, event_type, event_date, slot_label, slot_minute,
	duration_hours, contact_name, contact_email, contact_phone, business_name,
	special_requests, payment_method, billable_hours, subtotal_cents, fee_cents,
	total_cents, status, calendar_event_id, confirmed_via, charge_id, last_error,
	created_at, updated_at, confirmed_at, cancelled_at
) VALUES (
	$1, $2, $3, $4::text::date, $5, $6,
	$7, $8, $9, $10, $11,
	$12, $13, $14, $15, $16,
	$17, $18, $19, $20, $21, $22,
	$23, $24, $25, $26
)`

	_, err = r.db.Exec(ctx, stmt,
		row.ID, row.EventName, row.EventType, row.EventDate, row.SlotLabel, row.SlotMinute,
		row.DurationHours, row.ContactName, row.ContactEmail, row.ContactPhone, row.BusinessName,
		row.SpecialRequests, row.PaymentMethod, row.BillableHours, row.SubtotalCents, row.FeeCents,
		row.TotalCents, row.Status, row.CalendarEventID, row.ConfirmedVia, row.ChargeID, row.LastError,
		row.CreatedAt, row.UpdatedAt, row.ConfirmedAt, row.CancelledAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create booking", err)
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.findOne(ctx, `SELECT`+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *BookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.findOne(ctx, `SELECT`+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *BookingRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*booking.Booking, error) {
	var row converter.BookingRow
	if err := r.db.QueryRow(ctx, query, id).Scan(row.ScanTargets()...); err != nil {
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}

	b, err := converter.RowToBooking(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to decode booking", err, infra.KindDBFailure)
	}
	return b, nil
}

// Update persists the mutable lifecycle columns.
func (r *BookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	row, err := converter.BookingToRow(b)
	if err != nil {
		return infra.WrapRepoErr("failed to encode booking", err, infra.KindDBFailure)
	}

	const stmt = `
UPDATE bookings SET
	status = $2,
	calendar_event_id = $3,
	confirmed_via = $4,
	charge_id = $5,
	last_error = $6,
	updated_at = $7,
	confirmed_at = $8,
	cancelled_at = $9
WHERE id = $1`

	tag, err := r.db.Exec(ctx, stmt,
		row.ID, row.Status, row.CalendarEventID, row.ConfirmedVia, row.ChargeID,
		row.LastError, row.UpdatedAt, row.ConfirmedAt, row.CancelledAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update booking", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *BookingRepository) SetLastError(ctx context.Context, id uuid.UUID, msg string, at time.Time) error {
	const stmt = `UPDATE bookings SET last_error = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.db.Exec(ctx, stmt, id, msg, at)
	if err != nil {
		return infra.WrapRepoErr("failed to record booking error", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *BookingRepository) ListExpiredPending(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error) {
	const query = `
SELECT id FROM bookings
WHERE status = 'pending_payment' AND created_at < $1
ORDER BY created_at
LIMIT $2`

	rows, err := r.db.Query(ctx, query, createdBefore, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list expired bookings", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan expired booking", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate expired bookings", err)
	}
	return ids, nil
}
