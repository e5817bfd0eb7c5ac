package queries

//go:generate mockgen -source=booking.go -destination=../../../tests/mock/queries/booking.go -package=queriesmock

import (
	"context"

	"venue-booking/internal/domain/booking"
	"venue-booking/internal/infra"
	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

var ErrBookingNotFound = errs.New("booking not found")

type BookingQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
}

type bookingQueriesImpl struct {
	uow shared.UnitOfWork
}

func NewBookingQueries(uow shared.UnitOfWork) BookingQueries {
	return &bookingQueriesImpl{uow: uow}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	b, err := q.uow.Bookings().FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, ErrBookingNotFound)
		}
		return nil, err
	}
	return ToBookingView(b), nil
}

func ToBookingView(b *booking.Booking) *BookingView {
	s := b.Snapshot()
	return &BookingView{
		ID:              s.ID,
		EventName:       s.EventName,
		EventType:       s.EventType,
		Date:            s.Date.String(),
		Slot:            s.Slot.Label(),
		DurationHours:   s.DurationHours,
		ContactName:     s.ContactName,
		Email:           s.ContactEmail,
		Phone:           s.ContactPhone,
		BusinessName:    s.BusinessName,
		SpecialRequests: s.SpecialRequests,
		PaymentMethod:   string(s.PaymentMethod),
		BillableHours:   s.BillableHours,
		SubtotalCents:   s.SubtotalCents,
		FeeCents:        s.FeeCents,
		TotalCents:      s.TotalCents,
		Status:          string(s.Status),
		CalendarEventID: s.CalendarEventID,
		ConfirmedVia:    string(s.ConfirmedVia),
		LastError:       s.LastError,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		ConfirmedAt:     s.ConfirmedAt,
		CancelledAt:     s.CancelledAt,
	}
}
