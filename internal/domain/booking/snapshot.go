package booking

import (
	"time"

	"venue-booking/internal/domain/schedule"

	"github.com/google/uuid"
)

// Snapshot is the flat persistence form of a Booking.
type Snapshot struct {
	ID              uuid.UUID
	EventName       string
	EventType       string
	Date            schedule.Date
	Slot            schedule.TimeSlot
	DurationHours   float64
	ContactName     string
	ContactEmail    string
	ContactPhone    string
	BusinessName    string
	SpecialRequests string
	PaymentMethod   PaymentMethod
	BillableHours   float64
	SubtotalCents   int64
	FeeCents        int64
	TotalCents      int64
	Status          Status
	CalendarEventID string
	ConfirmedVia    ConfirmationSource
	ChargeID        string
	LastError       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ConfirmedAt     *time.Time
	CancelledAt     *time.Time
}

func (b *Booking) Snapshot() Snapshot {
	return Snapshot{
		ID:              b.id,
		EventName:       b.eventName,
		EventType:       b.eventType,
		Date:            b.date,
		Slot:            b.slot,
		DurationHours:   b.durationHours,
		ContactName:     b.contact.name,
		ContactEmail:    b.contact.email,
		ContactPhone:    b.contact.phone,
		BusinessName:    b.contact.businessName,
		SpecialRequests: b.specialRequests,
		PaymentMethod:   b.paymentMethod,
		BillableHours:   b.quote.BillableHours,
		SubtotalCents:   b.quote.Subtotal.Cents(),
		FeeCents:        b.quote.Fee.Cents(),
		TotalCents:      b.quote.Total.Cents(),
		Status:          b.status,
		CalendarEventID: b.calendarEventID,
		ConfirmedVia:    b.confirmedVia,
		ChargeID:        b.chargeID,
		LastError:       b.lastError,
		CreatedAt:       b.createdAt,
		UpdatedAt:       b.updatedAt,
		ConfirmedAt:     b.confirmedAt,
		CancelledAt:     b.cancelledAt,
	}
}

// Reconstruct rebuilds a Booking from storage without validation.
func Reconstruct(s Snapshot) *Booking {
	return &Booking{
		id:              s.ID,
		eventName:       s.EventName,
		eventType:       s.EventType,
		date:            s.Date,
		slot:            s.Slot,
		durationHours:   s.DurationHours,
		contact:         Contact{name: s.ContactName, email: s.ContactEmail, phone: s.ContactPhone, businessName: s.BusinessName},
		specialRequests: s.SpecialRequests,
		paymentMethod:   s.PaymentMethod,
		quote: Quote{
			BillableHours: s.BillableHours,
			Subtotal:      NewMoney(s.SubtotalCents),
			Fee:           NewMoney(s.FeeCents),
			Total:         NewMoney(s.TotalCents),
		},
		status:          s.Status,
		calendarEventID: s.CalendarEventID,
		confirmedVia:    s.ConfirmedVia,
		chargeID:        s.ChargeID,
		lastError:       s.LastError,
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
		confirmedAt:     s.ConfirmedAt,
		cancelledAt:     s.CancelledAt,
	}
}
