package response

import (
	"time"

	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/commands"
	"venue-booking/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type BookingResponse struct {
	ID              uuid.UUID  `json:"id"`
	EventName       string     `json:"event_name"`
	EventType       string     `json:"event_type,omitempty"`
	Date            string     `json:"date"`
	Slot            string     `json:"slot"`
	DurationHours   float64    `json:"duration_hours"`
	ContactName     string     `json:"contact_name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	BusinessName    string     `json:"business_name,omitempty"`
	SpecialRequests string     `json:"special_requests,omitempty"`
	PaymentMethod   string     `json:"payment_method"`
	BillableHours   float64    `json:"billable_hours"`
	SubtotalCents   int64      `json:"subtotal_cents"`
	FeeCents        int64      `json:"fee_cents"`
	TotalCents      int64      `json:"total_cents"`
	Status          string     `json:"status"`
	CalendarEventID string     `json:"calendar_event_id,omitempty"`
	ConfirmedVia    string     `json:"confirmed_via,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
}

type BookingFailureResponse struct {
	BookingID uuid.UUID `json:"booking_id"`
	Message   string    `json:"message"`
}

type SubmitBookingsResponse struct {
	Bookings []*BookingResponse       `json:"bookings"`
	Failures []BookingFailureResponse `json:"failures,omitempty"`
}

type PaymentResponse struct {
	Status  string           `json:"status"`
	Booking *BookingResponse `json:"booking,omitempty"`
}

func FromBookingView(v *queries.BookingView) (*BookingResponse, error) {
	var out BookingResponse
	if err := copier.Copy(&out, v); err != nil {
		return nil, errs.Wrap(err, "copy booking view")
	}
	return &out, nil
}

func FromSubmitResult(r *commands.SubmitResult) (*SubmitBookingsResponse, error) {
	out := &SubmitBookingsResponse{Bookings: make([]*BookingResponse, 0, len(r.Bookings))}
	for _, v := range r.Bookings {
		b, err := FromBookingView(v)
		if err != nil {
			return nil, err
		}
		out.Bookings = append(out.Bookings, b)
	}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, BookingFailureResponse{BookingID: f.BookingID, Message: f.Err.Error()})
	}
	return out, nil
}

func FromPaymentOutcome(o *commands.PaymentOutcome) (*PaymentResponse, error) {
	out := &PaymentResponse{Status: string(o.Status)}
	if o.Booking != nil {
		b, err := FromBookingView(o.Booking)
		if err != nil {
			return nil, err
		}
		out.Booking = b
	}
	return out, nil
}
