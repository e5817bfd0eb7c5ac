package request

import (
	"strings"

	"venue-booking/internal/domain/booking"
)

type BookingItem struct {
	EventName       string   `json:"event_name" binding:"required,max=200"`
	EventType       string   `json:"event_type" binding:"max=100"`
	Date            string   `json:"date" binding:"required"`
	Slot            string   `json:"slot" binding:"required"`
	Hours           *float64 `json:"hours,omitempty" binding:"omitempty,gte=0"`
	SpecialRequests string   `json:"special_requests" binding:"max=2000"`
}

type CreateBookingRequest struct {
	ContactName   string        `json:"contact_name" binding:"required,max=200"`
	Email         string        `json:"email" binding:"required,email"`
	Phone         string        `json:"phone" binding:"max=50"`
	BusinessName  string        `json:"business_name" binding:"max=200"`
	PaymentMethod string        `json:"payment_method" binding:"required,oneof=card pay_later"`
	Items         []BookingItem `json:"items" binding:"required,min=1,max=10,dive"`
}

// ToDrafts validates the shared contact once and expands every item into a draft.
func (r CreateBookingRequest) ToDrafts() ([]booking.Draft, error) {
	contact, err := booking.NewContact(r.ContactName, r.Email, r.Phone, r.BusinessName)
	if err != nil {
		return nil, err
	}
	method := booking.PaymentMethod(strings.TrimSpace(r.PaymentMethod))

	drafts := make([]booking.Draft, 0, len(r.Items))
	for _, item := range r.Items {
		drafts = append(drafts, booking.Draft{
			EventName:       item.EventName,
			EventType:       item.EventType,
			Date:            strings.TrimSpace(item.Date),
			Slot:            strings.TrimSpace(item.Slot),
			Hours:           item.Hours,
			SpecialRequests: item.SpecialRequests,
			Contact:         contact,
			PaymentMethod:   method,
		})
	}
	return drafts, nil
}

type PayBookingRequest struct {
	CardToken string `json:"card_token" binding:"required"`
}

// PaymentWebhookRequest is the processor event envelope. Only the ids are
// trusted; the charge is always re-read from the processor.
type PaymentWebhookRequest struct {
	ID   string `json:"id"`
	Key  string `json:"key" binding:"required"`
	Data struct {
		Object string `json:"object"`
		ID     string `json:"id" binding:"required"`
	} `json:"data"`
}
