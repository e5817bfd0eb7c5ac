package queries

import (
	"time"

	"github.com/google/uuid"
)

// BookingView represents read-optimized booking data
type BookingView struct {
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

// SlotView is one entry of the daily slot catalog
type SlotView struct {
	Label       string `json:"label"`
	MinuteOfDay int    `json:"minute_of_day"`
}
