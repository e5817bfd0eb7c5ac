package booking

import (
	"strings"

	"venue-booking/internal/domain/schedule"
	"venue-booking/internal/pkg/clock"
	"venue-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

// Draft is one requested booking as submitted.
type Draft struct {
	EventName       string
	EventType       string
	Date            string
	Slot            string
	Hours           *float64
	SpecialRequests string
	Contact         Contact
	PaymentMethod   PaymentMethod
}

type Factory struct {
	Clock           clock.Clock
	PriceCalculator PriceCalculator
	Durations       DurationPolicy
}

func NewFactory(clock clock.Clock, priceCalculator PriceCalculator, durations DurationPolicy) *Factory {
	return &Factory{
		Clock:           clock,
		PriceCalculator: priceCalculator,
		Durations:       durations,
	}
}

// Create builds a pending booking. defaulted is true when the draft had no
// duration and the policy default was applied.
func (f *Factory) Create(d Draft) (b *Booking, defaulted bool, err error) {
	name := strings.TrimSpace(d.EventName)
	if name == "" {
		return nil, false, ErrMissingEventName
	}
	if d.Contact == (Contact{}) {
		return nil, false, ErrMissingContact
	}
	if !d.PaymentMethod.IsValid() {
		return nil, false, errs.Wrapf(ErrInvalidPayment, "method %q", d.PaymentMethod)
	}

	date, err := schedule.ParseDate(d.Date)
	if err != nil {
		return nil, false, err
	}
	slot, err := schedule.ParseSlot(d.Slot)
	if err != nil {
		return nil, false, err
	}
	hours, defaulted, err := f.Durations.Resolve(d.Hours)
	if err != nil {
		return nil, false, err
	}

	now := f.Clock.Now()
	return &Booking{
		id:              uuid.New(),
		eventName:       name,
		eventType:       strings.TrimSpace(d.EventType),
		date:            date,
		slot:            slot,
		durationHours:   hours,
		contact:         d.Contact,
		specialRequests: strings.TrimSpace(d.SpecialRequests),
		paymentMethod:   d.PaymentMethod,
		quote:           f.PriceCalculator.Quote(hours, d.PaymentMethod),
		status:          StatusPendingPayment,
		createdAt:       now,
		updatedAt:       now,
	}, defaulted, nil
}
