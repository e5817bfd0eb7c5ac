//go:build unit || e2e

package builder

import (
	"time"

	"venue-booking/internal/domain/booking"
	reqdto "venue-booking/internal/handler/dto/request"
	"venue-booking/internal/pkg/clock"
)

var FixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type BookingBuilder struct {
	EventName       string
	EventType       string
	Date            string
	Slot            string
	Hours           *float64
	SpecialRequests string
	ContactName     string
	Email           string
	Phone           string
	BusinessName    string
	PaymentMethod   booking.PaymentMethod
	Now             time.Time
}

func NewBookingBuilder() *BookingBuilder {
	hours := 2.5
	return &BookingBuilder{
		EventName:     "Yoga Workshop",
		EventType:     "workshop",
		Date:          "2025-03-10",
		Slot:          "10:00 AM",
		Hours:         &hours,
		ContactName:   "Sam Lee",
		Email:         "sam@example.com",
		Phone:         "303-555-0100",
		PaymentMethod: booking.PaymentPayLater,
		Now:           FixedNow,
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) WithHours(h float64) *BookingBuilder {
	b.Hours = &h
	return b
}

func (b *BookingBuilder) WithoutHours() *BookingBuilder {
	b.Hours = nil
	return b
}

func (b *BookingBuilder) WithSlot(date, slot string) *BookingBuilder {
	b.Date = date
	b.Slot = slot
	return b
}

func (b *BookingBuilder) WithPaymentMethod(m booking.PaymentMethod) *BookingBuilder {
	b.PaymentMethod = m
	return b
}

// Build methods
func (b *BookingBuilder) Factory() *booking.Factory {
	return booking.NewFactory(
		clock.NewMockClock(b.Now),
		booking.NewDefaultPriceCalculator(9500, 4, 3),
		booking.DurationPolicy{DefaultHours: 2, MaxHours: 12},
	)
}

func (b *BookingBuilder) BuildDraft() (booking.Draft, error) {
	contact, err := booking.NewContact(b.ContactName, b.Email, b.Phone, b.BusinessName)
	if err != nil {
		return booking.Draft{}, err
	}
	return booking.Draft{
		EventName:       b.EventName,
		EventType:       b.EventType,
		Date:            b.Date,
		Slot:            b.Slot,
		Hours:           b.Hours,
		SpecialRequests: b.SpecialRequests,
		Contact:         contact,
		PaymentMethod:   b.PaymentMethod,
	}, nil
}

func (b *BookingBuilder) BuildDomain() (*booking.Booking, error) {
	draft, err := b.BuildDraft()
	if err != nil {
		return nil, err
	}
	created, _, err := b.Factory().Create(draft)
	return created, err
}

func (b *BookingBuilder) MustBuildDomain() *booking.Booking {
	created, err := b.BuildDomain()
	if err != nil {
		panic(err)
	}
	return created
}

// BuildConfirmed returns a booking already confirmed against eventID.
func (b *BookingBuilder) BuildConfirmed(eventID string) *booking.Booking {
	created := b.MustBuildDomain()
	if err := created.Confirm(eventID, booking.ConfirmedByPayLater, b.Now); err != nil {
		panic(err)
	}
	return created
}

func (b *BookingBuilder) BuildItemDTO() reqdto.BookingItem {
	return reqdto.BookingItem{
		EventName:       b.EventName,
		EventType:       b.EventType,
		Date:            b.Date,
		Slot:            b.Slot,
		Hours:           b.Hours,
		SpecialRequests: b.SpecialRequests,
	}
}

func (b *BookingBuilder) BuildRequestDTO() reqdto.CreateBookingRequest {
	return reqdto.CreateBookingRequest{
		ContactName:   b.ContactName,
		Email:         b.Email,
		Phone:         b.Phone,
		BusinessName:  b.BusinessName,
		PaymentMethod: string(b.PaymentMethod),
		Items:         []reqdto.BookingItem{b.BuildItemDTO()},
	}
}
