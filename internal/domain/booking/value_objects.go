package booking

import (
	"strings"

	"venue-booking/internal/pkg/errs"
)

type Contact struct {
	name         string
	email        string
	phone        string
	businessName string
}

func NewContact(name, email, phone, businessName string) (Contact, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return Contact{}, ErrMissingContact
	}
	if !strings.Contains(email, "@") {
		return Contact{}, errs.Wrapf(ErrInvalidEmail, "email %q", email)
	}
	return Contact{
		name:         name,
		email:        email,
		phone:        strings.TrimSpace(phone),
		businessName: strings.TrimSpace(businessName),
	}, nil
}

func (c Contact) Name() string         { return c.name }
func (c Contact) Email() string        { return c.email }
func (c Contact) Phone() string        { return c.phone }
func (c Contact) BusinessName() string { return c.businessName }

// DurationPolicy bounds booking length in hours.
type DurationPolicy struct {
	DefaultHours float64
	MaxHours     float64
}

// Resolve applies the default to a missing (nil or zero) duration and
// reports whether it did so.
func (p DurationPolicy) Resolve(hours *float64) (float64, bool, error) {
	if hours == nil || *hours == 0 {
		return p.DefaultHours, true, nil
	}
	h := *hours
	if h < 0 || h > p.MaxHours {
		return 0, false, errs.Wrapf(ErrInvalidDuration, "%v hours", h)
	}
	return h, false, nil
}

type Money struct {
	cents int64
}

func NewMoney(cents int64) Money {
	return Money{cents: cents}
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) Dollars() float64 {
	return float64(m.cents) / 100.0
}

func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}
