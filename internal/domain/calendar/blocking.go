package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"venue-booking/internal/pkg/errs"
)

// ReservedPrefix marks events created for bookings.
const ReservedPrefix = "BOOKED: "

var ErrInvalidInterval = errs.New("event interval must have start before end")

// Reservation carries the booking fields rendered into a blocking event.
type Reservation struct {
	BookingID       string
	Status          string
	EventName       string
	EventType       string
	ContactName     string
	Email           string
	Phone           string
	BusinessName    string
	SpecialRequests string
	DurationHours   float64
	CreatedAt       time.Time
}

// BlockingEvent is a draft of the calendar entry that reserves a booking's interval.
type BlockingEvent struct {
	Summary       string
	Description   string
	Location      string
	Start         time.Time
	End           time.Time
	TimeZone      string
	BookingID     string
	BookingStatus string
}

type Venue struct {
	Name         string
	Location     string
	ContactEmail string
	Zone         *time.Location
}

func NewBlockingEvent(venue Venue, r Reservation, start, end time.Time) (BlockingEvent, error) {
	if !start.Before(end) {
		return BlockingEvent{}, errs.Wrapf(ErrInvalidInterval, "booking %s", r.BookingID)
	}

	location := venue.Location
	if venue.Name != "" {
		location = venue.Name + ", " + venue.Location
	}

	return BlockingEvent{
		Summary:       ReservedPrefix + r.EventName,
		Description:   describe(venue, r),
		Location:      location,
		Start:         start.In(venue.Zone),
		End:           end.In(venue.Zone),
		TimeZone:      venue.Zone.String(),
		BookingID:     r.BookingID,
		BookingStatus: r.Status,
	}, nil
}

func describe(venue Venue, r Reservation) string {
	var b strings.Builder
	b.WriteString("BOOKING CONFIRMED - This time slot is RESERVED\n\n")
	fmt.Fprintf(&b, "Event: %s\n", r.EventName)
	fmt.Fprintf(&b, "Type: %s\n", orDefault(r.EventType, "Not specified"))
	fmt.Fprintf(&b, "Organizer: %s\n", r.ContactName)
	fmt.Fprintf(&b, "Email: %s\n", r.Email)
	fmt.Fprintf(&b, "Phone: %s\n", orDefault(r.Phone, "Not provided"))
	fmt.Fprintf(&b, "Duration: %s hours\n", strconv.FormatFloat(r.DurationHours, 'f', -1, 64))
	if r.BusinessName != "" {
		fmt.Fprintf(&b, "Business: %s\n", r.BusinessName)
	}
	if r.SpecialRequests != "" {
		fmt.Fprintf(&b, "Special Requests: %s\n", r.SpecialRequests)
	}
	b.WriteString("\nTHIS TIME SLOT IS NOW UNAVAILABLE FOR OTHER BOOKINGS\n\n")
	fmt.Fprintf(&b, "Booking ID: %s\n", r.BookingID)
	fmt.Fprintf(&b, "Status: %s\n", r.Status)
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Created: %s\n", r.CreatedAt.In(venue.Zone).Format(time.RFC3339))
	}
	if venue.ContactEmail != "" {
		fmt.Fprintf(&b, "\nContact %s for changes.", venue.ContactEmail)
	}
	return strings.TrimSpace(b.String())
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
