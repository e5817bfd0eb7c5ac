package calendar

import (
	"time"

	"venue-booking/internal/domain/schedule"
	"venue-booking/internal/pkg/errs"
)

var ErrMalformedEvent = errs.New("malformed calendar event")

// EventTime mirrors the upstream representation: DateTime (RFC 3339) for
// timed events, Date (YYYY-MM-DD) for all-day events.
type EventTime struct {
	DateTime string
	Date     string
}

// RawEvent is an event record as returned by the external calendar.
type RawEvent struct {
	ID      string
	Summary string
	Start   EventTime
	End     EventTime
}

// Event is a normalized busy interval. Start is always before End.
type Event struct {
	ID      string
	Summary string
	Start   time.Time
	End     time.Time
	AllDay  bool

	// Inclusive civil date range; set for all-day events only.
	FirstDate schedule.Date
	LastDate  schedule.Date
}

// Normalize converts a raw record into an Event anchored to loc.
// All-day events cover local midnight of the first date through the last
// instant of the last date. The upstream all-day end date is exclusive.
func Normalize(raw RawEvent, loc *time.Location) (Event, error) {
	switch {
	case raw.Start.DateTime != "":
		return normalizeTimed(raw, loc)
	case raw.Start.Date != "":
		return normalizeAllDay(raw, loc)
	default:
		return Event{}, errs.Wrapf(ErrMalformedEvent, "event %q has no start", raw.ID)
	}
}

func normalizeTimed(raw RawEvent, loc *time.Location) (Event, error) {
	start, err := time.Parse(time.RFC3339, raw.Start.DateTime)
	if err != nil {
		return Event{}, errs.Wrapf(ErrMalformedEvent, "event %q start %q", raw.ID, raw.Start.DateTime)
	}
	if raw.End.DateTime == "" {
		return Event{}, errs.Wrapf(ErrMalformedEvent, "event %q has no end time", raw.ID)
	}
	end, err := time.Parse(time.RFC3339, raw.End.DateTime)
	if err != nil {
		return Event{}, errs.Wrapf(ErrMalformedEvent, "event %q end %q", raw.ID, raw.End.DateTime)
	}
	if !start.Before(end) {
		return Event{}, errs.Wrapf(ErrMalformedEvent, "event %q ends before it starts", raw.ID)
	}

	return Event{
		ID:      raw.ID,
		Summary: raw.Summary,
		Start:   start.In(loc),
		End:     end.In(loc),
	}, nil
}

func normalizeAllDay(raw RawEvent, loc *time.Location) (Event, error) {
	first, err := schedule.ParseDate(raw.Start.Date)
	if err != nil {
		return Event{}, errs.Wrapf(ErrMalformedEvent, "event %q start date %q", raw.ID, raw.Start.Date)
	}

	last := first
	if raw.End.Date != "" {
		exclusiveEnd, err := schedule.ParseDate(raw.End.Date)
		if err != nil {
			return Event{}, errs.Wrapf(ErrMalformedEvent, "event %q end date %q", raw.ID, raw.End.Date)
		}
		if !exclusiveEnd.After(first) {
			return Event{}, errs.Wrapf(ErrMalformedEvent, "event %q ends before it starts", raw.ID)
		}
		last = exclusiveEnd.AddDays(-1)
	}

	return Event{
		ID:        raw.ID,
		Summary:   raw.Summary,
		Start:     first.Midnight(loc),
		End:       last.AddDays(1).Midnight(loc).Add(-time.Nanosecond),
		AllDay:    true,
		FirstDate: first,
		LastDate:  last,
	}, nil
}

// Overlaps reports whether [start, end) intersects the event.
func (e Event) Overlaps(start, end time.Time) bool {
	return start.Before(e.End) && end.After(e.Start)
}

// CoversDate reports whether an all-day event spans d.
func (e Event) CoversDate(d schedule.Date) bool {
	return e.AllDay && d.Within(e.FirstDate, e.LastDate)
}
