package calendar

import (
	"time"

	"venue-booking/internal/domain/schedule"
)

// ProbeWindow is the span tested from each slot start when rendering
// availability. It is not the booking duration.
const ProbeWindow = 30 * time.Minute

type SlotAvailability struct {
	Slot      schedule.TimeSlot
	Available bool
}

// AvailabilityMap covers every catalog slot for one date, in catalog order.
type AvailabilityMap struct {
	date    schedule.Date
	entries []SlotAvailability
}

func (m AvailabilityMap) Date() schedule.Date { return m.date }

func (m AvailabilityMap) Entries() []SlotAvailability {
	out := make([]SlotAvailability, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m AvailabilityMap) AsMap() map[string]bool {
	out := make(map[string]bool, len(m.entries))
	for _, e := range m.entries {
		out[e.Slot.Label()] = e.Available
	}
	return out
}

func (m AvailabilityMap) IsAvailable(label string) (available, found bool) {
	for _, e := range m.entries {
		if e.Slot.Label() == label {
			return e.Available, true
		}
	}
	return false, false
}

func (m AvailabilityMap) AvailableCount() int {
	n := 0
	for _, e := range m.entries {
		if e.Available {
			n++
		}
	}
	return n
}

// AllAvailable is the fail-open answer for a date.
func AllAvailable(date schedule.Date) AvailabilityMap {
	slots := schedule.Catalog()
	entries := make([]SlotAvailability, len(slots))
	for i, s := range slots {
		entries[i] = SlotAvailability{Slot: s, Available: true}
	}
	return AvailabilityMap{date: date, entries: entries}
}

type SkippedEvent struct {
	ID  string
	Err error
}

type Resolution struct {
	Availability AvailabilityMap
	Skipped      []SkippedEvent
}

type Resolver struct {
	loc *time.Location
}

func NewResolver(loc *time.Location) *Resolver {
	return &Resolver{loc: loc}
}

func (r *Resolver) Location() *time.Location { return r.loc }

// DayWindow is the venue-local [midnight, next midnight) range to fetch for date.
func (r *Resolver) DayWindow(date schedule.Date) (from, to time.Time) {
	return date.Midnight(r.loc), date.AddDays(1).Midnight(r.loc)
}

// NormalizeAll drops records that cannot be normalized and reports them.
func (r *Resolver) NormalizeAll(raws []RawEvent) ([]Event, []SkippedEvent) {
	events := make([]Event, 0, len(raws))
	var skipped []SkippedEvent
	for _, raw := range raws {
		e, err := Normalize(raw, r.loc)
		if err != nil {
			skipped = append(skipped, SkippedEvent{ID: raw.ID, Err: err})
			continue
		}
		events = append(events, e)
	}
	return events, skipped
}

func (r *Resolver) Resolve(date schedule.Date, raws []RawEvent) Resolution {
	events, skipped := r.NormalizeAll(raws)

	slots := schedule.Catalog()
	entries := make([]SlotAvailability, len(slots))
	for i, s := range slots {
		start := date.At(r.loc, s.MinuteOfDay())
		entries[i] = SlotAvailability{
			Slot:      s,
			Available: !r.blocked(events, date, start, start.Add(ProbeWindow)),
		}
	}

	return Resolution{
		Availability: AvailabilityMap{date: date, entries: entries},
		Skipped:      skipped,
	}
}

func (r *Resolver) blocked(events []Event, date schedule.Date, start, probeEnd time.Time) bool {
	for _, e := range events {
		if e.AllDay {
			if e.CoversDate(date) {
				return true
			}
			continue
		}
		if e.Overlaps(start, probeEnd) {
			return true
		}
	}
	return false
}

// FirstConflict returns the first event overlapping the full interval [start, end).
func FirstConflict(events []Event, start, end time.Time) (Event, bool) {
	for _, e := range events {
		if e.Overlaps(start, end) {
			return e, true
		}
	}
	return Event{}, false
}
