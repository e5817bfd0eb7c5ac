package schedule

import (
	"venue-booking/internal/pkg/errs"
)

// Daily bookable start times, one hour apart.
var catalogLabels = []string{
	"6:00 AM", "7:00 AM", "8:00 AM", "9:00 AM", "10:00 AM", "11:00 AM",
	"12:00 PM", "1:00 PM", "2:00 PM", "3:00 PM", "4:00 PM", "5:00 PM",
	"6:00 PM", "7:00 PM", "8:00 PM",
}

var catalog = mustBuildCatalog(catalogLabels)

type TimeSlot struct {
	label       string
	minuteOfDay int
}

func (s TimeSlot) Label() string    { return s.label }
func (s TimeSlot) MinuteOfDay() int { return s.minuteOfDay }
func (s TimeSlot) String() string   { return s.label }

// Catalog returns the ordered slot catalog. The returned slice is a copy.
func Catalog() []TimeSlot {
	out := make([]TimeSlot, len(catalog))
	copy(out, catalog)
	return out
}

func ParseSlot(label string) (TimeSlot, error) {
	minute, err := ToMinuteOfDay(label)
	if err != nil {
		return TimeSlot{}, err
	}
	for _, s := range catalog {
		if s.minuteOfDay == minute && s.label == label {
			return s, nil
		}
	}
	return TimeSlot{}, errs.Wrapf(ErrUnknownSlot, "label %q", label)
}

func mustBuildCatalog(labels []string) []TimeSlot {
	slots := make([]TimeSlot, 0, len(labels))
	prev := -1
	for _, l := range labels {
		minute, err := ToMinuteOfDay(l)
		if err != nil {
			panic(err)
		}
		if minute <= prev {
			panic("schedule: catalog must be strictly ascending: " + l)
		}
		prev = minute
		slots = append(slots, TimeSlot{label: l, minuteOfDay: minute})
	}
	return slots
}
