package schedule

import (
	"fmt"
	"regexp"
	"strconv"

	"venue-booking/internal/pkg/errs"
)

const MinutesPerDay = 24 * 60

var (
	ErrInvalidTimeFormat = errs.New("invalid time format")
	ErrInvalidDateFormat = errs.New("invalid date format")
	ErrUnknownSlot       = errs.New("unknown time slot")
)

var labelPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2}) (AM|PM)$`)

// ToMinuteOfDay converts an "H:MM AM|PM" label to minutes after local midnight.
// 12 AM is midnight and 12 PM is noon.
func ToMinuteOfDay(label string) (int, error) {
	m := labelPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, errs.Wrapf(ErrInvalidTimeFormat, "label %q", label)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, errs.Wrapf(ErrInvalidTimeFormat, "label %q", label)
	}

	switch {
	case m[3] == "AM" && hour == 12:
		hour = 0
	case m[3] == "PM" && hour != 12:
		hour += 12
	}
	return hour*60 + minute, nil
}

// ToLabel is the inverse of ToMinuteOfDay.
func ToLabel(minuteOfDay int) (string, error) {
	if minuteOfDay < 0 || minuteOfDay >= MinutesPerDay {
		return "", errs.Wrapf(ErrInvalidTimeFormat, "minute of day %d", minuteOfDay)
	}

	hour, minute := minuteOfDay/60, minuteOfDay%60
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, minute, period), nil
}
