package schedule

import (
	"regexp"
	"time"

	"venue-booking/internal/pkg/errs"
)

const dateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Date is a civil calendar date with no time zone attached.
type Date struct {
	year  int
	month time.Month
	day   int
}

func ParseDate(s string) (Date, error) {
	if !datePattern.MatchString(s) {
		return Date{}, errs.Wrapf(ErrInvalidDateFormat, "date %q", s)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, errs.Wrapf(ErrInvalidDateFormat, "date %q", s)
	}
	return DateOf(t), nil
}

func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf returns the civil date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC).Format(dateLayout)
}

// Midnight is the first instant of d in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

// At returns the wall-clock instant minuteOfDay minutes into d in loc.
func (d Date) At(loc *time.Location, minuteOfDay int) time.Time {
	return time.Date(d.year, d.month, d.day, minuteOfDay/60, minuteOfDay%60, 0, 0, loc)
}

func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.year, d.month, d.day+n, 0, 0, 0, 0, time.UTC))
}

func (d Date) Before(other Date) bool {
	return d.String() < other.String()
}

func (d Date) After(other Date) bool {
	return other.Before(d)
}

// Within reports whether d lies in [from, to] inclusive.
func (d Date) Within(from, to Date) bool {
	return !d.Before(from) && !d.After(to)
}

// LoadLocation resolves the venue time zone.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errs.Wrapf(err, "load venue time zone %q", name)
	}
	return loc, nil
}
