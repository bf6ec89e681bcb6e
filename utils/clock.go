package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/meinhoongagan/gym-booking/models"
)

const minutesPerDay = 24 * 60

var (
	clockPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

	ErrInvalidClock = errors.New("invalid time format, expected HH:MM")
	ErrInvalidDate  = errors.New("invalid date format, expected YYYY-MM-DD")
)

// ParseClock converts a 24h "HH:MM" (hour may be a single digit) to minutes past midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if !clockPattern.MatchString(s) {
		return 0, ErrInvalidClock
	}
	h, m, _ := strings.Cut(s, ":")
	hours, _ := strconv.Atoi(h)
	minutes, _ := strconv.Atoi(m)
	return hours*60 + minutes, nil
}

// FormatClock renders minutes past midnight as zero-padded "HH:MM", wrapping past midnight.
func FormatClock(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// NormalizeClock validates s and returns it zero-padded.
func NormalizeClock(s string) (string, error) {
	m, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return FormatClock(m), nil
}

// AddClock returns start + d as a same-day wall-clock string.
func AddClock(start string, d time.Duration) (string, error) {
	m, err := ParseClock(start)
	if err != nil {
		return "", err
	}
	return FormatClock(m + int(d/time.Minute)), nil
}

// Interval is a half-open [Start, End) range in minutes past midnight of one date.
// End may exceed a day when the range crosses midnight.
type Interval struct {
	Start int
	End   int
}

// NewInterval builds the interval for a start/end pair, unrolling an end that wraps past midnight.
func NewInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	if e <= s {
		e += minutesPerDay
	}
	return Interval{Start: s, End: e}, nil
}

// Overlaps reports whether the intervals share any instant; touching endpoints do not.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// ParseDate accepts "YYYY-MM-DD" or RFC3339 and returns the calendar date at midnight UTC.
// RFC3339 input is first moved into loc so the calendar day matches local wall time.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(models.DateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return DateOnly(ToLocal(t, loc)), nil
}

// DateOnly strips the clock and zone, keeping the calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StartOfDay is local midnight of the calendar date.
func StartOfDay(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Instant combines a calendar date and an "HH:MM" clock in loc.
func Instant(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return StartOfDay(date, loc).Add(time.Duration(m) * time.Minute), nil
}

// ClassWindow returns the start and end instants of a schedule in loc.
func ClassWindow(s *models.Schedule, loc *time.Location) (time.Time, time.Time, error) {
	start, err := Instant(s.Date, s.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	iv, err := NewInterval(s.StartTime, s.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.Add(time.Duration(iv.End-iv.Start) * time.Minute), nil
}

// ToLocal converts t to loc, falling back to UTC.
func ToLocal(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t.UTC()
	}
	return t.In(loc)
}
