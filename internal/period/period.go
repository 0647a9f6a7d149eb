// Package period resolves instants into reporting windows (day, week, month, year)
// in one fixed reporting timezone.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidInterval = errors.New("invalid interval")
	ErrInvalidInstant  = errors.New("invalid instant")
	ErrInvalidOffset   = errors.New("invalid utc offset")
)

type Interval string

const (
	Daily   Interval = "daily"
	Weekly  Interval = "weekly"
	Monthly Interval = "monthly"
	// Yearly is only used by the dashboard; goal periods never use it.
	Yearly Interval = "yearly"
)

// GoalIntervals lists the intervals a goal period can be tracked on, narrowest first.
var GoalIntervals = []Interval{Daily, Weekly, Monthly}

func ParseInterval(s string) (Interval, error) {
	iv := Interval(strings.ToLower(strings.TrimSpace(s)))
	if !iv.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	return iv, nil
}

func (i Interval) Valid() bool {
	switch i {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// IsGoalInterval reports whether goal periods can be tracked on i.
func (i Interval) IsGoalInterval() bool {
	return i == Daily || i == Weekly || i == Monthly
}

// Window is a closed range of instants. End is the last millisecond of the window.
type Window struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// Contains reports whether t falls inside the window at millisecond precision.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End.Add(time.Millisecond))
}

// Resolver does all calendar math in a single location so that "today" is the
// same range of instants for every client.
type Resolver struct {
	loc *time.Location
}

func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{loc: loc}
}

func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Local returns t in the reporting timezone.
func (r *Resolver) Local(t time.Time) time.Time {
	return t.In(r.loc)
}

// DayKey returns the reporting-local calendar day of t as YYYY-MM-DD.
func (r *Resolver) DayKey(t time.Time) string {
	return t.In(r.loc).Format(time.DateOnly)
}

// StartOfDay returns local midnight of the day containing t, as a UTC instant.
func (r *Resolver) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(r.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.loc).UTC()
}

// Window returns the window of the given interval that contains t. Boundaries are
// reporting-local wall clock times, returned as UTC instants.
func (r *Resolver) Window(iv Interval, t time.Time) (Window, error) {
	start, err := r.localStart(iv, t)
	if err != nil {
		return Window{}, err
	}
	next := advance(iv, start)
	return Window{
		Start: start.UTC(),
		End:   next.Add(-time.Millisecond).UTC(),
	}, nil
}

// PreviousStart returns the start of the window immediately preceding the one that
// starts at currentStart. It is a lookup key only; it never creates a window.
func (r *Resolver) PreviousStart(iv Interval, currentStart time.Time) (time.Time, error) {
	y, m, d := currentStart.In(r.loc).Date()
	var prev time.Time
	switch iv {
	case Daily:
		prev = time.Date(y, m, d-1, 0, 0, 0, 0, r.loc)
	case Weekly:
		prev = time.Date(y, m, d-7, 0, 0, 0, 0, r.loc)
	case Monthly:
		prev = time.Date(y, m-1, 1, 0, 0, 0, 0, r.loc)
	case Yearly:
		prev = time.Date(y-1, time.January, 1, 0, 0, 0, 0, r.loc)
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidInterval, iv)
	}
	return prev.UTC(), nil
}

// ParseDate accepts an RFC 3339 instant or a bare YYYY-MM-DD date, which is read as
// local midnight in the reporting timezone.
func (r *Resolver) ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) == len(time.DateOnly) {
		t, err := time.ParseInLocation(time.DateOnly, s, r.loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidInstant, s)
		}
		return t.UTC(), nil
	}
	return ParseInstant(s)
}

func (r *Resolver) localStart(iv Interval, t time.Time) (time.Time, error) {
	l := t.In(r.loc)
	y, m, d := l.Date()
	switch iv {
	case Daily:
		return time.Date(y, m, d, 0, 0, 0, 0, r.loc), nil
	case Weekly:
		// Weeks start on Monday.
		back := (int(l.Weekday()) + 6) % 7
		return time.Date(y, m, d-back, 0, 0, 0, 0, r.loc), nil
	case Monthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, r.loc), nil
	case Yearly:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, r.loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidInterval, iv)
}

// advance rolls a local window start over to the next window start. Months and
// years go through calendar rollover so month length and leap years come for free.
func advance(iv Interval, start time.Time) time.Time {
	switch iv {
	case Weekly:
		return start.AddDate(0, 0, 7)
	case Monthly:
		return start.AddDate(0, 1, 0)
	case Yearly:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// ParseInstant parses an RFC 3339 timestamp carrying an explicit offset. Naive local
// times are rejected. The result is UTC, truncated to milliseconds.
func ParseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidInstant, s)
	}
	return t.UTC().Truncate(time.Millisecond), nil
}

// ParseOffset turns "+07:00", "-0530", "Z" or "UTC" into a fixed-offset location.
func ParseOffset(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "", "Z", "UTC", "+00:00", "-00:00":
		return time.UTC, nil
	}

	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
	}

	digits := strings.ReplaceAll(s[1:], ":", "")
	if len(digits) != 2 && len(digits) != 4 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
	}
	hours, err := strconv.Atoi(digits[:2])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
	}
	minutes := 0
	if len(digits) == 4 {
		minutes, err = strconv.Atoi(digits[2:])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
		}
	}
	if hours < 0 || hours > 14 || minutes < 0 || minutes > 59 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
	}

	name := fmt.Sprintf("UTC%c%02d:%02d", s[0], hours, minutes)
	return time.FixedZone(name, sign*(hours*3600+minutes*60)), nil
}
