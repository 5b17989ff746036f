// Package schedule computes trigger times for recurring jobs.
package schedule

import (
	"fmt"
	"time"

	"github.com/GregMSThompson/insights-backend/internal/errs"
)

type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

const timeOfDayLayout = "15:04"

// Cadence is a recurrence rule. DayOfWeek (0 = Sunday) is required for weekly
// cadences and DayOfMonth (1-31) for monthly ones. An empty Timezone means UTC.
type Cadence struct {
	Frequency  Frequency `json:"frequency" firestore:"frequency"`
	TimeOfDay  string    `json:"timeOfDay" firestore:"timeOfDay"`
	DayOfWeek  *int      `json:"dayOfWeek,omitempty" firestore:"dayOfWeek,omitempty"`
	DayOfMonth *int      `json:"dayOfMonth,omitempty" firestore:"dayOfMonth,omitempty"`
	Timezone   string    `json:"timezone,omitempty" firestore:"timezone,omitempty"`
}

// Validate reports whether c describes a schedule NextRun can compute.
func Validate(c Cadence) error {
	_, _, err := parse(c)
	return err
}

// NextRun returns the first trigger of c strictly after now, in UTC.
//
// Monthly cadences whose day does not exist in a month fire on that month's
// last day.
func NextRun(c Cadence, now time.Time) (time.Time, error) {
	loc, clock, err := parse(c)
	if err != nil {
		return time.Time{}, err
	}

	local := now.In(loc)
	y, m, d := local.Date()
	at := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, loc)
	}

	var next time.Time
	switch c.Frequency {
	case Daily:
		next = at(y, m, d)
		if !next.After(now) {
			next = at(y, m, d+1)
		}
	case Weekly:
		delta := (*c.DayOfWeek - int(local.Weekday()) + 7) % 7
		if delta == 0 && !at(y, m, d).After(now) {
			delta = 7
		}
		next = at(y, m, d+delta)
	case Monthly:
		next = at(y, m, clampDay(y, m, *c.DayOfMonth))
		if !next.After(now) {
			ny, nm, _ := time.Date(y, m+1, 1, 0, 0, 0, 0, loc).Date()
			next = at(ny, nm, clampDay(ny, nm, *c.DayOfMonth))
		}
	}
	return next.UTC(), nil
}

// Upcoming returns the next n triggers of c after now.
func Upcoming(c Cadence, now time.Time, n int) ([]time.Time, error) {
	out := make([]time.Time, 0, n)
	for range n {
		next, err := NextRun(c, now)
		if err != nil {
			return nil, err
		}
		out = append(out, next)
		now = next
	}
	return out, nil
}

func clampDay(y int, m time.Month, day int) int {
	last := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return min(day, last)
}

func parse(c Cadence) (*time.Location, time.Time, error) {
	switch c.Frequency {
	case Daily:
	case Weekly:
		if c.DayOfWeek == nil || *c.DayOfWeek < 0 || *c.DayOfWeek > 6 {
			return nil, time.Time{}, invalid("weekly schedules need a day of week between 0 (Sunday) and 6 (Saturday)")
		}
	case Monthly:
		if c.DayOfMonth == nil || *c.DayOfMonth < 1 || *c.DayOfMonth > 31 {
			return nil, time.Time{}, invalid("monthly schedules need a day of month between 1 and 31")
		}
	default:
		return nil, time.Time{}, invalid(fmt.Sprintf("unknown frequency %q", c.Frequency))
	}

	clock, err := time.Parse(timeOfDayLayout, c.TimeOfDay)
	if err != nil {
		return nil, time.Time{}, invalid(fmt.Sprintf("time of day %q is not in HH:MM format", c.TimeOfDay))
	}

	tz := c.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, time.Time{}, invalid(fmt.Sprintf("unknown timezone %q", c.Timezone))
	}
	return loc, clock, nil
}

func invalid(msg string) error {
	return errs.NewValidationErrorCode(errs.CodeInvalidSchedule, msg,
		"Use daily, weekly or monthly with a HH:MM time and a valid IANA timezone.")
}
