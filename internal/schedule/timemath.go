package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// All weekday and clock arithmetic for the scheduling engine lives here.
// Other packages must not reimplement modulo-7 logic.

var dayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,

	// Romanian names, as admins type them
	"luni":     time.Monday,
	"marți":    time.Tuesday,
	"marti":    time.Tuesday,
	"miercuri": time.Wednesday,
	"joi":      time.Thursday,
	"vineri":   time.Friday,
	"sâmbătă":  time.Saturday,
	"sambata":  time.Saturday,
	"duminică": time.Sunday,
	"duminica": time.Sunday,
}

// ParseDay resolves an English or Romanian weekday name, case-insensitively.
func ParseDay(name string) (time.Weekday, error) {
	d, ok := dayNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown day name %q", name)
	}
	return d, nil
}

// ParseHHMM validates a wall-clock time with minute precision.
func ParseHHMM(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}

// NextOccurrence returns the earliest instant at or after now, in loc, that
// falls on day at hour:minute.
//
// "Already passed" compares (hour, minute) of now local to loc against the
// target with a strict greater-than, so the exact boundary minute still
// resolves to the current week's occurrence, never the next one. The
// comparison is minute-granular on purpose: schedules are minute-precision
// and the cron runner fires on the minute.
func NextOccurrence(day time.Weekday, hour, minute int, loc *time.Location, now time.Time) time.Time {
	local := now.In(loc)
	daysAhead := (int(day) - int(local.Weekday()) + 7) % 7
	if daysAhead == 0 && clockAfter(local.Hour(), local.Minute(), hour, minute) {
		daysAhead = 7
	}
	// time.Date normalizes the day offset across month and year boundaries
	// and resolves the wall clock within loc's calendar (incl. DST shifts).
	return time.Date(local.Year(), local.Month(), local.Day()+daysAhead, hour, minute, 0, 0, loc)
}

// clockAfter reports whether h1:m1 is strictly after h2:m2.
func clockAfter(h1, m1, h2, m2 int) bool {
	return h1 > h2 || (h1 == h2 && m1 > m2)
}

// DeriveLeadTime subtracts lead minutes from a (hour, minute, weekday) triple
// with day/hour rollover. Pure and total for lead in [0, 60): a minute
// underflow borrows an hour, an hour underflow borrows a day, and the
// weekday wraps modulo 7 (Monday's predecessor is Sunday).
func DeriveLeadTime(hour, minute int, day time.Weekday, lead int) (int, int, time.Weekday) {
	minute -= lead
	if minute < 0 {
		minute += 60
		hour--
		if hour < 0 {
			hour = 23
			day = (day + 6) % 7
		}
	}
	return hour, minute, day
}
