package schedule

import (
	"time"

	"webinarbot/internal/config"
)

// Occurrence is one upcoming firing, resolved for display.
type Occurrence struct {
	Day       time.Weekday
	TimeOfDay string
	Next      time.Time
}

// Preview is the admin-facing projection of the effective schedule.
type Preview struct {
	Timezone    string
	Event       Occurrence
	DayReminder Occurrence
	PreEvent    Occurrence
}

// BuildPreview resolves the next fire instants for the webinar and both
// reminders, as of now. It goes through the exact same rule derivation Resync
// uses, so the preview always matches what will actually fire. Read-only: no
// job is created, changed or removed.
func BuildPreview(cfg *config.Config, now time.Time) (Preview, error) {
	rs, err := DeriveRules(cfg)
	if err != nil {
		return Preview{}, err
	}
	return Preview{
		Timezone:    rs.Timezone,
		Event:       occurrence(rs.Event, rs.Loc, now),
		DayReminder: occurrence(rs.DayReminder, rs.Loc, now),
		PreEvent:    occurrence(rs.PreEvent, rs.Loc, now),
	}, nil
}

// NextWebinar returns the next occurrence of the webinar itself. Used to
// personalize welcome/info/reminder texts with the upcoming date.
func NextWebinar(cfg *config.Config, now time.Time) (Occurrence, error) {
	rs, err := DeriveRules(cfg)
	if err != nil {
		return Occurrence{}, err
	}
	return occurrence(rs.Event, rs.Loc, now), nil
}

func occurrence(r FireRule, loc *time.Location, now time.Time) Occurrence {
	return Occurrence{
		Day:       r.Day,
		TimeOfDay: r.TimeOfDay(),
		Next:      r.Next(loc, now),
	}
}
