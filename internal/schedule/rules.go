package schedule

import (
	"fmt"
	"time"

	"webinarbot/internal/config"
)

// LeadMinutes is how far ahead of the webinar the pre-event reminder fires.
// It is fixed: the pre-event reminder has no configuration of its own.
const LeadMinutes = 15

// Default wall-clock for the day-of reminder when no override is configured.
const (
	defaultDayReminderHour   = 9
	defaultDayReminderMinute = 0
)

// FireRule is a resolved weekly firing slot: (weekday, hour, minute),
// interpreted in the schedule's location. Derived from config, never persisted.
type FireRule struct {
	Day    time.Weekday
	Hour   int
	Minute int
}

// CronSpec renders the rule as a five-field cron expression
// (robfig/cron standard parser; Sunday = 0 matches time.Weekday).
func (r FireRule) CronSpec() string {
	return fmt.Sprintf("%d %d * * %d", r.Minute, r.Hour, int(r.Day))
}

// Next returns the rule's next fire instant at or after now in loc,
// using the same tie-break as the rest of the engine.
func (r FireRule) Next(loc *time.Location, now time.Time) time.Time {
	return NextOccurrence(r.Day, r.Hour, r.Minute, loc, now)
}

// TimeOfDay renders HH:MM.
func (r FireRule) TimeOfDay() string {
	return fmt.Sprintf("%02d:%02d", r.Hour, r.Minute)
}

// RuleSet is everything Resync and Preview derive from one config snapshot.
// Both paths go through DeriveRules so that what an admin previews is exactly
// what will fire.
type RuleSet struct {
	Event       FireRule
	DayReminder FireRule
	PreEvent    FireRule

	Loc      *time.Location
	Timezone string
}

// DeriveRules resolves the configured schedule into concrete fire rules.
//
// An unparseable event day/time or timezone is a configuration error reported
// to the caller (the admin input layer validates before persisting, so this
// only triggers on hand-edited documents). A missing day-reminder override is
// not an error: it falls back to the event day at 09:00. An unparseable
// override also degrades to that fallback rather than producing a schedule
// from half-parsed fields.
func DeriveRules(cfg *config.Config) (RuleSet, error) {
	loc, err := time.LoadLocation(cfg.Webinar.Timezone)
	if err != nil {
		return RuleSet{}, fmt.Errorf("webinar.timezone: %w", err)
	}

	day, err := ParseDay(cfg.Webinar.Day)
	if err != nil {
		return RuleSet{}, fmt.Errorf("webinar.day: %w", err)
	}
	hour, minute, err := ParseHHMM(cfg.Webinar.Time)
	if err != nil {
		return RuleSet{}, fmt.Errorf("webinar.time: %w", err)
	}
	event := FireRule{Day: day, Hour: hour, Minute: minute}

	rs := RuleSet{
		Event:       event,
		DayReminder: dayReminderRule(cfg, event),
		PreEvent:    preEventRule(event),
		Loc:         loc,
		Timezone:    cfg.Webinar.Timezone,
	}
	return rs, nil
}

func dayReminderRule(cfg *config.Config, event FireRule) FireRule {
	fallback := FireRule{Day: event.Day, Hour: defaultDayReminderHour, Minute: defaultDayReminderMinute}
	ov := cfg.Reminders.Day
	if ov == nil {
		return fallback
	}
	day, err := ParseDay(ov.Day)
	if err != nil {
		return fallback
	}
	hour, minute, err := ParseHHMM(ov.Time)
	if err != nil {
		return fallback
	}
	return FireRule{Day: day, Hour: hour, Minute: minute}
}

func preEventRule(event FireRule) FireRule {
	hour, minute, day := DeriveLeadTime(event.Hour, event.Minute, event.Day, LeadMinutes)
	return FireRule{Day: day, Hour: hour, Minute: minute}
}
