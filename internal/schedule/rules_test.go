package schedule

import (
	"testing"
	"time"

	"webinarbot/internal/config"
)

func baseConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Webinar.Day = "Tuesday"
	cfg.Webinar.Time = "19:00"
	cfg.Webinar.Timezone = "Europe/Bucharest"
	cfg.ApplyDefaults()
	return cfg
}

func TestDeriveRules(t *testing.T) {
	t.Parallel()
	rs, err := DeriveRules(baseConfig())
	if err != nil {
		t.Fatalf("DeriveRules: %v", err)
	}

	if rs.Event != (FireRule{Day: time.Tuesday, Hour: 19, Minute: 0}) {
		t.Fatalf("event rule = %+v", rs.Event)
	}
	// No override: day reminder defaults to the event day at 09:00.
	if rs.DayReminder != (FireRule{Day: time.Tuesday, Hour: 9, Minute: 0}) {
		t.Fatalf("day reminder rule = %+v", rs.DayReminder)
	}
	// Pre-event is always event time minus 15 minutes.
	if rs.PreEvent != (FireRule{Day: time.Tuesday, Hour: 18, Minute: 45}) {
		t.Fatalf("pre-event rule = %+v", rs.PreEvent)
	}
	if rs.Timezone != "Europe/Bucharest" {
		t.Fatalf("timezone = %q", rs.Timezone)
	}
}

func TestDeriveRulesDayReminderOverride(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Reminders.Day = &config.DayReminder{Day: "Monday", Time: "18:30"}

	rs, err := DeriveRules(cfg)
	if err != nil {
		t.Fatalf("DeriveRules: %v", err)
	}
	if rs.DayReminder != (FireRule{Day: time.Monday, Hour: 18, Minute: 30}) {
		t.Fatalf("day reminder rule = %+v", rs.DayReminder)
	}
}

func TestDeriveRulesBadOverrideFallsBack(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Reminders.Day = &config.DayReminder{Day: "Noday", Time: "99:99"}

	rs, err := DeriveRules(cfg)
	if err != nil {
		t.Fatalf("DeriveRules: %v", err)
	}
	if rs.DayReminder != (FireRule{Day: time.Tuesday, Hour: 9, Minute: 0}) {
		t.Fatalf("day reminder rule = %+v, want 09:00 fallback", rs.DayReminder)
	}
}

func TestDeriveRulesPreEventCrossesMidnight(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Webinar.Day = "Monday"
	cfg.Webinar.Time = "00:10"

	rs, err := DeriveRules(cfg)
	if err != nil {
		t.Fatalf("DeriveRules: %v", err)
	}
	if rs.PreEvent != (FireRule{Day: time.Sunday, Hour: 23, Minute: 55}) {
		t.Fatalf("pre-event rule = %+v", rs.PreEvent)
	}
}

func TestDeriveRulesErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad timezone", func(c *config.Config) { c.Webinar.Timezone = "Mars/Olympus" }},
		{"bad day", func(c *config.Config) { c.Webinar.Day = "Crunchday" }},
		{"bad time", func(c *config.Config) { c.Webinar.Time = "25:99" }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)
			if _, err := DeriveRules(cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCronSpec(t *testing.T) {
	t.Parallel()
	r := FireRule{Day: time.Sunday, Hour: 23, Minute: 55}
	if got := r.CronSpec(); got != "55 23 * * 0" {
		t.Fatalf("CronSpec = %q", got)
	}
}
