package dispatch

import (
	"testing"
	"time"

	"webinarbot/internal/schedule"
	"webinarbot/internal/store"
)

func TestFormatDate(t *testing.T) {
	t.Parallel()
	buc, err := time.LoadLocation("Europe/Bucharest")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2026, 3, 3, 19, 0, 0, 0, buc), "3 martie 2026"},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, buc), "1 ianuarie 2026"},
		{time.Date(2025, 12, 28, 12, 0, 0, 0, buc), "28 decembrie 2025"},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.in); got != tt.want {
			t.Fatalf("FormatDate(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDayName(t *testing.T) {
	t.Parallel()
	if got := DayName(time.Tuesday); got != "marți" {
		t.Fatalf("DayName(Tuesday) = %q", got)
	}
	if got := DayName(time.Sunday); got != "duminică" {
		t.Fatalf("DayName(Sunday) = %q", got)
	}
}

func TestRender(t *testing.T) {
	t.Parallel()
	buc, _ := time.LoadLocation("Europe/Bucharest")
	occ := schedule.Occurrence{
		Day:       time.Tuesday,
		TimeOfDay: "19:00",
		Next:      time.Date(2026, 3, 3, 19, 0, 0, 0, buc),
	}
	p := store.Participant{FirstName: "Ana", LastName: "Pop"}

	got := Render("{first_name} {last_name}: {webinar_day}, {next_webinar_date}, ora {webinar_time}", p, occ)
	want := "Ana Pop: marți, 3 martie 2026, ora 19:00"
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}

	// Unknown placeholders survive untouched.
	if got := Render("x {unknown} y", p, occ); got != "x {unknown} y" {
		t.Fatalf("Render = %q", got)
	}
}
