package schedule

import (
	"testing"
	"time"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%q): %v", name, err)
	}
	return loc
}

func TestNextOccurrence(t *testing.T) {
	t.Parallel()
	buc := mustLoc(t, "Europe/Bucharest")

	// 2026-03-03 is a Tuesday, 2026-01-01 is a Thursday.
	tests := []struct {
		name   string
		now    time.Time
		day    time.Weekday
		hour   int
		minute int
		want   time.Time
	}{
		{
			name: "same day, time still ahead",
			now:  time.Date(2026, 3, 3, 10, 0, 0, 0, buc),
			day:  time.Tuesday, hour: 15, minute: 0,
			want: time.Date(2026, 3, 3, 15, 0, 0, 0, buc),
		},
		{
			name: "same day, time already passed",
			now:  time.Date(2026, 3, 3, 16, 0, 0, 0, buc),
			day:  time.Tuesday, hour: 15, minute: 0,
			want: time.Date(2026, 3, 10, 15, 0, 0, 0, buc),
		},
		{
			name: "exact boundary resolves to now, not next week",
			now:  time.Date(2026, 3, 3, 15, 0, 0, 0, buc),
			day:  time.Tuesday, hour: 15, minute: 0,
			want: time.Date(2026, 3, 3, 15, 0, 0, 0, buc),
		},
		{
			name: "boundary minute with seconds still resolves to today",
			now:  time.Date(2026, 3, 3, 15, 0, 45, 0, buc),
			day:  time.Tuesday, hour: 15, minute: 0,
			want: time.Date(2026, 3, 3, 15, 0, 0, 0, buc),
		},
		{
			name: "target weekday earlier in the week",
			now:  time.Date(2026, 3, 3, 12, 0, 0, 0, buc),
			day:  time.Monday, hour: 9, minute: 30,
			want: time.Date(2026, 3, 9, 9, 30, 0, 0, buc),
		},
		{
			name: "crosses a year boundary",
			now:  time.Date(2026, 1, 1, 12, 0, 0, 0, buc),
			day:  time.Wednesday, hour: 10, minute: 0,
			want: time.Date(2026, 1, 7, 10, 0, 0, 0, buc),
		},
		{
			name: "crosses the spring DST transition",
			now:  time.Date(2026, 3, 28, 12, 0, 0, 0, buc),
			day:  time.Sunday, hour: 5, minute: 0,
			want: time.Date(2026, 3, 29, 5, 0, 0, 0, buc),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(tt.day, tt.hour, tt.minute, buc, tt.now)
			if !got.Equal(tt.want) {
				t.Fatalf("NextOccurrence = %v, want %v", got, tt.want)
			}
			if got.Weekday() != tt.day {
				t.Fatalf("weekday = %v, want %v", got.Weekday(), tt.day)
			}
		})
	}
}

func TestNextOccurrenceWithinSevenDays(t *testing.T) {
	t.Parallel()
	buc := mustLoc(t, "Europe/Bucharest")
	now := time.Date(2026, 3, 3, 18, 30, 0, 0, buc)

	for d := time.Sunday; d <= time.Saturday; d++ {
		got := NextOccurrence(d, 12, 15, buc, now)
		if got.Before(now.Add(-time.Minute)) {
			t.Fatalf("day %v: occurrence %v is in the past (now %v)", d, got, now)
		}
		if got.After(now.AddDate(0, 0, 7)) {
			t.Fatalf("day %v: occurrence %v is more than 7 days ahead", d, got)
		}
		if got.Weekday() != d {
			t.Fatalf("day %v: got weekday %v", d, got.Weekday())
		}
	}
}

func TestDeriveLeadTime(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		hour    int
		minute  int
		day     time.Weekday
		lead    int
		wantH   int
		wantM   int
		wantDay time.Weekday
	}{
		{name: "no underflow", hour: 15, minute: 0, day: time.Tuesday, lead: 15, wantH: 14, wantM: 45, wantDay: time.Tuesday},
		{name: "minute and hour and day rollover", hour: 0, minute: 10, day: time.Monday, lead: 15, wantH: 23, wantM: 55, wantDay: time.Sunday},
		{name: "minute rollover only", hour: 10, minute: 5, day: time.Wednesday, lead: 15, wantH: 9, wantM: 50, wantDay: time.Wednesday},
		{name: "sunday wraps to saturday", hour: 0, minute: 0, day: time.Sunday, lead: 15, wantH: 23, wantM: 45, wantDay: time.Saturday},
		{name: "zero lead is identity", hour: 8, minute: 30, day: time.Friday, lead: 0, wantH: 8, wantM: 30, wantDay: time.Friday},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			h, m, d := DeriveLeadTime(tt.hour, tt.minute, tt.day, tt.lead)
			if h != tt.wantH || m != tt.wantM || d != tt.wantDay {
				t.Fatalf("DeriveLeadTime = (%d, %d, %v), want (%d, %d, %v)",
					h, m, d, tt.wantH, tt.wantM, tt.wantDay)
			}
		})
	}
}

func TestParseDay(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want time.Weekday
	}{
		{"Tuesday", time.Tuesday},
		{"tuesday", time.Tuesday},
		{" Sunday ", time.Sunday},
		{"marți", time.Tuesday},
		{"marti", time.Tuesday},
		{"duminica", time.Sunday},
		{"sâmbătă", time.Saturday},
	}
	for _, tt := range tests {
		got, err := ParseDay(tt.in)
		if err != nil {
			t.Fatalf("ParseDay(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseDay(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseDay("Someday"); err == nil {
		t.Fatal("expected error for unknown day name")
	}
}

func TestParseHHMM(t *testing.T) {
	t.Parallel()
	h, m, err := ParseHHMM("23:15")
	if err != nil {
		t.Fatalf("ParseHHMM error: %v", err)
	}
	if h != 23 || m != 15 {
		t.Fatalf("unexpected result: %d:%d", h, m)
	}

	for _, bad := range []string{"24:00", "12:60", "12", "a:b", "12:00:00"} {
		if _, _, err := ParseHHMM(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
