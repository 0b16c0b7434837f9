package dispatch

import (
	"fmt"
	"strings"
	"time"

	"webinarbot/internal/schedule"
	"webinarbot/internal/store"
)

// Audience-facing texts are Romanian, so dates are rendered with Romanian
// day and month names rather than time.Format's English ones.
var roDays = [7]string{
	"duminică", "luni", "marți", "miercuri", "joi", "vineri", "sâmbătă",
}

var roMonths = [13]string{
	"",
	"ianuarie", "februarie", "martie", "aprilie", "mai", "iunie",
	"iulie", "august", "septembrie", "octombrie", "noiembrie", "decembrie",
}

// DayName returns the Romanian name of the weekday.
func DayName(d time.Weekday) string {
	return roDays[int(d)%7]
}

// FormatDate renders t as e.g. "3 martie 2026".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), roMonths[t.Month()], t.Year())
}

// Render substitutes the template placeholders with the participant's data
// and the upcoming occurrence. Unknown placeholders pass through untouched.
//
// Supported: {first_name} {last_name} {next_webinar_date} {webinar_day}
// {webinar_time}.
func Render(tmpl string, p store.Participant, occ schedule.Occurrence) string {
	r := strings.NewReplacer(
		"{first_name}", p.FirstName,
		"{last_name}", p.LastName,
		"{next_webinar_date}", FormatDate(occ.Next),
		"{webinar_day}", DayName(occ.Day),
		"{webinar_time}", occ.TimeOfDay,
	)
	return r.Replace(tmpl)
}
