package config

import "strings"

// Config is the persisted configuration document (config.json).
//
// It is owned by the admin-facing command layer: handlers mutate it through
// Manager.Update and the scheduling core only ever reads snapshots of it.
type Config struct {
	Token     string    `json:"token"`
	AdminIDs  []int64   `json:"admin_ids"`
	Telegram  Telegram  `json:"telegram"`
	Logging   Logging   `json:"logging"`
	Webinar   Webinar   `json:"webinar"`
	Reminders Reminders `json:"reminders"`
	Messages  Messages  `json:"messages"`
	Sheets    Sheets    `json:"sheets"`
}

type Telegram struct {
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type Logging struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Webinar is the primary event schedule: a weekly occurrence described the way
// an admin types it (weekday name, wall-clock HH:MM, IANA timezone).
type Webinar struct {
	Day      string `json:"day"`
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
	Link     string `json:"link,omitempty"`
}

// Reminders carries the optional override for the day-of reminder. The
// pre-event reminder has no configuration of its own: it is always derived as
// 15 minutes before the webinar time.
type Reminders struct {
	Day *DayReminder `json:"day,omitempty"`
}

type DayReminder struct {
	Day  string `json:"day"`
	Time string `json:"time"`
}

type Messages struct {
	Welcome       string `json:"welcome"`
	Info          string `json:"info"`
	ReminderDay   string `json:"reminder_day"`
	Reminder15Min string `json:"reminder_15min"`
}

// ByKind returns the template for a message kind key
// (welcome|info|reminder_day|reminder_15min), or "" for unknown kinds.
func (m Messages) ByKind(kind string) string {
	switch kind {
	case "welcome":
		return m.Welcome
	case "info":
		return m.Info
	case "reminder_day":
		return m.ReminderDay
	case "reminder_15min":
		return m.Reminder15Min
	default:
		return ""
	}
}

// SetByKind updates the template for a known kind and reports whether the kind
// was recognized.
func (m *Messages) SetByKind(kind, text string) bool {
	switch kind {
	case "welcome":
		m.Welcome = text
	case "info":
		m.Info = text
	case "reminder_day":
		m.ReminderDay = text
	case "reminder_15min":
		m.Reminder15Min = text
	default:
		return false
	}
	return true
}

type Sheets struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Token   string `json:"token,omitempty"`
	// Timeout is a Go duration string for one export call.
	Timeout string `json:"timeout,omitempty"`
}

func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ApplyDefaults fills the documented fallbacks for fields an admin may never
// have set. It never overrides an explicit value.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Webinar.Day) == "" {
		c.Webinar.Day = "Tuesday"
	}
	if strings.TrimSpace(c.Webinar.Time) == "" {
		c.Webinar.Time = "19:00"
	}
	if strings.TrimSpace(c.Webinar.Timezone) == "" {
		c.Webinar.Timezone = "Europe/Bucharest"
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	if c.Messages.Welcome == "" {
		c.Messages.Welcome = defaultWelcome
	}
	if c.Messages.Info == "" {
		c.Messages.Info = defaultInfo
	}
	if c.Messages.ReminderDay == "" {
		c.Messages.ReminderDay = defaultReminderDay
	}
	if c.Messages.Reminder15Min == "" {
		c.Messages.Reminder15Min = defaultReminder15Min
	}
}

// Clone returns a deep copy so that Update mutations never alias the snapshot
// other goroutines are reading.
func (c *Config) Clone() *Config {
	cp := *c
	cp.AdminIDs = append([]int64(nil), c.AdminIDs...)
	if c.Reminders.Day != nil {
		d := *c.Reminders.Day
		cp.Reminders.Day = &d
	}
	return &cp
}

const (
	defaultWelcome = "Bun venit, {first_name}! Te-ai înregistrat la webinar.\n" +
		"Următorul webinar: {webinar_day}, {next_webinar_date}, ora {webinar_time}."
	defaultInfo          = "Următorul webinar are loc {webinar_day}, {next_webinar_date}, ora {webinar_time}."
	defaultReminderDay   = "Reminder: webinarul are loc azi, {next_webinar_date}, ora {webinar_time}!"
	defaultReminder15Min = "Reminder: webinarul începe în 15 minute!"
)
