package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv builds an initial config document from environment variables.
// Used on first run when config.json does not exist yet; the result is saved
// so later admin edits have a file to persist into.
func FromEnv() *Config {
	cfg := &Config{
		Token:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdminIDs: parseAdminIDs(os.Getenv("ADMIN_IDS")),
		Logging: Logging{
			Level:   envOr("LOG_LEVEL", "info"),
			Console: true,
			File: LoggingFile{
				Enabled: os.Getenv("LOG_FILE") != "",
				Path:    os.Getenv("LOG_FILE"),
			},
		},
		Webinar: Webinar{
			Day:      envOr("WEBINAR_DAY", "Tuesday"),
			Time:     envOr("WEBINAR_TIME", "19:00"),
			Timezone: envOr("WEBINAR_TIMEZONE", "Europe/Bucharest"),
			Link:     os.Getenv("WEBINAR_LINK"),
		},
		Sheets: Sheets{
			Enabled: strings.EqualFold(os.Getenv("SHEETS_ENABLED"), "true"),
			URL:     os.Getenv("SHEETS_URL"),
			Token:   os.Getenv("SHEETS_TOKEN"),
		},
	}
	if d, t := os.Getenv("REMINDER_DAY_DAY"), os.Getenv("REMINDER_DAY_TIME"); d != "" && t != "" {
		cfg.Reminders.Day = &DayReminder{Day: d, Time: t}
	}
	cfg.ApplyDefaults()
	return cfg
}

func parseAdminIDs(s string) []int64 {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
