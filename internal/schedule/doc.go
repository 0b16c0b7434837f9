// Package schedule is the recurring-event engine: it maps the admin-facing
// weekly schedule (day name, HH:MM, IANA timezone) onto concrete fire rules,
// derives the pre-event reminder 15 minutes ahead with day/hour rollover,
// keeps the cron runner's named jobs in sync with the current configuration,
// and answers "when does each job fire next" for the admin preview.
package schedule
