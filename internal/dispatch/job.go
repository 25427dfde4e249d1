// Package dispatch reconciles the enabled reminder schedule against an
// external cron dispatcher, so fixed-time reminders also fire when the
// application process is down.
package dispatch

import (
	"fmt"
	"strings"

	cron "github.com/robfig/cron/v3"

	"github.com/Proton-105/reminder-service/internal/reminder"
)

// titlePrefix marks the jobs this service owns on the dispatcher. Jobs
// without the prefix belong to somebody else and are never touched.
const titlePrefix = "reminder:"

// Job is one externally-triggered schedule entry. Identity is the title
// derived from the reminder kind, which makes reconciliation idempotent.
type Job struct {
	ID      int64  `json:"id,omitempty"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Cron    string `json:"cron"`
	Enabled bool   `json:"enabled"`
}

// JobTitle derives the dispatcher-visible identity for a reminder kind.
func JobTitle(kind reminder.Kind) string {
	return titlePrefix + string(kind)
}

// KindFromTitle recovers the reminder kind from a job title, reporting false
// for jobs this service does not own.
func KindFromTitle(title string) (reminder.Kind, bool) {
	name, ok := strings.CutPrefix(title, titlePrefix)
	if !ok {
		return "", false
	}

	kind := reminder.Kind(name)
	return kind, kind.Valid()
}

// CronSpec renders a daily fixed-time trigger in standard five-field cron
// syntax and verifies it parses.
func CronSpec(clock string) (string, error) {
	hour, minute, err := reminder.ParseClock(clock)
	if err != nil {
		return "", err
	}

	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	if _, err := cron.ParseStandard(spec); err != nil {
		return "", fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	return spec, nil
}

// BuildTarget computes the job set current settings require: one enabled job
// per enabled fixed-time kind. The interval kind never appears, the
// dispatcher only supports fixed-time triggers.
func BuildTarget(settings reminder.Settings, targetBaseURL string) (map[reminder.Kind]Job, error) {
	target := make(map[reminder.Kind]Job)

	for kind, cfg := range settings.EnabledFixed() {
		spec, err := CronSpec(cfg.Time)
		if err != nil {
			return nil, fmt.Errorf("build job for %s: %w", kind, err)
		}

		target[kind] = Job{
			Title:   JobTitle(kind),
			URL:     fmt.Sprintf("%s/api/reminders/fire/%s", strings.TrimRight(targetBaseURL, "/"), kind),
			Cron:    spec,
			Enabled: true,
		}
	}

	return target, nil
}
