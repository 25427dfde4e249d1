package reminder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// TimedReminder configures a fixed-time reminder kind.
type TimedReminder struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time" validate:"required,hhmm"`
}

// IntervalReminder configures the interval-driven water reminder.
type IntervalReminder struct {
	Enabled       bool `json:"enabled"`
	IntervalHours int  `json:"interval_hours" validate:"min=1"`
}

// Settings is the single per-user reminder settings record. It is persisted
// whole through the settings store and copied to the backend broker alongside
// the push subscription.
type Settings struct {
	Enabled bool `json:"enabled"`

	Breakfast  TimedReminder `json:"breakfast"`
	Lunch      TimedReminder `json:"lunch"`
	Dinner     TimedReminder `json:"dinner"`
	Weight     TimedReminder `json:"weight"`
	Sleep      TimedReminder `json:"sleep"`
	Motivation TimedReminder `json:"motivation"`

	Water IntervalReminder `json:"water"`
}

// DefaultSettings returns the settings applied before the user has saved
// anything: everything enabled at the stock times.
func DefaultSettings() Settings {
	return Settings{
		Enabled:    true,
		Breakfast:  TimedReminder{Enabled: true, Time: "08:00"},
		Lunch:      TimedReminder{Enabled: true, Time: "13:00"},
		Dinner:     TimedReminder{Enabled: true, Time: "20:00"},
		Weight:     TimedReminder{Enabled: true, Time: "07:30"},
		Sleep:      TimedReminder{Enabled: true, Time: "22:00"},
		Motivation: TimedReminder{Enabled: true, Time: "09:00"},
		Water:      IntervalReminder{Enabled: true, IntervalHours: 2},
	}
}

// Timed returns the fixed-time reminder config for the given kind.
func (s Settings) Timed(kind Kind) (TimedReminder, bool) {
	switch kind {
	case KindBreakfast:
		return s.Breakfast, true
	case KindLunch:
		return s.Lunch, true
	case KindDinner:
		return s.Dinner, true
	case KindWeight:
		return s.Weight, true
	case KindSleep:
		return s.Sleep, true
	case KindMotivation:
		return s.Motivation, true
	}
	return TimedReminder{}, false
}

// EnabledFixed returns the fixed-time kinds that should currently be armed,
// honoring both the master switch and the per-kind flag.
func (s Settings) EnabledFixed() map[Kind]TimedReminder {
	out := make(map[Kind]TimedReminder)
	if !s.Enabled {
		return out
	}

	for _, kind := range FixedKinds {
		cfg, ok := s.Timed(kind)
		if ok && cfg.Enabled {
			out[kind] = cfg
		}
	}

	return out
}

// WaterEnabled reports whether the interval reminder should be armed.
func (s Settings) WaterEnabled() bool {
	return s.Enabled && s.Water.Enabled && s.Water.IntervalHours >= 1
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	})
}

// Validate checks the structural invariants: every time is a valid 24-hour
// HH:MM and the water interval is positive.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validate reminder settings: %w", err)
	}
	return nil
}

// ParseClock splits an HH:MM string into hour and minute components.
func ParseClock(value string) (hour, minute int, err error) {
	if !clockPattern.MatchString(value) {
		return 0, 0, fmt.Errorf("invalid clock time %q, expected HH:MM", value)
	}

	parts := strings.SplitN(value, ":", 2)
	hour, _ = strconv.Atoi(parts[0])
	minute, _ = strconv.Atoi(parts[1])
	return hour, minute, nil
}
