package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettingsValidate(t *testing.T) {
	s := DefaultSettings()
	assert.NoError(t, s.Validate())

	s.Lunch.Time = "25:00"
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.Dinner.Time = "8:00"
	assert.Error(t, s.Validate(), "single-digit hour is not valid HH:MM")

	s = DefaultSettings()
	s.Water.IntervalHours = 0
	assert.Error(t, s.Validate())
}

func TestParseClock(t *testing.T) {
	hour, minute, err := ParseClock("07:45")
	assert.NoError(t, err)
	assert.Equal(t, 7, hour)
	assert.Equal(t, 45, minute)

	_, _, err = ParseClock("24:00")
	assert.Error(t, err)

	_, _, err = ParseClock("nope")
	assert.Error(t, err)
}

func TestEnabledFixed(t *testing.T) {
	s := DefaultSettings()
	s.Water.Enabled = false
	s.Sleep.Enabled = false

	enabled := s.EnabledFixed()
	assert.Len(t, enabled, 5)
	assert.Contains(t, enabled, KindBreakfast)
	assert.NotContains(t, enabled, KindSleep)
	assert.NotContains(t, enabled, KindWater)

	s.Enabled = false
	assert.Empty(t, s.EnabledFixed(), "master switch off disables every kind")
	assert.False(t, s.WaterEnabled())
}
