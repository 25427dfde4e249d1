package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/reminder-service/internal/reminder"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type waiter struct {
	at time.Time
	ch chan time.Time
}

// fakeClock drives timer loops without wall-clock sleeps. Every After call
// signals parked, so tests can wait until a loop is blocked before advancing.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*waiter

	parked chan struct{}
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start, parked: make(chan struct{}, 64)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	w := &waiter{at: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	c.parked <- struct{}{}
	return w.ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)

	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.at.After(c.now) {
			w.ch <- c.now
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
}

func (c *fakeClock) waitParked(t *testing.T) {
	t.Helper()
	select {
	case <-c.parked:
	case <-time.After(2 * time.Second):
		t.Fatal("timer loop never parked on the clock")
	}
}

type fakeGate struct {
	mu        sync.Mutex
	delivered []reminder.Kind
}

func (g *fakeGate) SmartDeliver(ctx context.Context, kind reminder.Kind) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delivered = append(g.delivered, kind)
	return nil
}

func (g *fakeGate) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.delivered)
}

func onlyBreakfast(at string) reminder.Settings {
	s := reminder.Settings{Enabled: true}
	s.Breakfast = reminder.TimedReminder{Enabled: true, Time: at}
	s.Lunch.Time, s.Dinner.Time, s.Weight.Time, s.Sleep.Time, s.Motivation.Time = "13:00", "20:00", "07:30", "22:00", "09:00"
	return s
}

func TestArm_PassedTimeRollsToTomorrow(t *testing.T) {
	// Local time 09:00; breakfast configured for 08:00 has already passed.
	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	sched := New(clock, &fakeGate{}, time.UTC, testLogger())
	defer sched.StopAll()

	require.NoError(t, sched.Arm(reminder.KindBreakfast, "08:00"))
	clock.waitParked(t)

	fireAt, ok := sched.NextFire(reminder.KindBreakfast)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.March, 11, 8, 0, 0, 0, time.UTC), fireAt)
	assert.True(t, fireAt.After(start))
}

func TestArm_FutureTimeFiresToday(t *testing.T) {
	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	sched := New(clock, &fakeGate{}, time.UTC, testLogger())
	defer sched.StopAll()

	require.NoError(t, sched.Arm(reminder.KindLunch, "13:00"))
	clock.waitParked(t)

	fireAt, ok := sched.NextFire(reminder.KindLunch)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.March, 10, 13, 0, 0, 0, time.UTC), fireAt)
}

func TestRearmAll_OneTimerPerEnabledKind(t *testing.T) {
	clock := newFakeClock(time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC))
	sched := New(clock, &fakeGate{}, time.UTC, testLogger())
	defer sched.StopAll()

	settings := onlyBreakfast("08:00")
	settings.Water = reminder.IntervalReminder{Enabled: false, IntervalHours: 2}

	sched.RearmAll(settings)
	clock.waitParked(t)

	assert.Equal(t, []reminder.Kind{reminder.KindBreakfast}, sched.Armed())

	_, hasWater := sched.NextFire(reminder.KindWater)
	assert.False(t, hasWater, "disabled kinds own no timer")

	// Re-arming twice never stacks loops for a kind.
	sched.RearmAll(settings)
	clock.waitParked(t)
	assert.Equal(t, []reminder.Kind{reminder.KindBreakfast}, sched.Armed())
}

func TestRearmAll_MasterSwitchOff(t *testing.T) {
	clock := newFakeClock(time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC))
	sched := New(clock, &fakeGate{}, time.UTC, testLogger())

	settings := reminder.DefaultSettings()
	settings.Enabled = false

	sched.RearmAll(settings)
	assert.Empty(t, sched.Armed())
}

func TestStopAll_ClearsRegistry(t *testing.T) {
	clock := newFakeClock(time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC))
	sched := New(clock, &fakeGate{}, time.UTC, testLogger())

	require.NoError(t, sched.Arm(reminder.KindBreakfast, "10:00"))
	require.NoError(t, sched.ArmRecurring(reminder.KindWater, 2))
	clock.waitParked(t)
	clock.waitParked(t)

	assert.Len(t, sched.Armed(), 2)

	sched.StopAll()
	assert.Empty(t, sched.Armed())
}

func TestFixedLoop_FiresThenRearmsNextDay(t *testing.T) {
	clock := newFakeClock(time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC))
	gate := &fakeGate{}
	sched := New(clock, gate, time.UTC, testLogger())
	defer sched.StopAll()

	require.NoError(t, sched.Arm(reminder.KindDinner, "13:00"))
	clock.waitParked(t)

	clock.Advance(time.Hour)
	clock.waitParked(t)

	assert.Equal(t, 1, gate.count())

	fireAt, ok := sched.NextFire(reminder.KindDinner)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.March, 11, 13, 0, 0, 0, time.UTC), fireAt)
}

func TestRecurringLoop_SkipsOutsideWakingWindow(t *testing.T) {
	// Ticks land at 01:00, 03:00, 05:00, 07:00 (all skipped) then 09:00.
	clock := newFakeClock(time.Date(2025, time.March, 10, 23, 0, 0, 0, time.UTC))
	gate := &fakeGate{}
	sched := New(clock, gate, time.UTC, testLogger())
	defer sched.StopAll()

	require.NoError(t, sched.ArmRecurring(reminder.KindWater, 2))
	clock.waitParked(t)

	for i := 0; i < 4; i++ {
		clock.Advance(2 * time.Hour)
		clock.waitParked(t)
		assert.Zero(t, gate.count(), "tick %d fell outside waking hours", i)
	}

	clock.Advance(2 * time.Hour)
	clock.waitParked(t)
	assert.Equal(t, 1, gate.count(), "09:00 tick delivers")
}

func TestArmRecurring_RejectsSubHourInterval(t *testing.T) {
	sched := New(newFakeClock(time.Now()), &fakeGate{}, time.UTC, testLogger())
	assert.Error(t, sched.ArmRecurring(reminder.KindWater, 0))
	assert.Empty(t, sched.Armed())
}
