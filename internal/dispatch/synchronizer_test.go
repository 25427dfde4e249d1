package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Proton-105/reminder-service/internal/errors"
	"github.com/Proton-105/reminder-service/internal/reminder"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDispatcher struct {
	jobs   map[int64]Job
	nextID int64

	createErr error
	deleteErr error
	updateErr error

	creates, updates, deletes int
}

var _ Client = (*fakeDispatcher)(nil)

func newFakeDispatcher(jobs ...Job) *fakeDispatcher {
	f := &fakeDispatcher{jobs: make(map[int64]Job), nextID: 1}
	for _, job := range jobs {
		job.ID = f.nextID
		f.jobs[job.ID] = job
		f.nextID++
	}
	return f
}

func (f *fakeDispatcher) ListJobs(ctx context.Context) ([]Job, error) {
	out := make([]Job, 0, len(f.jobs))
	for _, job := range f.jobs {
		out = append(out, job)
	}
	return out, nil
}

func (f *fakeDispatcher) CreateJob(ctx context.Context, job Job) error {
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	job.ID = f.nextID
	f.jobs[job.ID] = job
	f.nextID++
	return nil
}

func (f *fakeDispatcher) UpdateJob(ctx context.Context, job Job) error {
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeDispatcher) DeleteJob(ctx context.Context, id int64) error {
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.jobs, id)
	return nil
}

func (f *fakeDispatcher) titles() map[string]Job {
	out := make(map[string]Job)
	for _, job := range f.jobs {
		out[job.Title] = job
	}
	return out
}

func onlySettings(kinds map[reminder.Kind]string) reminder.Settings {
	s := reminder.DefaultSettings()
	s.Breakfast = reminder.TimedReminder{Enabled: false, Time: "08:00"}
	s.Lunch = reminder.TimedReminder{Enabled: false, Time: "13:00"}
	s.Dinner = reminder.TimedReminder{Enabled: false, Time: "20:00"}
	s.Weight = reminder.TimedReminder{Enabled: false, Time: "07:30"}
	s.Sleep = reminder.TimedReminder{Enabled: false, Time: "22:00"}
	s.Motivation = reminder.TimedReminder{Enabled: false, Time: "09:00"}
	s.Water.Enabled = false

	for kind, clock := range kinds {
		switch kind {
		case reminder.KindBreakfast:
			s.Breakfast = reminder.TimedReminder{Enabled: true, Time: clock}
		case reminder.KindLunch:
			s.Lunch = reminder.TimedReminder{Enabled: true, Time: clock}
		case reminder.KindDinner:
			s.Dinner = reminder.TimedReminder{Enabled: true, Time: clock}
		case reminder.KindWeight:
			s.Weight = reminder.TimedReminder{Enabled: true, Time: clock}
		case reminder.KindSleep:
			s.Sleep = reminder.TimedReminder{Enabled: true, Time: clock}
		case reminder.KindMotivation:
			s.Motivation = reminder.TimedReminder{Enabled: true, Time: clock}
		}
	}
	return s
}

func TestCronSpec(t *testing.T) {
	tests := []struct {
		clock string
		want  string
		ok    bool
	}{
		{clock: "08:00", want: "0 8 * * *", ok: true},
		{clock: "13:45", want: "45 13 * * *", ok: true},
		{clock: "00:00", want: "0 0 * * *", ok: true},
		{clock: "23:59", want: "59 23 * * *", ok: true},
		{clock: "24:00", ok: false},
		{clock: "8am", ok: false},
	}

	for _, tt := range tests {
		spec, err := CronSpec(tt.clock)
		if !tt.ok {
			assert.Error(t, err, "clock %s", tt.clock)
			continue
		}
		assert.NoError(t, err, "clock %s", tt.clock)
		assert.Equal(t, tt.want, spec)
	}
}

func TestBuildTargetExcludesIntervalKind(t *testing.T) {
	target, err := BuildTarget(reminder.DefaultSettings(), "https://tracker.example")
	require.NoError(t, err)

	assert.Len(t, target, len(reminder.FixedKinds))
	_, hasWater := target[reminder.KindWater]
	assert.False(t, hasWater, "interval kind must never become a dispatcher job")

	assert.Equal(t, "https://tracker.example/api/reminders/fire/breakfast", target[reminder.KindBreakfast].URL)
}

func TestReconcileConvergesToTarget(t *testing.T) {
	// Dispatcher holds {breakfast, lunch}; target is {lunch, weight}.
	breakfastJob, err := BuildTarget(onlySettings(map[reminder.Kind]string{reminder.KindBreakfast: "08:00"}), "https://tracker.example")
	require.NoError(t, err)
	lunchJob, err := BuildTarget(onlySettings(map[reminder.Kind]string{reminder.KindLunch: "13:00"}), "https://tracker.example")
	require.NoError(t, err)

	dispatcher := newFakeDispatcher(breakfastJob[reminder.KindBreakfast], lunchJob[reminder.KindLunch])
	sync := NewSynchronizer(dispatcher, "https://tracker.example", testLogger())

	settings := onlySettings(map[reminder.Kind]string{
		reminder.KindLunch:  "13:00",
		reminder.KindWeight: "07:30",
	})

	summary, err := sync.Reconcile(context.Background(), settings)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Created, "weight is new")
	assert.Equal(t, 1, summary.Deleted, "breakfast is gone")
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, 1, summary.Unchanged, "lunch untouched")

	titles := dispatcher.titles()
	assert.Len(t, titles, 2)
	assert.Contains(t, titles, "reminder:lunch")
	assert.Contains(t, titles, "reminder:weight")
}

func TestReconcileSecondRunIsNoop(t *testing.T) {
	dispatcher := newFakeDispatcher()
	sync := NewSynchronizer(dispatcher, "https://tracker.example", testLogger())
	settings := reminder.DefaultSettings()

	_, err := sync.Reconcile(context.Background(), settings)
	require.NoError(t, err)

	dispatcher.creates, dispatcher.updates, dispatcher.deletes = 0, 0, 0

	summary, err := sync.Reconcile(context.Background(), settings)
	require.NoError(t, err)

	assert.Zero(t, dispatcher.creates)
	assert.Zero(t, dispatcher.updates)
	assert.Zero(t, dispatcher.deletes)
	assert.Equal(t, len(reminder.FixedKinds), summary.Unchanged)
}

func TestReconcileUpdatesChangedTime(t *testing.T) {
	dispatcher := newFakeDispatcher()
	sync := NewSynchronizer(dispatcher, "https://tracker.example", testLogger())

	_, err := sync.Reconcile(context.Background(), onlySettings(map[reminder.Kind]string{reminder.KindDinner: "20:00"}))
	require.NoError(t, err)

	summary, err := sync.Reconcile(context.Background(), onlySettings(map[reminder.Kind]string{reminder.KindDinner: "19:30"}))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, "30 19 * * *", dispatcher.titles()["reminder:dinner"].Cron)
}

func TestReconcileIgnoresForeignJobs(t *testing.T) {
	foreign := Job{Title: "backup-nightly", URL: "https://elsewhere.example/run", Cron: "0 3 * * *", Enabled: true}
	dispatcher := newFakeDispatcher(foreign)
	sync := NewSynchronizer(dispatcher, "https://tracker.example", testLogger())

	_, err := sync.Reconcile(context.Background(), onlySettings(nil))
	require.NoError(t, err)

	assert.Zero(t, dispatcher.deletes, "jobs without the reminder prefix are never touched")
	assert.Contains(t, dispatcher.titles(), "backup-nightly")
}

func TestReconcilePartialFailure(t *testing.T) {
	dispatcher := newFakeDispatcher()
	dispatcher.createErr = errors.New("dispatcher 502")
	sync := NewSynchronizer(dispatcher, "https://tracker.example", testLogger())

	settings := onlySettings(map[reminder.Kind]string{
		reminder.KindBreakfast: "08:00",
		reminder.KindLunch:     "13:00",
	})

	summary, err := sync.Reconcile(context.Background(), settings)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E400", appErr.Code)
	assert.True(t, appErr.Retryable)
	assert.Equal(t, 2, summary.Failed)

	// The next run completes what this one could not.
	dispatcher.createErr = nil
	summary, err = sync.Reconcile(context.Background(), settings)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Created)
}
