// Package scheduler arms and drives the in-process reminder timers. Each
// armed kind owns exactly one timer loop: compute next fire, sleep until it,
// deliver, repeat.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Proton-105/reminder-service/internal/reminder"
	"github.com/Proton-105/reminder-service/pkg/metrics"
)

var errIntervalTooSmall = errors.New("reminder interval must be at least one hour")

// Deliverer renders a reminder at fire time. The delivery gate implements
// this; its permission and suppression checks run at fire time, never at arm
// time, so arming never depends on current permission state.
type Deliverer interface {
	SmartDeliver(ctx context.Context, kind reminder.Kind) error
}

type entry struct {
	cancel context.CancelFunc

	mu     sync.Mutex
	fireAt time.Time
}

func (e *entry) setFireAt(at time.Time) {
	e.mu.Lock()
	e.fireAt = at
	e.mu.Unlock()
}

func (e *entry) nextFire() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fireAt
}

// Scheduler owns the mapping from reminder kind to its live timer loop.
// Construct one per process and pass it by reference; there is no global
// registry.
type Scheduler struct {
	clock Clock
	gate  Deliverer
	log   *slog.Logger
	loc   *time.Location

	mu      sync.Mutex
	entries map[reminder.Kind]*entry
}

// New constructs a Scheduler delivering through gate, using clock for all
// time arithmetic and loc as the user's local timezone.
func New(clock Clock, gate Deliverer, loc *time.Location, log *slog.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock()
	}
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}

	return &Scheduler{
		clock:   clock,
		gate:    gate,
		log:     log,
		loc:     loc,
		entries: make(map[reminder.Kind]*entry),
	}
}

// Arm schedules the fixed-time kind at the given HH:MM local time. A moment
// already passed today rolls forward exactly one day. Arming a kind cancels
// its previous timer, so at most one loop per kind is ever live.
func (s *Scheduler) Arm(kind reminder.Kind, at string) error {
	hour, minute, err := reminder.ParseClock(at)
	if err != nil {
		return err
	}

	ctx, e := s.register(kind)
	go s.runFixed(ctx, e, kind, hour, minute)

	s.log.Info("armed fixed reminder", slog.String("kind", string(kind)), slog.String("at", at))
	return nil
}

// ArmRecurring schedules the interval kind on a fixed cadence. Ticks outside
// the waking window are skipped without rescheduling; the cadence never
// shifts.
func (s *Scheduler) ArmRecurring(kind reminder.Kind, intervalHours int) error {
	if intervalHours < 1 {
		return errIntervalTooSmall
	}

	interval := time.Duration(intervalHours) * time.Hour

	ctx, e := s.register(kind)
	go s.runRecurring(ctx, e, kind, interval)

	s.log.Info("armed recurring reminder", slog.String("kind", string(kind)), slog.Duration("interval", interval))
	return nil
}

// RearmAll cancels every live timer and re-arms from scratch according to
// settings. This is the only path used after a settings mutation; no old/new
// schedule diffing.
func (s *Scheduler) RearmAll(settings reminder.Settings) {
	s.StopAll()

	for kind, cfg := range settings.EnabledFixed() {
		if err := s.Arm(kind, cfg.Time); err != nil {
			s.log.Error("failed to arm reminder", slog.String("kind", string(kind)), slog.Any("error", err))
		}
	}

	if settings.WaterEnabled() {
		if err := s.ArmRecurring(reminder.KindWater, settings.Water.IntervalHours); err != nil {
			s.log.Error("failed to arm water reminder", slog.Any("error", err))
		}
	}
}

// StopAll cancels every timer and clears the registry. A fire already queued
// may still complete once; the gate's checks make a stray fire inert.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for kind, e := range s.entries {
		e.cancel()
		delete(s.entries, kind)
	}

	metrics.SetArmedTimers(0)
}

// Armed returns the kinds that currently own a live timer, sorted.
func (s *Scheduler) Armed() []reminder.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()

	kinds := make([]reminder.Kind, 0, len(s.entries))
	for kind := range s.entries {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	return kinds
}

// NextFire reports the next computed fire instant for an armed kind.
func (s *Scheduler) NextFire(kind reminder.Kind) (time.Time, bool) {
	s.mu.Lock()
	e, ok := s.entries[kind]
	s.mu.Unlock()

	if !ok {
		return time.Time{}, false
	}
	return e.nextFire(), true
}

func (s *Scheduler) register(kind reminder.Kind) (context.Context, *entry) {
	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.entries[kind]; ok {
		prev.cancel()
	}
	s.entries[kind] = e
	metrics.SetArmedTimers(len(s.entries))
	s.mu.Unlock()

	return ctx, e
}

func (s *Scheduler) runFixed(ctx context.Context, e *entry, kind reminder.Kind, hour, minute int) {
	for {
		now := s.clock.Now().In(s.loc)
		fireAt := reminder.NextFixedFire(now, hour, minute)
		e.setFireAt(fireAt)

		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(fireAt.Sub(now)):
			s.fire(ctx, kind)
		}
	}
}

func (s *Scheduler) runRecurring(ctx context.Context, e *entry, kind reminder.Kind, interval time.Duration) {
	for {
		e.setFireAt(s.clock.Now().In(s.loc).Add(interval))

		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(interval):
			local := s.clock.Now().In(s.loc)
			if !reminder.InWakingWindow(local) {
				s.log.Debug("skipping reminder outside waking hours", slog.String("kind", string(kind)), slog.Int("hour", local.Hour()))
				metrics.RecordReminderSkipped(string(kind))
				continue
			}
			s.fire(ctx, kind)
		}
	}
}

// fire invokes the delivery gate. Failures degrade to a logged skip; the
// loop continues regardless.
func (s *Scheduler) fire(ctx context.Context, kind reminder.Kind) {
	if s.gate == nil {
		return
	}

	if err := s.gate.SmartDeliver(ctx, kind); err != nil {
		s.log.Warn("reminder delivery failed", slog.String("kind", string(kind)), slog.Any("error", err))
	}
}
