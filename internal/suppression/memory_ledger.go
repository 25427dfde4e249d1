package suppression

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Proton-105/reminder-service/internal/reminder"
)

// MemoryLedger is an in-process Ledger for tests and Redis-less runs.
type MemoryLedger struct {
	mu      sync.RWMutex
	markers map[string]struct{}
}

var _ Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{markers: make(map[string]struct{})}
}

// MarkSatisfied records the (kind, date) marker.
func (l *MemoryLedger) MarkSatisfied(ctx context.Context, kind reminder.Kind, date time.Time) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown reminder kind %q", kind)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.markers[memoryKey(kind, date)] = struct{}{}
	return nil
}

// IsSatisfied reports whether the (kind, date) marker exists.
func (l *MemoryLedger) IsSatisfied(ctx context.Context, kind reminder.Kind, date time.Time) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.markers[memoryKey(kind, date)]
	return ok, nil
}

// PurgeBefore removes markers dated before cutoff's calendar day.
func (l *MemoryLedger) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	cutoffDay := reminder.DateKey(cutoff)

	l.mu.Lock()
	defer l.mu.Unlock()

	purged := 0
	for key := range l.markers {
		day := key[len(key)-len(cutoffDay):]
		if day < cutoffDay {
			delete(l.markers, key)
			purged++
		}
	}

	return purged, nil
}

func memoryKey(kind reminder.Kind, date time.Time) string {
	return fmt.Sprintf("%s:%s", kind, reminder.DateKey(date))
}
