// Package suppression records which reminder kinds are already satisfied for
// a given calendar day, so smart reminders do not nag a user who has logged.
package suppression

import (
	"context"
	"time"

	"github.com/Proton-105/reminder-service/internal/reminder"
)

// Ledger is the per-day, per-kind satisfaction record. Markers are written by
// the logging flow ("log saved" hook) and only read by the delivery gate.
type Ledger interface {
	// MarkSatisfied records that a log of kind was saved on date.
	MarkSatisfied(ctx context.Context, kind reminder.Kind, date time.Time) error
	// IsSatisfied reports whether kind was already logged on date.
	IsSatisfied(ctx context.Context, kind reminder.Kind, date time.Time) (bool, error)
	// PurgeBefore deletes markers older than cutoff and returns how many were
	// removed. Retention is bounded by the purge job, not by per-write TTLs.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}
