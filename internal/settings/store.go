// Package settings persists the single per-user reminder settings record.
package settings

import (
	"context"

	"github.com/Proton-105/reminder-service/internal/reminder"
)

// Store defines the persistence contract for reminder settings. The record
// is consumed whole: Load returns the full settings, Save overwrites them.
type Store interface {
	// Load returns the stored settings, or ErrNotFound when the user has
	// never saved any.
	Load(ctx context.Context) (*reminder.Settings, error)
	// Save validates and overwrites the stored settings.
	Save(ctx context.Context, s *reminder.Settings) error
}
