package settings

import (
	"context"
	"sync"

	"github.com/Proton-105/reminder-service/internal/reminder"
)

// MemoryStore is an in-process Store used in tests and when Redis is not
// configured. Contents do not survive restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	current *reminder.Settings
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory settings store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored settings or ErrNotFound.
func (s *MemoryStore) Load(ctx context.Context) (*reminder.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, ErrNotFound
	}

	copied := *s.current
	return &copied, nil
}

// Save validates and replaces the stored settings.
func (s *MemoryStore) Save(ctx context.Context, settings *reminder.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *settings
	s.current = &copied
	return nil
}
