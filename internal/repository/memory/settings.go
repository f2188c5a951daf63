package memory

import (
	"context"
	"sync"

	"feedbackdesk/internal/repository"
)

// SettingsRepo is an in-memory repository.SettingsRepo
type SettingsRepo struct {
	mu  sync.RWMutex
	pin string
}

// NewSettingsRepo creates a settings store with no PIN stored
func NewSettingsRepo() *SettingsRepo {
	return &SettingsRepo{}
}

var _ repository.SettingsRepo = (*SettingsRepo)(nil)

func (r *SettingsRepo) GetAccessPIN(_ context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pin, nil
}

func (r *SettingsRepo) SetAccessPIN(_ context.Context, pin string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pin = pin
	return nil
}
