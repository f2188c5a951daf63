package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"feedbackdesk/internal/model"
)

// MemorySessionCache is a process-local SessionCache for development and tests
type MemorySessionCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memorySession
	now      func() time.Time
}

type memorySession struct {
	session   model.IntakeSession
	expiresAt time.Time
}

// NewMemorySessionCache creates an empty in-memory session cache
func NewMemorySessionCache(ttl time.Duration) *MemorySessionCache {
	return &MemorySessionCache{
		ttl:      ttl,
		sessions: make(map[string]memorySession),
		now:      time.Now,
	}
}

func (c *MemorySessionCache) Create(_ context.Context, session *model.IntakeSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lookup(session.ID); ok {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	c.sessions[session.ID] = memorySession{session: *session, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemorySessionCache) Get(_ context.Context, id string) (*model.IntakeSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.lookup(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (c *MemorySessionCache) Update(_ context.Context, id string, fn func(*model.IntakeSession) error) (*model.IntakeSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.lookup(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if err := fn(&s); err != nil {
		return nil, err
	}
	s.UpdatedAt = c.now().UTC()
	c.sessions[id] = memorySession{session: s, expiresAt: c.now().Add(c.ttl)}
	return &s, nil
}

func (c *MemorySessionCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
	return nil
}

// lookup must be called with mu held
func (c *MemorySessionCache) lookup(id string) (model.IntakeSession, bool) {
	entry, ok := c.sessions[id]
	if !ok {
		return model.IntakeSession{}, false
	}
	if c.ttl > 0 && c.now().After(entry.expiresAt) {
		delete(c.sessions, id)
		return model.IntakeSession{}, false
	}
	return entry.session, true
}

// MemoryDashboardCache is a process-local DashboardCache
type MemoryDashboardCache struct {
	mu        sync.RWMutex
	dashboard *model.Dashboard
}

// NewMemoryDashboardCache creates an empty in-memory dashboard cache
func NewMemoryDashboardCache() *MemoryDashboardCache {
	return &MemoryDashboardCache{}
}

func (c *MemoryDashboardCache) Get(_ context.Context) (*model.Dashboard, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.dashboard == nil {
		return nil, nil
	}
	d := *c.dashboard
	return &d, nil
}

func (c *MemoryDashboardCache) Set(_ context.Context, dashboard *model.Dashboard) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := *dashboard
	c.dashboard = &d
	return nil
}

func (c *MemoryDashboardCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dashboard = nil
	return nil
}

var (
	_ SessionCache   = (*MemorySessionCache)(nil)
	_ DashboardCache = (*MemoryDashboardCache)(nil)
)
