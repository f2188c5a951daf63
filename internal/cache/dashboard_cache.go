package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"feedbackdesk/internal/model"
)

// DashboardCache holds the most recently applied dashboard
type DashboardCache interface {
	Get(ctx context.Context) (*model.Dashboard, error)
	Set(ctx context.Context, dashboard *model.Dashboard) error
	Invalidate(ctx context.Context) error
}

type dashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDashboardCache creates a Redis-backed dashboard cache
func NewDashboardCache(client *redis.Client, ttl time.Duration) DashboardCache {
	return &dashboardCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *dashboardCache) key() string {
	return "dashboard:latest"
}

func (c *dashboardCache) Get(ctx context.Context) (*model.Dashboard, error) {
	data, err := c.client.Get(ctx, c.key()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dashboard model.Dashboard
	if err := json.Unmarshal(data, &dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

func (c *dashboardCache) Set(ctx context.Context, dashboard *model.Dashboard) error {
	data, err := json.Marshal(dashboard)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(), data, c.ttl).Err()
}

func (c *dashboardCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key()).Err()
}
