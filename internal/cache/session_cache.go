package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"feedbackdesk/internal/model"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionContention = errors.New("session updated concurrently")
)

// maxUpdateRetries bounds optimistic-lock retries in Update
const maxUpdateRetries = 5

// SessionCache stores intake sessions
type SessionCache interface {
	Create(ctx context.Context, session *model.IntakeSession) error
	Get(ctx context.Context, id string) (*model.IntakeSession, error)
	// Update applies fn atomically: concurrent updates of the same session are
	// serialized, and fn may run more than once. A non-nil error from fn
	// aborts without writing.
	Update(ctx context.Context, id string, fn func(*model.IntakeSession) error) (*model.IntakeSession, error)
	Delete(ctx context.Context, id string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a Redis-backed session cache
func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *sessionCache) key(id string) string {
	return fmt.Sprintf("intake:session:%s", id)
}

func (c *sessionCache) Create(ctx context.Context, session *model.IntakeSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ok, err := c.client.SetNX(ctx, c.key(session.ID), data, c.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	return nil
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.IntakeSession, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session model.IntakeSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Update(ctx context.Context, id string, fn func(*model.IntakeSession) error) (*model.IntakeSession, error) {
	key := c.key(id)
	var updated *model.IntakeSession

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		var session model.IntakeSession
		if err := json.Unmarshal(data, &session); err != nil {
			return err
		}
		if err := fn(&session); err != nil {
			return err
		}
		session.UpdatedAt = time.Now().UTC()

		out, err := json.Marshal(&session)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, c.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = &session
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := c.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrSessionContention
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
