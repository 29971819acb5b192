package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "portal:session:"

// RedisPersister stores one session under portal:session:<sid> with a TTL.
type RedisPersister struct {
	client *redis.Client
	sid    string
	ttl    time.Duration
}

// NewRedisPersister binds a persister to a session id.
func NewRedisPersister(client *redis.Client, sid string, ttl time.Duration) *RedisPersister {
	return &RedisPersister{client: client, sid: sid, ttl: ttl}
}

func (p *RedisPersister) key() string {
	return keyPrefix + p.sid
}

func (p *RedisPersister) Load(ctx context.Context) ([]byte, error) {
	data, err := p.client.Get(ctx, p.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	return data, nil
}

func (p *RedisPersister) Save(ctx context.Context, data []byte) error {
	if err := p.client.Set(ctx, p.key(), data, p.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (p *RedisPersister) Clear(ctx context.Context) error {
	return p.client.Del(ctx, p.key()).Err()
}
