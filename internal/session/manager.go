package session

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager maps BFA session tokens to server-side stores kept in Redis.
type Manager struct {
	redis    *redis.Client
	signer   *Signer
	sealer   *Sealer
	logger   *zap.Logger
	observer func(error)
}

// NewManager wires a manager. observer may be nil.
func NewManager(rdb *redis.Client, signer *Signer, sealer *Sealer, logger *zap.Logger, observer func(error)) *Manager {
	return &Manager{redis: rdb, signer: signer, sealer: sealer, logger: logger, observer: observer}
}

// TTL is the session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.signer.TTL()
}

func (m *Manager) store(sid string) *Store {
	return NewStore(
		NewRedisPersister(m.redis, sid, m.signer.TTL()),
		m.logger.With(zap.String("sid", sid)),
		WithID(sid),
		WithSealer(m.sealer),
		WithTTL(m.signer.TTL()),
		WithHydrationObserver(m.observer),
	)
}

// Open resolves a session token to a hydrated store. A missing or invalid
// token yields an anonymous, memory-only store; it is never an error.
func (m *Manager) Open(ctx context.Context, token string) *Store {
	if token == "" {
		anon := NewStore(nil, m.logger)
		anon.Rehydrate(ctx)
		return anon
	}
	sid, err := m.signer.Parse(token)
	if err != nil {
		m.logger.Debug("session: rejected token", zap.Error(err))
		if m.observer != nil {
			m.observer(err)
		}
		anon := NewStore(nil, m.logger)
		anon.Rehydrate(ctx)
		return anon
	}
	st := m.store(sid)
	st.Rehydrate(ctx)
	return st
}

// Start creates a new session for user and returns its store and token.
func (m *Manager) Start(ctx context.Context, user domain.User, upstreamToken string) (*Store, string, time.Time, error) {
	sid := uuid.NewString()
	st := m.store(sid)
	if err := st.Login(ctx, user, upstreamToken); err != nil {
		return nil, "", time.Time{}, err
	}
	token, exp, err := m.signer.Issue(sid)
	if err != nil {
		st.Logout(ctx)
		return nil, "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return st, token, exp, nil
}
