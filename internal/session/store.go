// Package session holds the authenticated identity of one client session.
//
// A Store is an explicit state container with a defined lifecycle:
// created on login, replaced on profile refresh, cleared on logout. It is
// injected into whatever needs it (HTTP handlers, CLI commands) instead of
// being read from a global, so role gating can be tested without a server.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"

	"go.uber.org/zap"
)

// ErrNoSession is returned by a Persister that holds nothing.
var ErrNoSession = errors.New("session: nothing persisted")

// Persister stores the encoded session record.
type Persister interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// record is the persisted shape. The upstream token is sealed when a
// Sealer is configured.
type record struct {
	User      domain.User `json:"user"`
	Token     string      `json:"token"`
	Sealed    bool        `json:"sealed,omitempty"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// State is a read-only copy of the session.
type State struct {
	User            *domain.User
	Token           string
	IsAuthenticated bool
	Hydrated        bool
}

// Option configures a Store.
type Option func(*Store)

// WithSealer encrypts the upstream token at rest.
func WithSealer(s *Sealer) Option {
	return func(st *Store) { st.sealer = s }
}

// WithTTL bounds how long a persisted session stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(st *Store) { st.ttl = ttl }
}

// WithID names the store, typically with its session id.
func WithID(id string) Option {
	return func(st *Store) { st.id = id }
}

// WithHydrationObserver is called with the reason whenever rehydration
// falls back to an unauthenticated state for anything but "no session".
func WithHydrationObserver(fn func(error)) Option {
	return func(st *Store) { st.observer = fn }
}

// Store is the session state container. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	id        string
	persister Persister
	sealer    *Sealer
	ttl       time.Duration
	observer  func(error)
	logger    *zap.Logger
	now       func() time.Time

	user     *domain.User
	token    string
	hydrated bool
}

// NewStore creates an empty, not-yet-hydrated store. A nil persister keeps
// the session in memory only.
func NewStore(p Persister, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		persister: p,
		ttl:       24 * time.Hour,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rehydrate loads the persisted session. Any failure (nothing stored,
// corrupt data, expired record, unreachable storage) leaves the store
// unauthenticated. The store is marked hydrated either way.
func (s *Store) Rehydrate(ctx context.Context) {
	user, token, err := s.load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hydrated = true
	if err != nil {
		s.user, s.token = nil, ""
		if !errors.Is(err, ErrNoSession) {
			s.logger.Warn("session: rehydration failed, continuing unauthenticated", zap.Error(err))
			if s.observer != nil {
				s.observer(err)
			}
		}
		return
	}
	s.user, s.token = user, token
}

func (s *Store) load(ctx context.Context) (*domain.User, string, error) {
	if s.persister == nil {
		return nil, "", ErrNoSession
	}
	data, err := s.persister.Load(ctx)
	if err != nil {
		return nil, "", err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, "", fmt.Errorf("decode session: %w", err)
	}
	if !rec.ExpiresAt.IsZero() && s.now().After(rec.ExpiresAt) {
		_ = s.persister.Clear(ctx)
		return nil, "", errors.New("session expired")
	}
	token := rec.Token
	if rec.Sealed {
		if s.sealer == nil {
			return nil, "", errors.New("sealed session but no sealer configured")
		}
		if token, err = s.sealer.Open(rec.Token); err != nil {
			return nil, "", err
		}
	}
	if rec.User.ID == "" || token == "" || !rec.User.Role.Valid() {
		return nil, "", errors.New("incomplete session record")
	}
	user := rec.User
	return &user, token, nil
}

// Login replaces the session with user and the backend bearer token.
// The record is persisted before memory changes, so a failed save leaves
// the previous state intact.
func (s *Store) Login(ctx context.Context, user domain.User, token string) error {
	if user.ID == "" || token == "" {
		return &domain.ErrValidation{Field: "session", Message: "user id and token are required"}
	}
	if !user.Role.Valid() {
		return &domain.ErrValidation{Field: "role", Message: fmt.Sprintf("unknown role %q", user.Role)}
	}
	if err := s.save(ctx, user, token); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := user
	s.user, s.token, s.hydrated = &u, token, true
	return nil
}

// ReplaceUser swaps the user after a profile update, keeping the token.
func (s *Store) ReplaceUser(ctx context.Context, user domain.User) error {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token == "" {
		return &domain.ErrUnauthorized{Message: "no active session"}
	}
	return s.Login(ctx, user, token)
}

// Logout clears memory and persisted state. It never fails: storage
// errors are logged and the in-memory session is gone regardless.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.user, s.token, s.hydrated = nil, "", true
	s.mu.Unlock()

	if s.persister == nil {
		return
	}
	if err := s.persister.Clear(ctx); err != nil {
		s.logger.Warn("session: failed to clear persisted state", zap.Error(err))
	}
}

func (s *Store) save(ctx context.Context, user domain.User, token string) error {
	if s.persister == nil {
		return nil
	}
	rec := record{User: user, Token: token, ExpiresAt: s.now().Add(s.ttl)}
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(token)
		if err != nil {
			return err
		}
		rec.Token, rec.Sealed = sealed, true
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.persister.Save(ctx, data)
}

// ID is the session id, or "" for an anonymous store.
func (s *Store) ID() string {
	return s.id
}

// Hydrated reports whether Rehydrate (or Login/Logout) has run. Gates must
// not decide anything before this is true.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// IsAuthenticated reports whether a user is logged in.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// User returns a copy of the current user, or nil.
func (s *Store) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the backend bearer token, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// State returns a consistent copy of the whole session.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{Token: s.token, Hydrated: s.hydrated, IsAuthenticated: s.user != nil}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}
