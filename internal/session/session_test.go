package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/session"
)

func agent() domain.User {
	return domain.User{ID: "u-1", Email: "a@x.com", Name: "Ann", Role: domain.RoleAgent, CompanyID: "c-1", IsActive: true}
}

func TestStore_LoginPersistsAndRehydrates(t *testing.T) {
	ctx := context.Background()
	p := session.NewFilePersister(filepath.Join(t.TempDir(), "session.json"))

	st := session.NewStore(p, zap.NewNop(), session.WithSealer(session.NewSealer("s3cret")))
	require.NoError(t, st.Login(ctx, agent(), "upstream-token"))

	info, err := os.Stat(p.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(p.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "upstream-token")

	again := session.NewStore(p, zap.NewNop(), session.WithSealer(session.NewSealer("s3cret")))
	assert.False(t, again.Hydrated())
	again.Rehydrate(ctx)

	state := again.State()
	assert.True(t, state.Hydrated)
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "upstream-token", state.Token)
	assert.Equal(t, "c-1", state.User.CompanyID)
}

func TestStore_RehydrateCorruptIsUnauthenticated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	var observed error
	st := session.NewStore(session.NewFilePersister(path), zap.NewNop(),
		session.WithHydrationObserver(func(err error) { observed = err }))
	st.Rehydrate(ctx)

	assert.True(t, st.Hydrated())
	assert.False(t, st.IsAuthenticated())
	assert.Nil(t, st.User())
	assert.Error(t, observed)
}

func TestStore_RehydrateWrongKeyIsUnauthenticated(t *testing.T) {
	ctx := context.Background()
	p := session.NewFilePersister(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, session.NewStore(p, zap.NewNop(), session.WithSealer(session.NewSealer("a"))).Login(ctx, agent(), "tok"))

	st := session.NewStore(p, zap.NewNop(), session.WithSealer(session.NewSealer("b")))
	st.Rehydrate(ctx)
	assert.False(t, st.IsAuthenticated())
}

func TestStore_NothingPersistedIsSilent(t *testing.T) {
	called := false
	st := session.NewStore(session.NewFilePersister(filepath.Join(t.TempDir(), "none.json")), zap.NewNop(),
		session.WithHydrationObserver(func(error) { called = true }))
	st.Rehydrate(context.Background())

	assert.True(t, st.Hydrated())
	assert.False(t, st.IsAuthenticated())
	assert.False(t, called)
}

func TestStore_LoginRejectsIncompleteIdentity(t *testing.T) {
	st := session.NewStore(nil, zap.NewNop())

	err := st.Login(context.Background(), domain.User{ID: "u"}, "tok")
	var verr *domain.ErrValidation
	assert.True(t, errors.As(err, &verr))

	assert.Error(t, st.Login(context.Background(), agent(), ""))
	assert.False(t, st.IsAuthenticated())
}

func TestStore_LogoutClearsEverything(t *testing.T) {
	ctx := context.Background()
	p := session.NewFilePersister(filepath.Join(t.TempDir(), "session.json"))
	st := session.NewStore(p, zap.NewNop())
	require.NoError(t, st.Login(ctx, agent(), "tok"))

	st.Logout(ctx)

	assert.False(t, st.IsAuthenticated())
	assert.Empty(t, st.Token())
	_, err := os.Stat(p.Path())
	assert.True(t, os.IsNotExist(err))

	// Logging out twice is harmless.
	st.Logout(ctx)
}

type brokenPersister struct{}

func (brokenPersister) Load(context.Context) ([]byte, error) { return nil, errors.New("down") }
func (brokenPersister) Save(context.Context, []byte) error    { return errors.New("down") }
func (brokenPersister) Clear(context.Context) error           { return errors.New("down") }

func TestStore_LogoutSucceedsWhenStorageFails(t *testing.T) {
	st := session.NewStore(brokenPersister{}, zap.NewNop())
	st.Rehydrate(context.Background())
	st.Logout(context.Background())
	assert.False(t, st.IsAuthenticated())
	assert.True(t, st.Hydrated())
}

func TestStore_FailedSaveKeepsPreviousState(t *testing.T) {
	st := session.NewStore(brokenPersister{}, zap.NewNop())
	err := st.Login(context.Background(), agent(), "tok")
	assert.Error(t, err)
	assert.False(t, st.IsAuthenticated())
}

func TestStore_ReplaceUserKeepsToken(t *testing.T) {
	ctx := context.Background()
	st := session.NewStore(nil, zap.NewNop())

	err := st.ReplaceUser(ctx, agent())
	var uerr *domain.ErrUnauthorized
	assert.True(t, errors.As(err, &uerr))

	require.NoError(t, st.Login(ctx, agent(), "tok"))
	updated := agent()
	updated.Name = "Ann B."
	require.NoError(t, st.ReplaceUser(ctx, updated))

	assert.Equal(t, "Ann B.", st.User().Name)
	assert.Equal(t, "tok", st.Token())
}

func TestStore_UserIsACopy(t *testing.T) {
	st := session.NewStore(nil, zap.NewNop())
	require.NoError(t, st.Login(context.Background(), agent(), "tok"))

	u := st.User()
	u.Role = domain.RoleGlobalAdmin
	assert.Equal(t, domain.RoleAgent, st.User().Role)
}

func TestSealer_RoundTripAndTamper(t *testing.T) {
	s := session.NewSealer("k")
	sealed, err := s.Seal("bearer")
	require.NoError(t, err)

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "bearer", plain)

	_, err = s.Open(sealed[:len(sealed)-2] + "AA")
	assert.Error(t, err)
	_, err = s.Open("short")
	assert.Error(t, err)
}

func TestSigner_IssueAndParse(t *testing.T) {
	s := session.NewSigner("secret", time.Hour)
	tok, exp, err := s.Issue("sid-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	sid, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", sid)

	_, err = session.NewSigner("other", time.Hour).Parse(tok)
	var uerr *domain.ErrUnauthorized
	assert.True(t, errors.As(err, &uerr))
}

func TestSigner_ExpiredToken(t *testing.T) {
	s := session.NewSigner("secret", -time.Minute)
	tok, _, err := s.Issue("sid-1")
	require.NoError(t, err)

	_, err = s.Parse(tok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func setupManager(t *testing.T) (*miniredis.Miniredis, *session.Manager) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	m := session.NewManager(rdb, session.NewSigner("secret", time.Hour), session.NewSealer("secret"), zap.NewNop(), nil)
	return mr, m
}

func TestManager_StartAndOpen(t *testing.T) {
	ctx := context.Background()
	mr, m := setupManager(t)

	_, token, _, err := m.Start(ctx, agent(), "upstream")
	require.NoError(t, err)
	assert.Len(t, mr.Keys(), 1)

	st := m.Open(ctx, token)
	assert.True(t, st.Hydrated())
	require.True(t, st.IsAuthenticated())
	assert.Equal(t, "upstream", st.Token())
	assert.Equal(t, domain.RoleAgent, st.User().Role)
}

func TestManager_OpenInvalidTokenIsAnonymous(t *testing.T) {
	_, m := setupManager(t)

	for _, tok := range []string{"", "garbage"} {
		st := m.Open(context.Background(), tok)
		assert.True(t, st.Hydrated())
		assert.False(t, st.IsAuthenticated())
	}
}

func TestManager_ExpiredRedisKeyIsAnonymous(t *testing.T) {
	ctx := context.Background()
	mr, m := setupManager(t)

	_, token, _, err := m.Start(ctx, agent(), "upstream")
	require.NoError(t, err)
	mr.FastForward(2 * time.Hour)

	st := m.Open(ctx, token)
	assert.False(t, st.IsAuthenticated())
}

func TestManager_LogoutRemovesKey(t *testing.T) {
	ctx := context.Background()
	mr, m := setupManager(t)

	st, token, _, err := m.Start(ctx, agent(), "upstream")
	require.NoError(t, err)
	st.Logout(ctx)

	assert.Empty(t, mr.Keys())
	assert.False(t, m.Open(ctx, token).IsAuthenticated())
}

func TestManager_RedisDownFallsBackToAnonymous(t *testing.T) {
	ctx := context.Background()
	mr, m := setupManager(t)
	_, token, _, err := m.Start(ctx, agent(), "upstream")
	require.NoError(t, err)

	mr.Close()
	st := m.Open(ctx, token)
	assert.True(t, st.Hydrated())
	assert.False(t, st.IsAuthenticated())
}
