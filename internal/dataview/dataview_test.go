package dataview_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/realty-portal-bfa/internal/dataview"
	"github.com/boddenberg/realty-portal-bfa/internal/domain"
)

func ok(items ...string) func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) { return items, nil }
}

func fail(err error) func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) { return nil, err }
}

func TestList_FailureKeepsLastGood(t *testing.T) {
	l := dataview.NewList[string]()
	require.NoError(t, l.Refresh(context.Background(), ok("a", "b")))

	err := l.Refresh(context.Background(), fail(&domain.ErrExternalService{Service: "backend", Status: 502}))
	require.Error(t, err)

	s := l.Snapshot()
	assert.Equal(t, []string{"a", "b"}, s.Items)
	assert.True(t, s.Stale)
	assert.NotEmpty(t, s.Error)
	assert.Equal(t, domain.ActionRetry, s.Action)
	assert.NotNil(t, s.FetchedAt)
}

func TestList_FirstFailureIsEmptyNotStale(t *testing.T) {
	l := dataview.NewList[string]()
	_ = l.Refresh(context.Background(), fail(errors.New("down")))

	s := l.Snapshot()
	assert.NotNil(t, s.Items)
	assert.Empty(t, s.Items)
	assert.False(t, s.Stale)
	assert.NotEmpty(t, s.Error)
	assert.Nil(t, s.FetchedAt)
}

func TestList_SuccessClearsError(t *testing.T) {
	l := dataview.NewList[string]()
	_ = l.Refresh(context.Background(), fail(errors.New("down")))
	require.NoError(t, l.Refresh(context.Background(), ok("x")))

	s := l.Snapshot()
	assert.Empty(t, s.Error)
	assert.False(t, s.Stale)
	assert.Equal(t, []string{"x"}, s.Items)
}

func TestList_EmptySuccessReplaces(t *testing.T) {
	l := dataview.NewList[string]()
	require.NoError(t, l.Refresh(context.Background(), ok("x")))
	require.NoError(t, l.Refresh(context.Background(), ok()))
	assert.Empty(t, l.Snapshot().Items)
}

func TestList_UnauthorizedPassesThrough(t *testing.T) {
	l := dataview.NewList[string]()
	require.NoError(t, l.Refresh(context.Background(), ok("a")))

	err := l.Refresh(context.Background(), fail(&domain.ErrUnauthorized{}))
	var uerr *domain.ErrUnauthorized
	require.True(t, errors.As(err, &uerr))

	s := l.Snapshot()
	assert.Equal(t, []string{"a"}, s.Items)
	assert.Empty(t, s.Error)
}

func TestList_CanceledRefreshLeavesSnapshot(t *testing.T) {
	l := dataview.NewList[string]()
	require.NoError(t, l.Refresh(context.Background(), ok("a")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Refresh(ctx, func(ctx context.Context) ([]string, error) {
		return nil, fmt.Errorf("list users: %w", ctx.Err())
	})
	require.ErrorIs(t, err, context.Canceled)

	s := l.Snapshot()
	assert.Equal(t, []string{"a"}, s.Items)
	assert.Empty(t, s.Error)
	assert.False(t, s.Stale)
}

func TestList_Dismiss(t *testing.T) {
	l := dataview.NewList[string]()
	require.NoError(t, l.Refresh(context.Background(), ok("a")))
	_ = l.Refresh(context.Background(), fail(errors.New("down")))

	l.Dismiss()
	s := l.Snapshot()
	assert.Empty(t, s.Error)
	assert.False(t, s.Stale)
	assert.Equal(t, []string{"a"}, s.Items)
}

func TestList_SnapshotIsACopy(t *testing.T) {
	l := dataview.NewList[string]()
	require.NoError(t, l.Refresh(context.Background(), ok("a")))

	s := l.Snapshot()
	s.Items[0] = "mutated"
	assert.Equal(t, "a", l.Snapshot().Items[0])
}

// Data is never downgraded to empty solely because of a transient error.
func TestList_PropertyNeverDowngradedByErrors(t *testing.T) {
	l := dataview.NewList[string]()
	seq := []bool{true, false, false, true, false, true, false, false, false}
	var last []string
	for i, success := range seq {
		if success {
			last = []string{string(rune('a' + i))}
			require.NoError(t, l.Refresh(context.Background(), ok(last...)))
		} else {
			_ = l.Refresh(context.Background(), fail(errors.New("transient")))
		}
		assert.Equal(t, last, l.Snapshot().Items)
	}
}

func TestRegistry_PerSessionAndScope(t *testing.T) {
	r := dataview.NewRegistry[string]("users", time.Minute)
	defer r.Close()

	a := r.For("sid-1", "company_id=c-1")
	assert.Same(t, a, r.For("sid-1", "company_id=c-1"))
	assert.NotSame(t, a, r.For("sid-1", "company_id=c-2"))
	assert.NotSame(t, a, r.For("sid-2", "company_id=c-1"))

	require.NoError(t, a.Refresh(context.Background(), ok("u")))
	r.Forget("sid-1")
	assert.Empty(t, r.For("sid-1", "company_id=c-1").Snapshot().Items)
	assert.Equal(t, "users", r.Resource())
}
