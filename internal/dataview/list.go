// Package dataview keeps the last good result of each scoped list so a
// transient fetch failure layers an error on top of the data instead of
// replacing it with nothing.
package dataview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
)

// List holds one list's last good items and the error of its latest
// refresh. Safe for concurrent use.
type List[T any] struct {
	mu        sync.Mutex
	items     []T
	fetchedAt time.Time
	err       error
	now       func() time.Time
}

// NewList creates an empty list.
func NewList[T any]() *List[T] {
	return &List[T]{now: time.Now}
}

// Refresh runs fetch. On success the items are replaced and the error
// cleared. On failure the previous items stay and the error is recorded;
// an unauthorized error is returned to the caller untouched (it ends the
// session) and is not recorded; neither is a canceled fetch. Other errors
// are returned as well so the caller can log them, but the snapshot is
// still usable.
func (l *List[T]) Refresh(ctx context.Context, fetch func(context.Context) ([]T, error)) error {
	items, err := fetch(ctx)

	var unauth *domain.ErrUnauthorized
	if errors.As(err, &unauth) || errors.Is(err, context.Canceled) {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.err = err
		return err
	}
	if items == nil {
		items = []T{}
	}
	l.items = items
	l.fetchedAt = l.now()
	l.err = nil
	return nil
}

// Snapshot renders the list for a response. Items is never nil.
func (l *List[T]) Snapshot() domain.Snapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := domain.Snapshot[T]{Items: make([]T, len(l.items))}
	copy(s.Items, l.items)
	if !l.fetchedAt.IsZero() {
		at := l.fetchedAt
		s.FetchedAt = &at
	}
	if l.err != nil {
		s.Error = l.err.Error()
		s.Action = domain.ActionRetry
		s.Stale = !l.fetchedAt.IsZero()
	}
	return s
}

// Dismiss clears the recorded error, keeping the items.
func (l *List[T]) Dismiss() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = nil
}
