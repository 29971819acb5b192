package dataview

import (
	"strings"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/infra/cache"
)

// Registry hands out one List per (session, resource, scope key) and
// forgets them after ttl of inactivity.
type Registry[T any] struct {
	resource string
	lists    *cache.InMemory[*List[T]]
}

// NewRegistry creates a registry for one resource kind.
func NewRegistry[T any](resource string, ttl time.Duration) *Registry[T] {
	return &Registry[T]{resource: resource, lists: cache.New[*List[T]](ttl)}
}

// Resource names the kind of list held.
func (r *Registry[T]) Resource() string {
	return r.resource
}

// For returns the list for sessionID and scopeKey, creating it if needed.
func (r *Registry[T]) For(sessionID, scopeKey string) *List[T] {
	l := r.lists.GetOrCreate(r.key(sessionID, scopeKey), NewList[T])
	// Touch so active lists outlive the ttl.
	r.lists.Set(r.key(sessionID, scopeKey), l)
	return l
}

// Forget drops every list of a session, e.g. on logout.
func (r *Registry[T]) Forget(sessionID string) {
	r.lists.DeletePrefix(sessionID + "|")
}

// Close stops the background sweeper.
func (r *Registry[T]) Close() {
	r.lists.Close()
}

func (r *Registry[T]) key(sessionID, scopeKey string) string {
	return strings.Join([]string{sessionID, r.resource, scopeKey}, "|")
}
