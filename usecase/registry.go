package usecase

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// ControllerRegistry tracks the live controller for each session view.
// Entries expire after a period without reads and the eviction hook
// tears the controller down, so an abandoned view cannot keep its
// change stream subscription alive.
type ControllerRegistry struct {
	cache *ttlcache.Cache[string, *SessionController]
}

func NewControllerRegistry(viewTTL time.Duration) *ControllerRegistry {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *SessionController](viewTTL),
	)
	cache.OnEviction(func(_ context.Context, _ ttlcache.EvictionReason, item *ttlcache.Item[string, *SessionController]) {
		item.Value().Teardown()
	})
	go cache.Start()
	return &ControllerRegistry{cache: cache}
}

// Put registers the controller for a session id. A previous controller
// under the same id is evicted, which tears its subscription down
// before the replacement becomes visible.
func (r *ControllerRegistry) Put(sessionID string, controller *SessionController) {
	if existing := r.cache.Get(sessionID); existing != nil {
		r.cache.Delete(sessionID)
	}
	r.cache.Set(sessionID, controller, ttlcache.DefaultTTL)
}

// Get returns the live controller for a session id, extending its TTL.
func (r *ControllerRegistry) Get(sessionID string) (*SessionController, bool) {
	item := r.cache.Get(sessionID)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Remove evicts a session's controller, triggering its teardown.
// Removing an unknown id is a no-op.
func (r *ControllerRegistry) Remove(sessionID string) {
	r.cache.Delete(sessionID)
}

// Stop halts TTL expiry and tears down every remaining controller.
func (r *ControllerRegistry) Stop() {
	r.cache.Stop()
	r.cache.DeleteAll()
}
