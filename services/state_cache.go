package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"main/dto"

	"github.com/redis/go-redis/v9"
)

// StateCache keeps the latest folded state bag per session in Redis so
// views without a live subscription can serve a recent snapshot before
// falling back to the database.
type StateCache struct {
	client    *redis.Client
	cacheLock sync.RWMutex
	ttl       time.Duration
}

var GlobalStateCache *StateCache

// NewStateCache creates and initializes a new session state cache
func NewStateCache(redisURL string, ttl time.Duration) (*StateCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &StateCache{
		client: client,
		ttl:    ttl,
	}, nil
}

// SetSnapshot caches a session's folded state bag
func (sc *StateCache) SetSnapshot(sessionID string, snapshot *dto.SessionStateResponse) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	if snapshot == nil {
		return fmt.Errorf("cannot cache nil snapshot")
	}

	sc.cacheLock.Lock()
	defer sc.cacheLock.Unlock()

	ctx := context.Background()
	key := fmt.Sprintf("session_state:%s", sessionID)

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %v", err)
	}

	if err := sc.client.Set(ctx, key, data, sc.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot: %v", err)
	}

	return nil
}

// GetSnapshot retrieves a session's cached state bag. A cache miss
// returns (nil, nil).
func (sc *StateCache) GetSnapshot(sessionID string) (*dto.SessionStateResponse, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	sc.cacheLock.RLock()
	defer sc.cacheLock.RUnlock()

	ctx := context.Background()
	key := fmt.Sprintf("session_state:%s", sessionID)

	data, err := sc.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot from cache: %v", err)
	}

	var snapshot dto.SessionStateResponse
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %v", err)
	}

	return &snapshot, nil
}

// DeleteSnapshot removes a session's cached state bag
func (sc *StateCache) DeleteSnapshot(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}

	sc.cacheLock.Lock()
	defer sc.cacheLock.Unlock()

	ctx := context.Background()
	key := fmt.Sprintf("session_state:%s", sessionID)

	if err := sc.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot from cache: %v", err)
	}

	return nil
}
