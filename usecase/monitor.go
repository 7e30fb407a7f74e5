package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"main/dto"
	"main/middleware"
	"main/model"
	"main/services"
)

var (
	ErrAuthRequired    = errors.New("authentication required")
	ErrNoActiveSession = errors.New("no active session")
)

// SessionStore is the slice of the sessions repository the controller
// needs. Tests substitute an in-memory fake.
type SessionStore interface {
	CreateSession(session *model.MonitoringSession) error
	UpdateSessionState(sessionID string, state model.LifecycleState) error
	GetSession(sessionID string) (*model.MonitoringSession, error)
}

// SessionController owns the local state of one monitoring session
// view: the session row, its lifecycle position, the status feed and
// the latest vital. All of it is mutated either by a direct action or
// by folding change stream events; both paths apply full snapshots, so
// receiving the same logical update twice is safe.
//
// The controller holds at most one live subscription. Opening a new
// session always tears the previous subscription down first.
type SessionController struct {
	store    SessionStore
	streamer services.Streamer

	mu            sync.RWMutex
	session       *model.MonitoringSession
	state         model.LifecycleState
	statusHistory []*model.StatusEvent
	statusMessage string
	latestVital   *model.Vital
	lastError     string
	sub           *services.Subscription

	// generation fences the fold loop: events from a torn-down
	// subscription carry a stale generation and are dropped.
	generation uint64
}

func NewSessionController(store SessionStore, streamer services.Streamer) *SessionController {
	return &SessionController{store: store, streamer: streamer}
}

// Create persists a new session in state CREATED and opens a change
// stream subscription scoped to its id. It requires an acting user;
// without one no store write is attempted.
func (c *SessionController) Create(ctx context.Context, userID string, input dto.CreateSessionRequest, deviceInfo string) (*model.MonitoringSession, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}

	session := &model.MonitoringSession{
		UserID:      userID,
		DisplayName: input.DisplayName,
		Age:         input.Age,
		Gender:      model.Gender(input.Gender),
		Mode:        model.SessionMode(input.Mode),
		DeviceInfo:  deviceInfo,
	}

	if err := c.store.CreateSession(session); err != nil {
		c.mu.Lock()
		c.lastError = "Failed to create session"
		c.mu.Unlock()
		return nil, fmt.Errorf("session create rejected by store: %w", err)
	}

	c.mu.Lock()
	c.closeSubscriptionLocked()
	c.session = session
	c.state = model.StateCreated
	c.statusHistory = nil
	c.statusMessage = ""
	c.latestVital = nil
	c.lastError = ""
	generation := c.generation
	c.mu.Unlock()

	sub, err := c.streamer.Subscribe(ctx, session.SessionID)
	if err != nil {
		// The session exists; the view degrades to point-in-time reads.
		log.Printf("Warning: failed to subscribe to session %s: %v", session.SessionID, err)
		c.mu.Lock()
		c.lastError = "Live updates unavailable"
		c.mu.Unlock()
		return session, nil
	}

	c.mu.Lock()
	if generation != c.generation {
		// The view was reset while subscribing; do not re-attach.
		c.mu.Unlock()
		sub.Close()
		return session, nil
	}
	c.sub = sub
	c.mu.Unlock()
	go c.fold(generation, sub)

	return session, nil
}

// BeginMonitoring moves a freshly created session to STARTED. The
// store write acknowledgment updates local state directly; the change
// stream echo of the same write applies the same snapshot again,
// which converges to the identical state in either order.
func (c *SessionController) BeginMonitoring(ctx context.Context) error {
	c.mu.RLock()
	session := c.session
	state := c.state
	c.mu.RUnlock()

	if session == nil || state != model.StateCreated {
		return ErrNoActiveSession
	}

	if err := c.store.UpdateSessionState(session.SessionID, model.StateStarted); err != nil {
		c.mu.Lock()
		c.lastError = "Failed to start monitoring"
		c.mu.Unlock()
		return fmt.Errorf("state update rejected by store: %w", err)
	}

	c.mu.Lock()
	if c.session != nil && c.session.SessionID == session.SessionID {
		c.session.State = model.StateStarted
		c.state = model.StateStarted
		c.writeSnapshotLocked()
	}
	c.mu.Unlock()

	return nil
}

// ResetLocal abandons the current session view: it tears down the
// subscription (no-op if none) and clears all local state. Always
// succeeds and is safe to call repeatedly.
func (c *SessionController) ResetLocal() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeSubscriptionLocked()
	c.session = nil
	c.state = ""
	c.statusHistory = nil
	c.statusMessage = ""
	c.latestVital = nil
	c.lastError = ""
}

// Teardown releases the subscription. Registered as the eviction hook
// for abandoned views so a live subscription can never leak.
func (c *SessionController) Teardown() {
	c.ResetLocal()
}

// Snapshot returns a copy of the observable state bag.
func (c *SessionController) Snapshot() dto.SessionStateResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// SessionID returns the id of the session this view holds, or "".
func (c *SessionController) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.SessionID
}

func (c *SessionController) snapshotLocked() dto.SessionStateResponse {
	snap := dto.SessionStateResponse{
		LifecycleState: c.state,
		StatusMessage:  c.statusMessage,
		LatestVital:    c.latestVital,
		Error:          c.lastError,
	}
	if c.session != nil {
		session := *c.session
		snap.Session = &session
	}
	if len(c.statusHistory) > 0 {
		snap.StatusHistory = append([]*model.StatusEvent(nil), c.statusHistory...)
	}
	return snap
}

// fold consumes a subscription until its channel closes. Events are
// fenced by generation so nothing from a replaced or torn-down
// subscription reaches local state.
func (c *SessionController) fold(generation uint64, sub *services.Subscription) {
	for event := range sub.Events() {
		c.apply(generation, event)
	}
}

func (c *SessionController) apply(generation uint64, event services.StreamEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation || c.session == nil {
		return
	}

	switch event.Kind {
	case services.EventSessionChanged:
		if event.Session == nil || event.Session.SessionID != c.session.SessionID {
			return
		}
		session := *event.Session
		c.session = &session
		c.state = session.State
	case services.EventStatusCreated:
		if event.Status == nil || event.Status.SessionID != c.session.SessionID {
			return
		}
		c.statusHistory = append(c.statusHistory, event.Status)
		c.statusMessage = event.Status.Message
	case services.EventVitalCreated:
		if event.Vital == nil || event.Vital.SessionID != c.session.SessionID {
			return
		}
		// Only the most recent vital is retained.
		c.latestVital = event.Vital
	default:
		return
	}

	middleware.TrackStreamEvent(string(event.Kind))
	c.writeSnapshotLocked()
}

func (c *SessionController) writeSnapshotLocked() {
	if services.GlobalStateCache == nil || c.session == nil {
		return
	}
	snap := c.snapshotLocked()
	if err := services.GlobalStateCache.SetSnapshot(c.session.SessionID, &snap); err != nil {
		middleware.TrackError("cache")
		log.Printf("Warning: failed to cache session snapshot: %v", err)
	}
}

func (c *SessionController) closeSubscriptionLocked() {
	c.generation++
	if c.sub != nil {
		c.sub.Close()
		c.sub = nil
	}
}
