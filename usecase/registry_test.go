package usecase

import (
	"testing"
	"time"
)

func TestRegistryReplaceTearsDownOldController(t *testing.T) {
	registry := NewControllerRegistry(time.Minute)
	defer registry.Stop()

	first, _, firstStreamer := newTestController()
	session := createTestSession(t, first)
	registry.Put(session.SessionID, first)

	second, _, _ := newTestController()
	registry.Put(session.SessionID, second)

	if !firstStreamer.lastSub().closed.Load() {
		t.Error("replaced controller kept its subscription alive")
	}

	got, ok := registry.Get(session.SessionID)
	if !ok || got != second {
		t.Error("registry does not hold the replacement controller")
	}
}

func TestRegistryRemoveTearsDown(t *testing.T) {
	registry := NewControllerRegistry(time.Minute)
	defer registry.Stop()

	controller, _, streamer := newTestController()
	session := createTestSession(t, controller)
	registry.Put(session.SessionID, controller)

	registry.Remove(session.SessionID)

	if !streamer.lastSub().closed.Load() {
		t.Error("removed controller kept its subscription alive")
	}
	if _, ok := registry.Get(session.SessionID); ok {
		t.Error("controller still present after removal")
	}

	// Removing again is a no-op.
	registry.Remove(session.SessionID)
}

func TestRegistryExpiryTearsDown(t *testing.T) {
	registry := NewControllerRegistry(30 * time.Millisecond)
	defer registry.Stop()

	controller, _, streamer := newTestController()
	session := createTestSession(t, controller)
	registry.Put(session.SessionID, controller)

	waitFor(t, func() bool {
		return streamer.lastSub().closed.Load()
	}, "expired view did not release its subscription")
}
