package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"main/dto"
	"main/model"
	"main/services"
)

type fakeStore struct {
	mu          sync.Mutex
	created     []*model.MonitoringSession
	stateWrites []model.LifecycleState
	failCreate  bool
	failUpdate  bool
}

func (s *fakeStore) CreateSession(session *model.MonitoringSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return errors.New("store rejected write")
	}
	session.SessionID = fmt.Sprintf("sess-%d", len(s.created)+1)
	session.State = model.StateCreated
	session.CreatedAt = time.Now()
	s.created = append(s.created, session)
	return nil
}

func (s *fakeStore) UpdateSessionState(sessionID string, state model.LifecycleState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate {
		return errors.New("store rejected write")
	}
	s.stateWrites = append(s.stateWrites, state)
	return nil
}

func (s *fakeStore) GetSession(sessionID string) (*model.MonitoringSession, error) {
	return nil, nil
}

func (s *fakeStore) createCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created)
}

// fakeSub keeps its channel open after Close so a test can emit events
// that a real transport might still have queued for a torn-down
// subscription.
type fakeSub struct {
	sessionID string
	events    chan services.StreamEvent
	sub       *services.Subscription
	closed    atomic.Bool
}

func (s *fakeSub) emit(event services.StreamEvent) {
	s.events <- event
}

type fakeStreamer struct {
	mu   sync.Mutex
	subs []*fakeSub
}

func (f *fakeStreamer) Subscribe(ctx context.Context, sessionID string) (*services.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeSub{sessionID: sessionID, events: make(chan services.StreamEvent, 16)}
	sub.sub = services.NewSubscription(sub.events, func() { sub.closed.Store(true) })
	f.subs = append(f.subs, sub)
	return sub.sub, nil
}

func (f *fakeStreamer) lastSub() *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subs) == 0 {
		return nil
	}
	return f.subs[len(f.subs)-1]
}

func newTestController() (*SessionController, *fakeStore, *fakeStreamer) {
	store := &fakeStore{}
	streamer := &fakeStreamer{}
	return NewSessionController(store, streamer), store, streamer
}

func createTestSession(t *testing.T, controller *SessionController) *model.MonitoringSession {
	t.Helper()
	session, err := controller.Create(context.Background(), "user-1", dto.CreateSessionRequest{
		DisplayName: "Ward 3 Bed 12",
		Age:         64,
		Gender:      string(model.GenderFemale),
		Mode:        string(model.ModeAssisted),
	}, "Chrome on Windows (Desktop)")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return session
}

// waitFor polls until the condition holds, failing the test after a
// short deadline. Event folding runs on its own goroutine.
func waitFor(t *testing.T, condition func() bool, message string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(message)
}

func TestCreateRequiresActingUser(t *testing.T) {
	controller, store, _ := newTestController()

	_, err := controller.Create(context.Background(), "", dto.CreateSessionRequest{
		DisplayName: "Anonymous",
		Age:         30,
		Gender:      string(model.GenderOther),
		Mode:        string(model.ModeSelf),
	}, "")

	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("Create() error = %v, want ErrAuthRequired", err)
	}
	if store.createCount() != 0 {
		t.Errorf("Create() without identity attempted a store write")
	}
}

func TestCreateOpensSubscription(t *testing.T) {
	controller, _, streamer := newTestController()
	session := createTestSession(t, controller)

	if session.SessionID == "" {
		t.Fatal("Create() did not assign a session id")
	}

	sub := streamer.lastSub()
	if sub == nil {
		t.Fatal("Create() did not open a subscription")
	}
	if sub.sessionID != session.SessionID {
		t.Errorf("subscription scoped to %q, want %q", sub.sessionID, session.SessionID)
	}

	snap := controller.Snapshot()
	if snap.LifecycleState != model.StateCreated {
		t.Errorf("lifecycle state = %s, want %s", snap.LifecycleState, model.StateCreated)
	}
}

func TestCreateReplacesPriorSubscription(t *testing.T) {
	controller, _, streamer := newTestController()
	createTestSession(t, controller)
	first := streamer.lastSub()

	createTestSession(t, controller)
	second := streamer.lastSub()

	if !first.closed.Load() {
		t.Error("previous subscription was not torn down on replacement")
	}
	if second.closed.Load() {
		t.Error("new subscription should be live")
	}
	if first == second {
		t.Fatal("expected a fresh subscription for the new session")
	}
}

func TestBeginMonitoringHappyPath(t *testing.T) {
	controller, store, _ := newTestController()
	createTestSession(t, controller)

	if err := controller.BeginMonitoring(context.Background()); err != nil {
		t.Fatalf("BeginMonitoring() failed: %v", err)
	}

	if len(store.stateWrites) != 1 || store.stateWrites[0] != model.StateStarted {
		t.Errorf("state writes = %v, want [STARTED]", store.stateWrites)
	}
	if snap := controller.Snapshot(); snap.LifecycleState != model.StateStarted {
		t.Errorf("local state = %s, want %s", snap.LifecycleState, model.StateStarted)
	}
}

func TestBeginMonitoringWithoutSession(t *testing.T) {
	controller, _, _ := newTestController()

	if err := controller.BeginMonitoring(context.Background()); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("BeginMonitoring() error = %v, want ErrNoActiveSession", err)
	}
}

func TestBeginMonitoringAfterCompletion(t *testing.T) {
	controller, store, streamer := newTestController()
	session := createTestSession(t, controller)

	completed := *session
	completed.State = model.StateCompleted
	streamer.lastSub().emit(services.StreamEvent{Kind: services.EventSessionChanged, Session: &completed})

	waitFor(t, func() bool {
		return controller.Snapshot().LifecycleState == model.StateCompleted
	}, "completion event was not folded")

	if err := controller.BeginMonitoring(context.Background()); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("BeginMonitoring() on completed session error = %v, want ErrNoActiveSession", err)
	}
	if len(store.stateWrites) != 0 {
		t.Errorf("BeginMonitoring() on completed session wrote state %v", store.stateWrites)
	}
}

func TestBeginMonitoringStoreFailureKeepsState(t *testing.T) {
	controller, store, _ := newTestController()
	createTestSession(t, controller)
	store.failUpdate = true

	err := controller.BeginMonitoring(context.Background())
	if err == nil || errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("BeginMonitoring() error = %v, want a store failure", err)
	}
	if snap := controller.Snapshot(); snap.LifecycleState != model.StateCreated {
		t.Errorf("state changed to %s after rejected write", snap.LifecycleState)
	}
}

// Applying the same session-changed event twice must land on the same
// state as applying it once: both the direct write acknowledgment and
// the change stream echo carry the full snapshot.
func TestSessionEventFoldIsIdempotent(t *testing.T) {
	controller, _, streamer := newTestController()
	session := createTestSession(t, controller)

	monitoring := *session
	monitoring.State = model.StateMonitoring
	event := services.StreamEvent{Kind: services.EventSessionChanged, Session: &monitoring}

	streamer.lastSub().emit(event)
	waitFor(t, func() bool {
		return controller.Snapshot().LifecycleState == model.StateMonitoring
	}, "session event was not folded")
	first := controller.Snapshot()

	streamer.lastSub().emit(event)
	waitFor(t, func() bool {
		return reflect.DeepEqual(controller.Snapshot(), first)
	}, "re-applied event changed local state")
}

func TestStatusEventsAccumulateInOrder(t *testing.T) {
	controller, _, streamer := newTestController()
	session := createTestSession(t, controller)
	sub := streamer.lastSub()

	for i, message := range []string{"Device connected", "Calibrating", "Measuring"} {
		sub.emit(services.StreamEvent{Kind: services.EventStatusCreated, Status: &model.StatusEvent{
			StatusID:  fmt.Sprintf("st-%d", i),
			SessionID: session.SessionID,
			Message:   message,
		}})
	}

	waitFor(t, func() bool {
		return len(controller.Snapshot().StatusHistory) == 3
	}, "status events were not folded")

	snap := controller.Snapshot()
	if snap.StatusMessage != "Measuring" {
		t.Errorf("status message = %q, want %q", snap.StatusMessage, "Measuring")
	}
	if snap.StatusHistory[0].Message != "Device connected" {
		t.Errorf("status history out of order: %q first", snap.StatusHistory[0].Message)
	}
}

func TestLatestVitalReplacedUnconditionally(t *testing.T) {
	controller, _, streamer := newTestController()
	session := createTestSession(t, controller)
	sub := streamer.lastSub()

	sub.emit(services.StreamEvent{Kind: services.EventVitalCreated, Vital: &model.Vital{
		VitalID: "v-1", SessionID: session.SessionID, HeartRate: f(72),
	}})
	sub.emit(services.StreamEvent{Kind: services.EventVitalCreated, Vital: &model.Vital{
		VitalID: "v-2", SessionID: session.SessionID, HeartRate: f(110),
	}})

	waitFor(t, func() bool {
		snap := controller.Snapshot()
		return snap.LatestVital != nil && snap.LatestVital.VitalID == "v-2"
	}, "latest vital was not replaced")
}

func TestEventsForOtherSessionsIgnored(t *testing.T) {
	controller, _, streamer := newTestController()
	createTestSession(t, controller)
	sub := streamer.lastSub()

	sub.emit(services.StreamEvent{Kind: services.EventVitalCreated, Vital: &model.Vital{
		VitalID: "v-other", SessionID: "someone-else", HeartRate: f(60),
	}})
	sub.emit(services.StreamEvent{Kind: services.EventStatusCreated, Status: &model.StatusEvent{
		StatusID: "st-other", SessionID: "someone-else", Message: "noise",
	}})

	// Give the fold loop a chance to misbehave before asserting.
	time.Sleep(50 * time.Millisecond)

	snap := controller.Snapshot()
	if snap.LatestVital != nil {
		t.Error("vital for another session reached local state")
	}
	if len(snap.StatusHistory) != 0 {
		t.Error("status for another session reached local state")
	}
}

// After ResetLocal, nothing a stale subscription still delivers may
// mutate controller state.
func TestResetLocalIgnoresLateEmissions(t *testing.T) {
	controller, _, streamer := newTestController()
	session := createTestSession(t, controller)
	sub := streamer.lastSub()

	controller.ResetLocal()

	if !sub.closed.Load() {
		t.Fatal("ResetLocal() did not close the subscription")
	}

	late := *session
	late.State = model.StateError
	sub.emit(services.StreamEvent{Kind: services.EventSessionChanged, Session: &late})
	sub.emit(services.StreamEvent{Kind: services.EventVitalCreated, Vital: &model.Vital{
		VitalID: "v-late", SessionID: session.SessionID, SpO2: f(85),
	}})

	time.Sleep(50 * time.Millisecond)

	snap := controller.Snapshot()
	if snap.Session != nil || snap.LatestVital != nil || snap.LifecycleState != "" {
		t.Errorf("late emission mutated reset state: %+v", snap)
	}
}

func TestResetLocalIsIdempotent(t *testing.T) {
	controller, _, _ := newTestController()
	createTestSession(t, controller)

	controller.ResetLocal()
	controller.ResetLocal()
	controller.Teardown()

	snap := controller.Snapshot()
	if snap.Session != nil || len(snap.StatusHistory) != 0 {
		t.Errorf("reset state not empty: %+v", snap)
	}
}

func TestCreateFailureSurfacesError(t *testing.T) {
	controller, store, streamer := newTestController()
	store.failCreate = true

	_, err := controller.Create(context.Background(), "user-1", dto.CreateSessionRequest{
		DisplayName: "Bed 4",
		Age:         51,
		Gender:      string(model.GenderMale),
		Mode:        string(model.ModeSelf),
	}, "")

	if err == nil || errors.Is(err, ErrAuthRequired) {
		t.Fatalf("Create() error = %v, want a store failure", err)
	}
	if streamer.lastSub() != nil {
		t.Error("subscription opened despite rejected create")
	}
	if snap := controller.Snapshot(); snap.Error == "" {
		t.Error("store failure did not surface on the state bag")
	}
}
