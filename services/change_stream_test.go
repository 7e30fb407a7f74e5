package services

import (
	"testing"
	"time"

	"main/model"

	"go.mongodb.org/mongo-driver/bson"
)

func testChangeStream() *ChangeStream {
	return &ChangeStream{
		sessionsColl:  "sessions",
		statusesColl:  "statuses",
		vitalsColl:    "vitals",
		channelBuffer: 8,
	}
}

func rawDocument(t *testing.T, doc interface{}) bson.Raw {
	t.Helper()
	data, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("failed to marshal document: %v", err)
	}
	return bson.Raw(data)
}

func TestToStreamEventSessionChange(t *testing.T) {
	cs := testChangeStream()
	session := model.MonitoringSession{
		SessionID: "sess-1",
		UserID:    "user-1",
		State:     model.StateMonitoring,
		CreatedAt: time.Now().Truncate(time.Millisecond),
	}

	change := changeDocument{OperationType: "update", FullDocument: rawDocument(t, session)}
	change.Ns.Coll = "sessions"

	event, ok := cs.toStreamEvent(change)
	if !ok {
		t.Fatal("session change was not converted")
	}
	if event.Kind != EventSessionChanged {
		t.Errorf("kind = %s, want %s", event.Kind, EventSessionChanged)
	}
	if event.Session == nil || event.Session.SessionID != "sess-1" || event.Session.State != model.StateMonitoring {
		t.Errorf("decoded session = %+v", event.Session)
	}
}

func TestToStreamEventStatusInsert(t *testing.T) {
	cs := testChangeStream()
	status := model.StatusEvent{StatusID: "st-1", SessionID: "sess-1", Message: "Calibrating"}

	change := changeDocument{OperationType: "insert", FullDocument: rawDocument(t, status)}
	change.Ns.Coll = "statuses"

	event, ok := cs.toStreamEvent(change)
	if !ok || event.Kind != EventStatusCreated {
		t.Fatalf("status insert not converted: ok=%v kind=%s", ok, event.Kind)
	}
	if event.Status == nil || event.Status.Message != "Calibrating" {
		t.Errorf("decoded status = %+v", event.Status)
	}
}

func TestToStreamEventVitalInsert(t *testing.T) {
	cs := testChangeStream()
	hr := 72.0
	vital := model.Vital{VitalID: "v-1", SessionID: "sess-1", HeartRate: &hr}

	change := changeDocument{OperationType: "insert", FullDocument: rawDocument(t, vital)}
	change.Ns.Coll = "vitals"

	event, ok := cs.toStreamEvent(change)
	if !ok || event.Kind != EventVitalCreated {
		t.Fatalf("vital insert not converted: ok=%v kind=%s", ok, event.Kind)
	}
	if event.Vital == nil || event.Vital.HeartRate == nil || *event.Vital.HeartRate != 72.0 {
		t.Errorf("decoded vital = %+v", event.Vital)
	}
}

func TestToStreamEventFiltersNonInserts(t *testing.T) {
	cs := testChangeStream()
	vital := model.Vital{VitalID: "v-1", SessionID: "sess-1"}

	// Status and vital rows are append-only; only inserts count.
	change := changeDocument{OperationType: "update", FullDocument: rawDocument(t, vital)}
	change.Ns.Coll = "vitals"
	if _, ok := cs.toStreamEvent(change); ok {
		t.Error("vital update should be ignored")
	}

	change.Ns.Coll = "unrelated"
	if _, ok := cs.toStreamEvent(change); ok {
		t.Error("change from an unrelated collection should be ignored")
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	stops := 0
	events := make(chan StreamEvent)
	sub := NewSubscription(events, func() { stops++ })

	sub.Close()
	sub.Close()
	sub.Close()

	if stops != 1 {
		t.Errorf("stop invoked %d times, want 1", stops)
	}
}
