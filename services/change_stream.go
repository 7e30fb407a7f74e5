package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"main/middleware"
	"main/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StreamEventKind string

const (
	EventSessionChanged StreamEventKind = "session_changed"
	EventStatusCreated  StreamEventKind = "status_created"
	EventVitalCreated   StreamEventKind = "vital_created"
)

// StreamEvent is one row-level change pushed for a subscribed session.
// Exactly one of Session/Status/Vital is set, matching Kind.
type StreamEvent struct {
	Kind    StreamEventKind
	Session *model.MonitoringSession
	Status  *model.StatusEvent
	Vital   *model.Vital
}

// Subscription is a live event feed for a single session. Events is
// closed when the subscription ends, so a consuming loop can simply
// range over it. Close is idempotent.
type Subscription struct {
	events    chan StreamEvent
	stop      context.CancelFunc
	closeOnce sync.Once
}

// NewSubscription wraps an event channel and a stop function. Test
// doubles construct subscriptions the same way the Mongo adapter does.
func NewSubscription(events chan StreamEvent, stop context.CancelFunc) *Subscription {
	middleware.ActiveSubscriptions.Inc()
	return &Subscription{events: events, stop: stop}
}

func (s *Subscription) Events() <-chan StreamEvent {
	return s.events
}

// Close tears the subscription down. Calling it twice, or on an
// already-ended subscription, is a no-op.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		middleware.ActiveSubscriptions.Dec()
		if s.stop != nil {
			s.stop()
		}
	})
}

// Streamer opens server-pushed change subscriptions scoped to one
// session id.
type Streamer interface {
	Subscribe(ctx context.Context, sessionID string) (*Subscription, error)
}

// ChangeStream adapts MongoDB change streams to the Streamer contract.
// A single database-level watch covers the sessions, statuses and
// vitals collections; ns.coll discriminates the event kind and the
// pipeline filters server-side to the subscribed session id.
type ChangeStream struct {
	db            *mongo.Database
	sessionsColl  string
	statusesColl  string
	vitalsColl    string
	channelBuffer int
}

func NewChangeStream(client *mongo.Client) *ChangeStream {
	return &ChangeStream{
		db:            client.Database(os.Getenv("MONGO_DB")),
		sessionsColl:  os.Getenv("SESSIONS_COLLECTION"),
		statusesColl:  os.Getenv("STATUSES_COLLECTION"),
		vitalsColl:    os.Getenv("VITALS_COLLECTION"),
		channelBuffer: 64,
	}
}

func (cs *ChangeStream) Subscribe(ctx context.Context, sessionID string) (*Subscription, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"operationType":           bson.M{"$in": bson.A{"insert", "update", "replace"}},
			"ns.coll":                 bson.M{"$in": bson.A{cs.sessionsColl, cs.statusesColl, cs.vitalsColl}},
			"fullDocument.session_id": sessionID,
		}}},
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := cs.db.Watch(ctx, pipeline, opts)
	if err != nil {
		cancel()
		middleware.TrackError("stream")
		return nil, fmt.Errorf("failed to open change stream: %w", err)
	}

	events := make(chan StreamEvent, cs.channelBuffer)
	sub := NewSubscription(events, cancel)
	go cs.pump(streamCtx, stream, events)
	return sub, nil
}

// pump drains the Mongo stream into the subscription channel until the
// subscription is closed or the transport drops. Closing the channel
// is what ends the consumer's fold loop.
func (cs *ChangeStream) pump(ctx context.Context, stream *mongo.ChangeStream, events chan<- StreamEvent) {
	defer close(events)
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var change changeDocument
		if err := stream.Decode(&change); err != nil {
			middleware.TrackError("stream")
			log.Printf("Warning: failed to decode change stream document: %v", err)
			continue
		}

		event, ok := cs.toStreamEvent(change)
		if !ok {
			continue
		}

		select {
		case events <- event:
		case <-ctx.Done():
			return
		}
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		// Transport drop. No reconnect here; session views fall back
		// to point-in-time reads.
		middleware.TrackError("stream")
		log.Printf("Warning: change stream ended: %v", err)
	}
}

type changeDocument struct {
	OperationType string `bson:"operationType"`
	Ns            struct {
		Coll string `bson:"coll"`
	} `bson:"ns"`
	FullDocument bson.Raw `bson:"fullDocument"`
}

func (cs *ChangeStream) toStreamEvent(change changeDocument) (StreamEvent, bool) {
	switch change.Ns.Coll {
	case cs.sessionsColl:
		var session model.MonitoringSession
		if err := bson.Unmarshal(change.FullDocument, &session); err != nil {
			log.Printf("Warning: failed to decode session change: %v", err)
			return StreamEvent{}, false
		}
		return StreamEvent{Kind: EventSessionChanged, Session: &session}, true
	case cs.statusesColl:
		if change.OperationType != "insert" {
			return StreamEvent{}, false
		}
		var status model.StatusEvent
		if err := bson.Unmarshal(change.FullDocument, &status); err != nil {
			log.Printf("Warning: failed to decode status change: %v", err)
			return StreamEvent{}, false
		}
		return StreamEvent{Kind: EventStatusCreated, Status: &status}, true
	case cs.vitalsColl:
		if change.OperationType != "insert" {
			return StreamEvent{}, false
		}
		var vital model.Vital
		if err := bson.Unmarshal(change.FullDocument, &vital); err != nil {
			log.Printf("Warning: failed to decode vital change: %v", err)
			return StreamEvent{}, false
		}
		return StreamEvent{Kind: EventVitalCreated, Vital: &vital}, true
	default:
		return StreamEvent{}, false
	}
}
