package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	"main/middleware"
	"main/model"
	"main/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type SessionsRepo struct {
	MongoCollection *mongo.Collection
}

func GetSessionsRepo(client *mongo.Client) *SessionsRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := os.Getenv("SESSIONS_COLLECTION")
	return &SessionsRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// CreateSession persists a new session in state CREATED and assigns its
// id. The returned session is the row as written.
func (r *SessionsRepo) CreateSession(session *model.MonitoringSession) error {
	timer := middleware.TrackDBOperation("insert", "sessions")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if session == nil {
		middleware.TrackError("database")
		return fmt.Errorf("session cannot be nil")
	}
	if session.UserID == "" {
		middleware.TrackError("database")
		return fmt.Errorf("invalid session data: missing user id")
	}

	session.SessionID = utils.GenerateID()
	session.State = model.StateCreated
	session.CreatedAt = time.Now()

	if _, err := r.MongoCollection.InsertOne(ctx, session); err != nil {
		middleware.TrackError("database")
		return fmt.Errorf("failed to create session in database: %w", err)
	}

	middleware.TrackSessionCreated()
	return nil
}

// UpdateSessionState writes a new lifecycle state. The store is the
// single writer of truth once monitoring begins, so this is a plain
// $set with no compare step.
func (r *SessionsRepo) UpdateSessionState(sessionID string, state model.LifecycleState) error {
	timer := middleware.TrackDBOperation("update", "sessions")
	defer timer.ObserveDuration()

	if sessionID == "" {
		middleware.TrackError("database")
		return fmt.Errorf("sessionID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.MongoCollection.UpdateOne(
		ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{"state": state}},
	)
	if err != nil {
		middleware.TrackError("database")
		return fmt.Errorf("failed to update session state: %w", err)
	}
	if result.MatchedCount == 0 {
		middleware.TrackError("database")
		return fmt.Errorf("session not found")
	}

	middleware.TrackLifecycleTransition(string(state))
	return nil
}

// GetSession fetches a session by id. A missing session returns
// (nil, nil), matching how callers distinguish not-found from failure.
func (r *SessionsRepo) GetSession(sessionID string) (*model.MonitoringSession, error) {
	timer := middleware.TrackDBOperation("find", "sessions")
	defer timer.ObserveDuration()

	if sessionID == "" {
		middleware.TrackError("database")
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var session model.MonitoringSession
	err := r.MongoCollection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		middleware.TrackError("database")
		return nil, fmt.Errorf("failed to fetch session from database: %w", err)
	}

	return &session, nil
}
