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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StatusRepo struct {
	MongoCollection *mongo.Collection
}

func GetStatusRepo(client *mongo.Client) *StatusRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := os.Getenv("STATUSES_COLLECTION")
	return &StatusRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// CreateStatusEvent appends a progress message for a session. Status
// events are append-only; there is no update or delete path.
func (r *StatusRepo) CreateStatusEvent(event *model.StatusEvent) error {
	timer := middleware.TrackDBOperation("insert", "statuses")
	defer timer.ObserveDuration()

	if event == nil {
		middleware.TrackError("database")
		return fmt.Errorf("status event cannot be nil")
	}
	if event.SessionID == "" {
		middleware.TrackError("database")
		return fmt.Errorf("invalid status event: missing session id")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	event.StatusID = utils.GenerateID()
	event.CreatedAt = time.Now()

	if _, err := r.MongoCollection.InsertOne(ctx, event); err != nil {
		middleware.TrackError("database")
		return fmt.Errorf("failed to create status event: %w", err)
	}

	return nil
}

// GetSessionStatuses returns a session's progress feed in creation
// order, oldest first.
func (r *StatusRepo) GetSessionStatuses(sessionID string) ([]*model.StatusEvent, error) {
	timer := middleware.TrackDBOperation("find", "statuses")
	defer timer.ObserveDuration()

	if sessionID == "" {
		middleware.TrackError("database")
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.MongoCollection.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		middleware.TrackError("database")
		return nil, fmt.Errorf("failed to fetch status events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*model.StatusEvent
	if err = cursor.All(ctx, &events); err != nil {
		middleware.TrackError("database")
		return nil, fmt.Errorf("failed to decode status events: %w", err)
	}
	return events, nil
}
