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

type VitalsRepo struct {
	MongoCollection *mongo.Collection
}

func GetVitalsRepo(client *mongo.Client) *VitalsRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := os.Getenv("VITALS_COLLECTION")
	return &VitalsRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// CreateVital records a snapshot pushed by the device ingestion
// pipeline. The monitoring core only ever reads these back.
func (r *VitalsRepo) CreateVital(vital *model.Vital) error {
	timer := middleware.TrackDBOperation("insert", "vitals")
	defer timer.ObserveDuration()

	if vital == nil {
		middleware.TrackError("database")
		return fmt.Errorf("vital cannot be nil")
	}
	if vital.SessionID == "" {
		middleware.TrackError("database")
		return fmt.Errorf("invalid vital: missing session id")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	vital.VitalID = utils.GenerateID()
	vital.CreatedAt = time.Now()

	if _, err := r.MongoCollection.InsertOne(ctx, vital); err != nil {
		middleware.TrackError("database")
		return fmt.Errorf("failed to create vital: %w", err)
	}

	middleware.TrackVitalIngested()
	return nil
}

// GetLatestVital returns the most recently received vital for a
// session, or (nil, nil) when none has arrived yet. This is the
// point-in-time fallback for views without a live subscription.
func (r *VitalsRepo) GetLatestVital(sessionID string) (*model.Vital, error) {
	timer := middleware.TrackDBOperation("find", "vitals")
	defer timer.ObserveDuration()

	if sessionID == "" {
		middleware.TrackError("database")
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var vital model.Vital
	err := r.MongoCollection.FindOne(ctx, bson.M{"session_id": sessionID}, opts).Decode(&vital)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		middleware.TrackError("database")
		return nil, fmt.Errorf("failed to fetch latest vital: %w", err)
	}
	return &vital, nil
}
