package model

import "time"

// StatusEvent is an append-only progress message scoped to a session.
// Events are never mutated or deleted; ordering is creation-time order.
type StatusEvent struct {
	StatusID  string    `bson:"status_id" json:"status_id"`
	SessionID string    `bson:"session_id" json:"session_id"`
	Message   string    `bson:"message" json:"message"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
