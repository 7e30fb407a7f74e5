package utils

import (
	"log"

	"github.com/google/uuid"
)

// GenerateID returns a unique row id for sessions, statuses and
// vitals.
func GenerateID() string {
	id, err := uuid.NewUUID()
	if err != nil {
		log.Fatal("Failed to generate a unique ID", err)
	}
	return id.String()
}
