package model

import "time"

// HealthStatus is the coarse tag computed by the ingestion pipeline
// when it writes a vital. It is independent of the risk engine's own
// classification and the two are intentionally never reconciled.
type HealthStatus string

const (
	HealthGreen  HealthStatus = "GREEN"
	HealthYellow HealthStatus = "YELLOW"
	HealthRed    HealthStatus = "RED"
)

// Vital is one snapshot of measured physiological values. Any field a
// device failed to report is nil. Many vitals may arrive per session;
// consumers treat the latest arrival as authoritative.
type Vital struct {
	VitalID      string        `bson:"vital_id" json:"vital_id"`
	SessionID    string        `bson:"session_id" json:"session_id"`
	Temperature  *float64      `bson:"temperature,omitempty" json:"temperature,omitempty"`
	HeartRate    *float64      `bson:"heart_rate,omitempty" json:"heart_rate,omitempty"`
	SpO2         *float64      `bson:"spo2,omitempty" json:"spo2,omitempty"`
	AudioLevel   *float64      `bson:"audio_level,omitempty" json:"audio_level,omitempty"`
	HealthStatus *HealthStatus `bson:"health_status,omitempty" json:"health_status,omitempty"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
}
