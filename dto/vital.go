package dto

// ScoreVitalRequest is a bare vital snapshot posted for standalone
// scoring, e.g. by a report exporter that already holds the reading.
type ScoreVitalRequest struct {
	Temperature *float64 `json:"temperature"`
	HeartRate   *float64 `json:"heart_rate"`
	SpO2        *float64 `json:"spo2"`
	AudioLevel  *float64 `json:"audio_level"`
}
