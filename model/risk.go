package model

type RiskLevel string
type FieldFlag string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"

	FlagNormal        FieldFlag = "NORMAL"
	FlagAbnormal      FieldFlag = "ABNORMAL"
	FlagInformational FieldFlag = "INFORMATIONAL"
)

// VitalFlags carries the per-field outcome of a risk evaluation. The
// audio field never scores, so its flag is always informational.
type VitalFlags struct {
	Temperature FieldFlag `json:"temperature"`
	HeartRate   FieldFlag `json:"heart_rate"`
	SpO2        FieldFlag `json:"spo2"`
	Audio       FieldFlag `json:"audio"`
}

// RiskResult is the derived classification of a single vital snapshot.
// It is recomputed on demand and never persisted.
type RiskResult struct {
	Level           RiskLevel  `json:"risk_level"`
	Score           int        `json:"risk_score"`
	Summary         string     `json:"summary"`
	Recommendations []string   `json:"recommendations"`
	AbnormalFields  []string   `json:"abnormal_fields"`
	Flags           VitalFlags `json:"flags"`
	DataQuality     string     `json:"data_quality"`
}
