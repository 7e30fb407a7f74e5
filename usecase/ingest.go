package usecase

import (
	"fmt"

	"main/dto"
	"main/model"
)

// StatusStore and VitalStore are the repository slices the ingest
// service writes through.
type StatusStore interface {
	CreateStatusEvent(event *model.StatusEvent) error
}

type VitalStore interface {
	CreateVital(vital *model.Vital) error
}

// IngestService is the write path for the device pipeline: it records
// vitals and progress messages, which the change stream then pushes to
// any subscribed session view.
type IngestService struct {
	StatusRepo StatusStore
	VitalsRepo VitalStore
}

// AddStatus appends a progress message for a session.
func (s *IngestService) AddStatus(sessionID, message string) (*model.StatusEvent, error) {
	if message == "" {
		return nil, fmt.Errorf("status message cannot be empty")
	}
	event := &model.StatusEvent{SessionID: sessionID, Message: message}
	if err := s.StatusRepo.CreateStatusEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

// AddVital records a snapshot together with its coarse health tag.
func (s *IngestService) AddVital(sessionID string, input dto.ScoreVitalRequest) (*model.Vital, error) {
	vital := &model.Vital{
		SessionID:   sessionID,
		Temperature: input.Temperature,
		HeartRate:   input.HeartRate,
		SpO2:        input.SpO2,
		AudioLevel:  input.AudioLevel,
	}
	tag := CoarseHealthStatus(vital)
	vital.HealthStatus = &tag

	if err := s.VitalsRepo.CreateVital(vital); err != nil {
		return nil, err
	}
	return vital, nil
}

// CoarseHealthStatus computes the store-side GREEN/YELLOW/RED tag
// written with each vital. It is a deliberately crude classification,
// independent of the risk engine's scoring, and the two are never
// reconciled.
func CoarseHealthStatus(vital *model.Vital) model.HealthStatus {
	if vital == nil {
		return model.HealthGreen
	}

	red := false
	yellow := false

	if vital.Temperature != nil {
		if *vital.Temperature >= 39.0 {
			red = true
		} else if *vital.Temperature < TempMin || *vital.Temperature > TempMax {
			yellow = true
		}
	}
	if vital.HeartRate != nil {
		if *vital.HeartRate == 0 {
			red = true
		} else if *vital.HeartRate < HRMin || *vital.HeartRate > HRMax {
			yellow = true
		}
	}
	if vital.SpO2 != nil {
		if *vital.SpO2 < 90.0 {
			red = true
		} else if *vital.SpO2 < SpO2Min {
			yellow = true
		}
	}

	switch {
	case red:
		return model.HealthRed
	case yellow:
		return model.HealthYellow
	default:
		return model.HealthGreen
	}
}
