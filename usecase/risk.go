package usecase

import (
	"fmt"

	"main/model"
)

// Normal clinical ranges. Boundary values are considered in range;
// only strict deviations score.
const (
	TempMin = 36.1
	TempMax = 37.5
	HRMin   = 60.0
	HRMax   = 100.0
	SpO2Min = 95.0
)

const (
	penaltyTempLow     = 10
	penaltyTempHigh    = 20
	penaltyHRSensorErr = 40
	penaltyHRLow       = 25
	penaltyHRHigh      = 25
	penaltySpO2Low     = 35

	riskHighThreshold     = 60
	riskModerateThreshold = 30
)

const (
	LabelTempLow     = "Temperature (Low)"
	LabelTempHigh    = "Temperature (High)"
	LabelHRSensorErr = "Heart Rate (Sensor Error)"
	LabelHRLow       = "Heart Rate (Low)"
	LabelHRHigh      = "Heart Rate (High)"
	LabelSpO2Low     = "SpO₂ (Low)"
)

var riskSummaries = map[model.RiskLevel]string{
	model.RiskLow:      "Vital signs are within normal limits. No immediate action required.",
	model.RiskModerate: "Some vital signs are outside normal limits. Closer observation is recommended.",
	model.RiskHigh:     "Multiple vital signs are critically abnormal. Seek medical attention promptly.",
}

var riskRecommendations = map[string]string{
	LabelTempLow:     "Low body temperature detected. Keep the patient warm and re-measure shortly.",
	LabelTempHigh:    "Elevated temperature detected. Monitor for fever progression and consider antipyretics.",
	LabelHRSensorErr: "Heart rate reads zero. Check sensor placement and reattach the device.",
	LabelHRLow:       "Heart rate below normal range. Keep the patient at rest and re-check.",
	LabelHRHigh:      "Heart rate above normal range. Have the patient rest and re-measure in a few minutes.",
	LabelSpO2Low:     "Oxygen saturation below normal. Ensure a clear airway and consider supplemental oxygen.",
}

// ScoreVital classifies a single vital snapshot. It is deterministic
// and total: nil fields are skipped, contributing no score and no
// flag, and only degrade the data quality indicator. Fields are
// evaluated in a fixed order (temperature, heart rate, SpO₂) which
// fixes the order of abnormal labels and recommendations; the total
// score does not depend on it. The audio level never scores.
func ScoreVital(vital *model.Vital) model.RiskResult {
	result := model.RiskResult{
		Recommendations: []string{},
		AbnormalFields:  []string{},
		Flags: model.VitalFlags{
			Temperature: model.FlagNormal,
			HeartRate:   model.FlagNormal,
			SpO2:        model.FlagNormal,
			Audio:       model.FlagInformational,
		},
	}

	fieldsPresent := 0

	if vital != nil && vital.Temperature != nil {
		fieldsPresent++
		switch {
		case *vital.Temperature < TempMin:
			result.Score += penaltyTempLow
			flagAbnormal(&result, &result.Flags.Temperature, LabelTempLow)
		case *vital.Temperature > TempMax:
			result.Score += penaltyTempHigh
			flagAbnormal(&result, &result.Flags.Temperature, LabelTempHigh)
		}
	}

	if vital != nil && vital.HeartRate != nil {
		fieldsPresent++
		switch {
		// A flat zero is a detached or failed sensor, not bradycardia;
		// it must not additionally trigger the low-rate penalty.
		case *vital.HeartRate == 0:
			result.Score += penaltyHRSensorErr
			flagAbnormal(&result, &result.Flags.HeartRate, LabelHRSensorErr)
		case *vital.HeartRate < HRMin:
			result.Score += penaltyHRLow
			flagAbnormal(&result, &result.Flags.HeartRate, LabelHRLow)
		case *vital.HeartRate > HRMax:
			result.Score += penaltyHRHigh
			flagAbnormal(&result, &result.Flags.HeartRate, LabelHRHigh)
		}
	}

	if vital != nil && vital.SpO2 != nil {
		fieldsPresent++
		// Saturation above the range ceiling is not physiologically
		// meaningful and stays unflagged.
		if *vital.SpO2 < SpO2Min {
			result.Score += penaltySpO2Low
			flagAbnormal(&result, &result.Flags.SpO2, LabelSpO2Low)
		}
	}

	switch {
	case result.Score >= riskHighThreshold:
		result.Level = model.RiskHigh
	case result.Score >= riskModerateThreshold:
		result.Level = model.RiskModerate
	default:
		result.Level = model.RiskLow
	}

	result.Summary = riskSummaries[result.Level]
	result.DataQuality = dataQuality(fieldsPresent)
	return result
}

func flagAbnormal(result *model.RiskResult, flag *model.FieldFlag, label string) {
	*flag = model.FlagAbnormal
	result.AbnormalFields = append(result.AbnormalFields, label)
	result.Recommendations = append(result.Recommendations, riskRecommendations[label])
}

func dataQuality(fieldsPresent int) string {
	switch fieldsPresent {
	case 3:
		return "Complete"
	case 0:
		return "No Data"
	default:
		return fmt.Sprintf("Partial (%d/3)", fieldsPresent)
	}
}
