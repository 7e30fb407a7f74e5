package handler

import (
	"log"

	"main/dto"
	"main/middleware"
	"main/model"
	"main/repository"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type RiskHandler struct {
	vitalsRepo *repository.VitalsRepo
}

func NewRiskHandler(vitalsRepo *repository.VitalsRepo) *RiskHandler {
	return &RiskHandler{vitalsRepo: vitalsRepo}
}

// GetSessionRisk scores the latest vital recorded for a session.
func (h *RiskHandler) GetSessionRisk(c *gin.Context) {
	sessionID := c.Param("id")

	vital, err := h.vitalsRepo.GetLatestVital(sessionID)
	if err != nil {
		log.Printf("Error fetching latest vital for session %s: %v", sessionID, err)
		utils.InternalError(c, "Failed to fetch latest vital")
		return
	}
	if vital == nil {
		utils.NotFound(c, "No vital recorded for session")
		return
	}

	result := usecase.ScoreVital(vital)
	middleware.TrackRiskEvaluation(string(result.Level))

	utils.Success(c, gin.H{
		"vital": vital,
		"risk":  result,
	})
}

// ScoreVital scores a posted snapshot directly, without touching the
// store. Used by report and export flows that already hold a reading.
func (h *RiskHandler) ScoreVital(c *gin.Context) {
	var req dto.ScoreVitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid vital input")
		return
	}

	vital := &model.Vital{
		Temperature: req.Temperature,
		HeartRate:   req.HeartRate,
		SpO2:        req.SpO2,
		AudioLevel:  req.AudioLevel,
	}

	result := usecase.ScoreVital(vital)
	middleware.TrackRiskEvaluation(string(result.Level))

	utils.Success(c, gin.H{"risk": result})
}
