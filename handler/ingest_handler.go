package handler

import (
	"log"

	"main/dto"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// IngestHandler is the write surface for the device pipeline. Rows it
// inserts come back to session views through the change stream.
type IngestHandler struct {
	ingest *usecase.IngestService
}

func NewIngestHandler(ingest *usecase.IngestService) *IngestHandler {
	return &IngestHandler{ingest: ingest}
}

func (h *IngestHandler) AddStatus(c *gin.Context) {
	sessionID := c.Param("id")

	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid status input")
		return
	}

	event, err := h.ingest.AddStatus(sessionID, req.Message)
	if err != nil {
		log.Printf("Error adding status for session %s: %v", sessionID, err)
		utils.InternalError(c, "Failed to record status")
		return
	}

	utils.Created(c, gin.H{"status": event})
}

func (h *IngestHandler) AddVital(c *gin.Context) {
	sessionID := c.Param("id")

	var req dto.ScoreVitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid vital input")
		return
	}

	vital, err := h.ingest.AddVital(sessionID, req)
	if err != nil {
		log.Printf("Error adding vital for session %s: %v", sessionID, err)
		utils.InternalError(c, "Failed to record vital")
		return
	}

	utils.Created(c, gin.H{"vital": vital})
}
