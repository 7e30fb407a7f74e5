package handler

import (
	"errors"
	"log"

	"main/dto"
	"main/repository"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// MonitorHandler exposes the session lifecycle actions and the
// observable state bag over HTTP. Live views are served from their
// controller; views without one fall back to the snapshot cache and
// then to point-in-time store reads.
type MonitorHandler struct {
	registry     *usecase.ControllerRegistry
	sessionsRepo *repository.SessionsRepo
	statusRepo   *repository.StatusRepo
	vitalsRepo   *repository.VitalsRepo
	streamer     services.Streamer
}

func NewMonitorHandler(
	registry *usecase.ControllerRegistry,
	sessionsRepo *repository.SessionsRepo,
	statusRepo *repository.StatusRepo,
	vitalsRepo *repository.VitalsRepo,
	streamer services.Streamer,
) *MonitorHandler {
	return &MonitorHandler{
		registry:     registry,
		sessionsRepo: sessionsRepo,
		statusRepo:   statusRepo,
		vitalsRepo:   vitalsRepo,
		streamer:     streamer,
	}
}

func (h *MonitorHandler) CreateSession(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid session input")
		return
	}

	controller := usecase.NewSessionController(h.sessionsRepo, h.streamer)
	deviceInfo := utils.DescribeDevice(c.Request.UserAgent())

	session, err := controller.Create(c.Request.Context(), userID.(string), req, deviceInfo)
	if err != nil {
		if errors.Is(err, usecase.ErrAuthRequired) {
			utils.Unauthorized(c, "User not authenticated")
			return
		}
		log.Printf("Error creating session: %v", err)
		utils.InternalError(c, "Failed to create session")
		return
	}

	h.registry.Put(session.SessionID, controller)
	snapshot := controller.Snapshot()
	utils.Created(c, snapshot)
}

func (h *MonitorHandler) StartMonitoring(c *gin.Context) {
	sessionID := c.Param("id")

	controller, ok := h.registry.Get(sessionID)
	if !ok {
		utils.NotFound(c, "No active view for session")
		return
	}

	if err := controller.BeginMonitoring(c.Request.Context()); err != nil {
		if errors.Is(err, usecase.ErrNoActiveSession) {
			utils.Conflict(c, "Session is not ready to start monitoring")
			return
		}
		log.Printf("Error starting monitoring for session %s: %v", sessionID, err)
		utils.InternalError(c, "Failed to start monitoring")
		return
	}

	utils.Success(c, controller.Snapshot())
}

func (h *MonitorHandler) GetSessionState(c *gin.Context) {
	sessionID := c.Param("id")

	if controller, ok := h.registry.Get(sessionID); ok {
		utils.Success(c, controller.Snapshot())
		return
	}

	if snapshot := h.cachedSnapshot(sessionID); snapshot != nil {
		utils.Success(c, snapshot)
		return
	}

	snapshot, err := h.loadSnapshot(sessionID)
	if err != nil {
		log.Printf("Error fetching session %s: %v", sessionID, err)
		utils.InternalError(c, "Failed to fetch session")
		return
	}
	if snapshot == nil {
		utils.NotFound(c, "Session not found")
		return
	}

	utils.Success(c, snapshot)
}

func (h *MonitorHandler) CloseSessionView(c *gin.Context) {
	sessionID := c.Param("id")

	// Closing an unknown or already-closed view is a no-op.
	h.registry.Remove(sessionID)

	utils.Success(c, gin.H{"message": "Session view closed"})
}

func (h *MonitorHandler) cachedSnapshot(sessionID string) *dto.SessionStateResponse {
	if services.GlobalStateCache == nil {
		return nil
	}
	snapshot, err := services.GlobalStateCache.GetSnapshot(sessionID)
	if err != nil {
		log.Printf("Warning: snapshot cache lookup failed for %s: %v", sessionID, err)
		return nil
	}
	if snapshot == nil {
		return nil
	}
	return snapshot
}

// loadSnapshot rebuilds a state bag from point-in-time reads. Returns
// (nil, nil) when the session does not exist.
func (h *MonitorHandler) loadSnapshot(sessionID string) (*dto.SessionStateResponse, error) {
	session, err := h.sessionsRepo.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	statuses, err := h.statusRepo.GetSessionStatuses(sessionID)
	if err != nil {
		return nil, err
	}

	vital, err := h.vitalsRepo.GetLatestVital(sessionID)
	if err != nil {
		return nil, err
	}

	snapshot := &dto.SessionStateResponse{
		Session:        session,
		LifecycleState: session.State,
		StatusHistory:  statuses,
		LatestVital:    vital,
	}
	if len(statuses) > 0 {
		snapshot.StatusMessage = statuses[len(statuses)-1].Message
	}
	return snapshot, nil
}
