package dto

import "main/model"

type CreateSessionRequest struct {
	DisplayName string `json:"display_name" binding:"required,min=1,max=60"`
	Age         int    `json:"age" binding:"required,gte=0,lte=130"`
	Gender      string `json:"gender" binding:"required,gender"`
	Mode        string `json:"mode" binding:"required,sessionmode"`
}

// SessionStateResponse is the observable state bag a session view
// renders from: the session row, its lifecycle position, the progress
// feed and the latest vital, plus any surfaced error.
type SessionStateResponse struct {
	Session        *model.MonitoringSession `json:"session,omitempty"`
	LifecycleState model.LifecycleState     `json:"lifecycle_state,omitempty"`
	StatusMessage  string                   `json:"status_message,omitempty"`
	StatusHistory  []*model.StatusEvent     `json:"status_history,omitempty"`
	LatestVital    *model.Vital             `json:"latest_vital,omitempty"`
	Error          string                   `json:"error,omitempty"`
}
