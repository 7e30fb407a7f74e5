package model

import "time"

type Gender string
type SessionMode string
type LifecycleState string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"

	ModeSelf     SessionMode = "SELF"
	ModeAssisted SessionMode = "ASSISTED"

	StateCreated    LifecycleState = "CREATED"
	StateStarted    LifecycleState = "STARTED"
	StateMonitoring LifecycleState = "MONITORING"
	StateCompleted  LifecycleState = "COMPLETED"
	StateError      LifecycleState = "ERROR"
)

// Rank orders the lifecycle progression. ERROR sits outside the
// progression and is handled separately in CanTransition.
func (s LifecycleState) Rank() int {
	switch s {
	case StateCreated:
		return 0
	case StateStarted:
		return 1
	case StateMonitoring:
		return 2
	case StateCompleted:
		return 3
	default:
		return -1
	}
}

func (s LifecycleState) IsTerminal() bool {
	return s == StateCompleted || s == StateError
}

// CanTransition reports whether moving from s to next respects the
// monotonic lifecycle. ERROR is reachable from any non-terminal state.
func (s LifecycleState) CanTransition(next LifecycleState) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StateError {
		return true
	}
	return next.Rank() >= s.Rank()
}

type MonitoringSession struct {
	SessionID   string         `bson:"session_id" json:"session_id"`
	UserID      string         `bson:"user_id" json:"user_id"`
	DisplayName string         `bson:"display_name" json:"display_name"`
	Age         int            `bson:"age" json:"age"`
	Gender      Gender         `bson:"gender" json:"gender"`
	Mode        SessionMode    `bson:"mode" json:"mode"`
	State       LifecycleState `bson:"state" json:"state"`
	DeviceInfo  string         `bson:"device_info" json:"device_info"`
	CreatedAt   time.Time      `bson:"created_at" json:"created_at"`
}
