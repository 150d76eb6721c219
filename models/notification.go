package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity tags a user-facing notification
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// NotificationPhase is the display phase of a notification at a point in time
type NotificationPhase string

const (
	PhaseEntering NotificationPhase = "entering"
	PhaseVisible  NotificationPhase = "visible"
	PhaseLeaving  NotificationPhase = "leaving"
	PhaseGone     NotificationPhase = "gone"
)

// Notification is a transient message for the presentation layer
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	DismissAt time.Time `json:"dismiss_at"`
	RemoveAt  time.Time `json:"remove_at"`
}

// Phase returns where the notification is in its entry/display/exit cycle
func (n Notification) Phase(now time.Time) NotificationPhase {
	transition := n.RemoveAt.Sub(n.DismissAt)
	switch {
	case !now.Before(n.RemoveAt):
		return PhaseGone
	case !now.Before(n.DismissAt):
		return PhaseLeaving
	case now.Before(n.CreatedAt.Add(transition)):
		return PhaseEntering
	default:
		return PhaseVisible
	}
}

// Remaining returns how long until the notification starts leaving
func (n Notification) Remaining(now time.Time) time.Duration {
	if d := n.DismissAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
