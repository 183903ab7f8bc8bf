package models

import "time"

const (
	ModerationSuspended = "suspended"
	ModerationFlagged   = "flagged"
	ModerationRestored  = "restored"
)

// ModerationEvent is published to the moderation feed whenever the engine
// changes a user's standing.
type ModerationEvent struct {
	Type         string     `json:"type"`
	UserID       string     `json:"user_id"`
	SuspendUntil *time.Time `json:"suspend_until,omitempty"`
	Recent30Days int        `json:"recent_30_days,omitempty"`
	Posts        int        `json:"posts"`
	At           time.Time  `json:"at"`
}
