package models

import (
	"fmt"
	"time"
)

// BlockedUser is the forward index entry Users/{userId}/BlockedUsers/{blockedUserId},
// written by the client.
type BlockedUser struct {
	ID            string    `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        string    `bson:"userId" json:"userId"`
	BlockedUserID string    `bson:"blockedUserId" json:"blockedUserId"`
	BlockedAt     time.Time `bson:"blockedAt" json:"blockedAt"`
}

// BlockedBy is the reverse index entry Users/{UserID}/BlockedBy/{BlockerID}.
type BlockedBy struct {
	Path      string    `bson:"_id" json:"-"`
	UserID    string    `bson:"userId" json:"-"`
	BlockerID string    `bson:"id" json:"id"`
	BlockedAt time.Time `bson:"blockedAt" json:"blockedAt"`
}

// BlockedByPath is the document path of the reverse index entry recording
// that blocker blocked user.
func BlockedByPath(user, blocker string) string {
	return fmt.Sprintf("Users/%s/BlockedBy/%s", user, blocker)
}
