// Package storage is the engine's view of the shared document store plus the
// auxiliary stores it owns: the Redis suspension cache and trigger
// bookkeeping, and the Postgres admin review queue.
package storage

import (
	"context"
	"errors"
	"gurimarket/backend/internal/models"
	"time"
)

// ErrNotFound is returned when the addressed document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrNotPending is returned when an admin review exists but was already resolved.
var ErrNotPending = errors.New("review is not pending")

const (
	UsersCollection         = "Users"
	ReportsCollection       = "Reports"
	ReviewsCollection       = "Reviews"
	ChatsCollection         = "Chats"
	MessagesCollection      = "Messages"
	CommentsCollection      = "Comments"
	RepliesCollection       = "Replies"
	NotificationsCollection = "Notifications"
	BlockedUsersCollection  = "BlockedUsers"
	BlockedByCollection     = "BlockedBy"
)

// TrustMutation computes the next report aggregate from the current one and
// whether the user's posts must be hidden. It runs inside a store
// transaction and may be invoked more than once, so it must be pure.
type TrustMutation func(current models.TrustRecord) (next models.TrustRecord, hidePosts bool)

// ReputationMutation computes the next review aggregate. Same purity rule as
// TrustMutation.
type ReputationMutation func(current models.ReputationRecord) models.ReputationRecord

// Storage is the document store contract the trigger handlers depend on.
type Storage interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
	GetPost(ctx context.Context, collection, postID string) (*models.Post, error)

	// CountReportsSince counts reports against reporteeID with createdAt >= since.
	CountReportsSince(ctx context.Context, reporteeID string, since time.Time) (int, error)
	ReportCategoriesSince(ctx context.Context, reporteeID string, since time.Time) ([]string, error)

	// UpdateUserTrust reads Users/{uid}.report, applies mutate and merges the
	// result back. When mutate asks for it, every post owned by uid is hidden
	// in the same atomic unit; hidden is the number of posts changed.
	UpdateUserTrust(ctx context.Context, uid string, mutate TrustMutation) (next models.TrustRecord, hidden int, err error)
	// UpdateUserReputation replaces Users/{uid}.review with mutate(current).
	UpdateUserReputation(ctx context.Context, uid string, mutate ReputationMutation) (models.ReputationRecord, error)
	// RestoreUserPosts sets every hidden post owned by uid back to active.
	RestoreUserPosts(ctx context.Context, uid string) (int, error)

	// IncrementCommentCount atomically adds delta to commentCount.
	IncrementCommentCount(ctx context.Context, collection, postID string, delta int) error
	// ApplyRoomUpdate atomically sets the last-message fields, increments the
	// receiver's unread counter and adds the receiver to visibleTo.
	ApplyRoomUpdate(ctx context.Context, chatID string, u models.RoomUpdate) error

	// SetBlockedBy upserts the reverse block index entry.
	SetBlockedBy(ctx context.Context, entry models.BlockedBy) error
	// DeleteBlockedBy removes it; a missing entry is not an error.
	DeleteBlockedBy(ctx context.Context, user, blocker string) error
}
