// Package block maintains the reverse block index Users/{blockee}/BlockedBy/{blocker}.
package block

import (
	"context"
	"gurimarket/backend/internal/models"
	"gurimarket/backend/internal/storage"
	"time"

	"go.uber.org/zap"
)

// Service mirrors BlockedUsers writes into the BlockedBy index.
type Service struct {
	Storage storage.Storage
	Log     *zap.SugaredLogger
}

// NewService creates a new block service.
func NewService(s storage.Storage, log *zap.SugaredLogger) *Service {
	return &Service{Storage: s, Log: log}
}

// OnUserBlocked records that userID blocked blockedUserID. Re-blocking
// overwrites blockedAt.
func (s *Service) OnUserBlocked(ctx context.Context, userID, blockedUserID string, blockedAt time.Time) {
	if userID == "" || blockedUserID == "" {
		return
	}
	entry := models.BlockedBy{
		Path:      models.BlockedByPath(blockedUserID, userID),
		UserID:    blockedUserID,
		BlockerID: userID,
		BlockedAt: blockedAt,
	}
	if err := s.Storage.SetBlockedBy(ctx, entry); err != nil {
		s.Log.Errorw("Failed to write blocked-by entry", "user_id", userID, "blocked_user_id", blockedUserID, "error", err)
	}
}

// OnUserUnblocked removes the entry; removing a missing entry is fine.
func (s *Service) OnUserUnblocked(ctx context.Context, userID, blockedUserID string) {
	if userID == "" || blockedUserID == "" {
		return
	}
	if err := s.Storage.DeleteBlockedBy(ctx, blockedUserID, userID); err != nil {
		s.Log.Errorw("Failed to delete blocked-by entry", "user_id", userID, "blocked_user_id", blockedUserID, "error", err)
	}
}
