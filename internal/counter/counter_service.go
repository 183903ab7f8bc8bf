// Package counter keeps Post.commentCount in step with comment and reply
// creation and deletion.
package counter

import (
	"context"
	"gurimarket/backend/internal/models"
	"gurimarket/backend/internal/storage"

	"go.uber.org/zap"
)

// Service applies comment-count deltas.
type Service struct {
	Storage storage.Storage
	Log     *zap.SugaredLogger
}

// NewService creates a new counter service.
func NewService(s storage.Storage, log *zap.SugaredLogger) *Service {
	return &Service{Storage: s, Log: log}
}

func (s *Service) OnCommentCreated(ctx context.Context, ref models.CommentRef) {
	s.apply(ctx, "comment", ref, 1)
}

func (s *Service) OnCommentDeleted(ctx context.Context, ref models.CommentRef) {
	s.apply(ctx, "comment", ref, -1)
}

func (s *Service) OnReplyCreated(ctx context.Context, ref models.CommentRef) {
	s.apply(ctx, "reply", ref, 1)
}

func (s *Service) OnReplyDeleted(ctx context.Context, ref models.CommentRef) {
	s.apply(ctx, "reply", ref, -1)
}

// apply never retries; a failed delta leaves the count stale.
func (s *Service) apply(ctx context.Context, source string, ref models.CommentRef, delta int) {
	if ref.PostCollection == "" || ref.PostID == "" {
		return
	}
	err := s.Storage.IncrementCommentCount(ctx, ref.PostCollection, ref.PostID, delta)
	if err != nil {
		s.Log.Errorw("Failed to update comment count",
			"source", source,
			"collection", ref.PostCollection,
			"post_id", ref.PostID,
			"delta", delta,
			"error", err,
		)
	}
}
