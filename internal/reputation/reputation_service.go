// Package reputation folds reviews into the receiver's reputation record and
// maintains the trusted-seller badge.
package reputation

import (
	"context"
	"errors"
	"gurimarket/backend/internal/analysis"
	"gurimarket/backend/internal/models"
	"gurimarket/backend/internal/storage"

	"go.uber.org/zap"
)

// Service handles new reviews.
type Service struct {
	Storage storage.Storage
	Log     *zap.SugaredLogger
}

// NewService creates a new reputation service.
func NewService(s storage.Storage, log *zap.SugaredLogger) *Service {
	return &Service{Storage: s, Log: log}
}

// OnReviewCreated updates the receiver's tally. Failures are logged and
// swallowed.
func (s *Service) OnReviewCreated(ctx context.Context, r models.Review) {
	if r.ReceiverID == "" {
		return
	}

	next, err := s.Storage.UpdateUserReputation(ctx, r.ReceiverID, func(current models.ReputationRecord) models.ReputationRecord {
		return analysis.ApplyReview(current, r.Value)
	})
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		s.Log.Errorw("Failed to update reputation", "user_id", r.ReceiverID, "review_id", r.ID, "error", err)
		return
	}

	s.Log.Infow("Review applied",
		"user_id", r.ReceiverID,
		"value", r.Value,
		"total", next.Total,
		"badge", next.BadgeGranted,
	)
}
