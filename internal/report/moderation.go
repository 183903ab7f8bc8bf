package report

import (
	"context"
	"errors"
	"fmt"
	"gurimarket/backend/internal/models"
	"gurimarket/backend/internal/storage"
)

const (
	ResolutionRestored  = "restored"
	ResolutionDismissed = "dismissed"
)

// ErrReviewClosed is returned when resolving a review that is no longer pending.
var ErrReviewClosed = errors.New("review already resolved")

// ReviewQueue is the moderator side of the admin review queue.
type ReviewQueue interface {
	Pending(ctx context.Context, limit int) ([]models.AdminReview, error)
	Get(ctx context.Context, id string) (*models.AdminReview, error)
	Resolve(ctx context.Context, id, resolution string) (*models.AdminReview, error)
}

// ResolveReview closes a pending review. With restore set, the user's hidden
// posts are restored first, and a failed restore leaves the review pending.
func (s *Service) ResolveReview(ctx context.Context, q ReviewQueue, id string, restore bool) (*models.AdminReview, int, error) {
	review, err := q.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if review.Status != models.AdminReviewPending {
		return review, 0, ErrReviewClosed
	}

	resolution := ResolutionDismissed
	restored := 0
	if restore {
		if restored, err = s.RestoreUserPostsAfterSuspension(ctx, review.UserID); err != nil {
			return nil, 0, err
		}
		resolution = ResolutionRestored
	}

	resolved, err := q.Resolve(ctx, id, resolution)
	if errors.Is(err, storage.ErrNotPending) {
		// Another moderator closed it between Get and Resolve.
		return nil, restored, ErrReviewClosed
	}
	if err != nil {
		return nil, restored, fmt.Errorf("resolve review %s: %w", id, err)
	}
	s.Log.Infow("Admin review resolved", "review_id", id, "user_id", review.UserID, "resolution", resolution)
	return resolved, restored, nil
}
