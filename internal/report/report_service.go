// Package report aggregates user reports into the trust record, applies
// suspension windows and hides a suspended user's listings.
package report

import (
	"context"
	"errors"
	"fmt"
	"gurimarket/backend/internal/analysis"
	"gurimarket/backend/internal/config"
	"gurimarket/backend/internal/models"
	"gurimarket/backend/internal/storage"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// SuspensionCache mirrors suspension deadlines for cheap lookups.
type SuspensionCache interface {
	MarkSuspended(ctx context.Context, uid string, until time.Time) error
	ClearSuspended(ctx context.Context, uid string) error
}

// ReviewOpener queues a flagged user for moderator review.
type ReviewOpener interface {
	Open(ctx context.Context, review *models.AdminReview) error
}

// Alerter notifies moderators about a flagged user.
type Alerter interface {
	NotifyFlagged(ctx context.Context, review models.AdminReview) error
}

// FeedPublisher publishes moderation events to live subscribers.
type FeedPublisher interface {
	PublishModeration(ctx context.Context, ev models.ModerationEvent) error
}

// Service handles the business logic for reports.
// Storage and Log are required; the other collaborators are optional.
type Service struct {
	Storage     storage.Storage
	Suspensions SuspensionCache
	Reviews     ReviewOpener
	Alerts      Alerter
	Feed        FeedPublisher
	Log         *zap.SugaredLogger
	Now         func() time.Time
}

// NewService creates a new report service.
func NewService(s storage.Storage, log *zap.SugaredLogger) *Service {
	return &Service{Storage: s, Log: log, Now: time.Now}
}

// OnReportCreated folds a new report into the reportee's trust record.
// Errors are returned only when the window counts or the trust transaction
// fail; an unknown reportee is ignored.
func (s *Service) OnReportCreated(ctx context.Context, r models.Report) error {
	uid := r.ReporteeID
	if uid == "" {
		return nil
	}

	if _, err := s.Storage.GetUser(ctx, uid); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load reportee %s: %w", uid, err)
	}

	now := s.Now()
	recent7, err := s.Storage.CountReportsSince(ctx, uid, now.Add(-config.ShortWindow))
	if err != nil {
		return fmt.Errorf("count 7-day reports for %s: %w", uid, err)
	}
	recent30, err := s.Storage.CountReportsSince(ctx, uid, now.Add(-config.LongWindow))
	if err != nil {
		return fmt.Errorf("count 30-day reports for %s: %w", uid, err)
	}

	verdict := analysis.EvaluateReports(recent7, recent30, now)

	var extended bool
	next, hidden, err := s.Storage.UpdateUserTrust(ctx, uid, func(current models.TrustRecord) (models.TrustRecord, bool) {
		n, ext := analysis.ApplyReport(current, verdict, recent30)
		extended = ext
		return n, ext
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.Log.Errorw("Failed to apply report", "user_id", uid, "rule", verdict.Rule, "error", err)
		return fmt.Errorf("apply report to %s: %w", uid, err)
	}

	s.Log.Infow("Report applied",
		"user_id", uid,
		"recent_7_days", recent7,
		"recent_30_days", recent30,
		"rule", verdict.Rule,
		"extended", extended,
		"hidden_posts", hidden,
	)

	if extended {
		s.afterSuspension(ctx, uid, next, hidden, now)
	}
	if verdict.NeedsAdminReview {
		s.flagForReview(ctx, uid, next, hidden, now)
	}
	return nil
}

func (s *Service) afterSuspension(ctx context.Context, uid string, next models.TrustRecord, hidden int, now time.Time) {
	if s.Suspensions != nil && next.SuspendUntil != nil {
		if err := s.Suspensions.MarkSuspended(ctx, uid, *next.SuspendUntil); err != nil {
			s.Log.Warnw("Failed to cache suspension", "user_id", uid, "error", err)
		}
	}
	s.publish(ctx, models.ModerationEvent{
		Type:         models.ModerationSuspended,
		UserID:       uid,
		SuspendUntil: next.SuspendUntil,
		Recent30Days: next.Recent30Days,
		Posts:        hidden,
		At:           now,
	})
}

func (s *Service) flagForReview(ctx context.Context, uid string, next models.TrustRecord, hidden int, now time.Time) {
	categories, err := s.Storage.ReportCategoriesSince(ctx, uid, now.Add(-config.LongWindow))
	if err != nil {
		s.Log.Warnw("Failed to load report categories", "user_id", uid, "error", err)
	}

	review := models.AdminReview{
		UserID:       uid,
		Recent30Days: next.Recent30Days,
		SuspendUntil: next.SuspendUntil,
		HiddenPosts:  hidden,
		Categories:   pq.StringArray(categories),
	}
	if s.Reviews != nil {
		if err := s.Reviews.Open(ctx, &review); err != nil {
			s.Log.Errorw("Failed to open admin review", "user_id", uid, "error", err)
		}
	}
	if s.Alerts != nil {
		if err := s.Alerts.NotifyFlagged(ctx, review); err != nil {
			s.Log.Warnw("Failed to alert moderators", "user_id", uid, "error", err)
		}
	}
	s.publish(ctx, models.ModerationEvent{
		Type:         models.ModerationFlagged,
		UserID:       uid,
		SuspendUntil: next.SuspendUntil,
		Recent30Days: next.Recent30Days,
		Posts:        hidden,
		At:           now,
	})
}

// RestoreUserPostsAfterSuspension makes every hidden post of uid visible
// again and drops the cached suspension. It is never called automatically
// when a suspension lapses.
func (s *Service) RestoreUserPostsAfterSuspension(ctx context.Context, uid string) (int, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return 0, errors.New("user id is required")
	}

	restored, err := s.Storage.RestoreUserPosts(ctx, uid)
	if err != nil {
		return 0, fmt.Errorf("restore posts of %s: %w", uid, err)
	}

	if s.Suspensions != nil {
		if err := s.Suspensions.ClearSuspended(ctx, uid); err != nil {
			s.Log.Warnw("Failed to clear cached suspension", "user_id", uid, "error", err)
		}
	}
	s.publish(ctx, models.ModerationEvent{
		Type:   models.ModerationRestored,
		UserID: uid,
		Posts:  restored,
		At:     s.Now(),
	})

	s.Log.Infow("Posts restored", "user_id", uid, "posts", restored)
	return restored, nil
}

func (s *Service) publish(ctx context.Context, ev models.ModerationEvent) {
	if s.Feed == nil {
		return
	}
	if err := s.Feed.PublishModeration(ctx, ev); err != nil {
		s.Log.Warnw("Failed to publish moderation event", "type", ev.Type, "user_id", ev.UserID, "error", err)
	}
}
