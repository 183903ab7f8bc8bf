package storage

import (
	"context"
	"errors"
	"gurimarket/backend/internal/models"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewQueue is the Postgres-backed queue of users flagged for moderator
// review. At most one pending row exists per user.
type ReviewQueue struct {
	DB *gorm.DB
}

// NewReviewQueue wraps an open gorm connection.
func NewReviewQueue(db *gorm.DB) *ReviewQueue {
	return &ReviewQueue{DB: db}
}

// Migrate creates or updates the admin_reviews table.
func (q *ReviewQueue) Migrate() error {
	return q.DB.AutoMigrate(&models.AdminReview{})
}

// Open records a flag for uid. An existing pending row is refreshed with
// the latest numbers instead of adding a duplicate.
func (q *ReviewQueue) Open(ctx context.Context, review *models.AdminReview) error {
	return q.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.AdminReview
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND status = ?", review.UserID, models.AdminReviewPending).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(review).Error
		}
		if err != nil {
			return err
		}

		review.ID = existing.ID
		review.CreatedAt = existing.CreatedAt
		review.Status = models.AdminReviewPending
		return tx.Model(&existing).Updates(map[string]interface{}{
			"recent_30_days": review.Recent30Days,
			"suspend_until":  review.SuspendUntil,
			"hidden_posts":   gorm.Expr("hidden_posts + ?", review.HiddenPosts),
			"categories":     pq.StringArray(review.Categories),
		}).Error
	})
}

// Pending lists open reviews, oldest first.
func (q *ReviewQueue) Pending(ctx context.Context, limit int) ([]models.AdminReview, error) {
	var reviews []models.AdminReview
	tx := q.DB.WithContext(ctx).
		Where("status = ?", models.AdminReviewPending).
		Order("created_at ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// Get returns a review by ID or ErrNotFound.
func (q *ReviewQueue) Get(ctx context.Context, id string) (*models.AdminReview, error) {
	var review models.AdminReview
	err := q.DB.WithContext(ctx).Where("id = ?", id).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Resolve closes a pending review with the moderator's resolution.
func (q *ReviewQueue) Resolve(ctx context.Context, id, resolution string) (*models.AdminReview, error) {
	now := time.Now().UTC()
	res := q.DB.WithContext(ctx).Model(&models.AdminReview{}).
		Where("id = ? AND status = ?", id, models.AdminReviewPending).
		Updates(map[string]interface{}{
			"status":      models.AdminReviewResolved,
			"resolution":  resolution,
			"resolved_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := q.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrNotPending
	}
	return q.Get(ctx, id)
}
