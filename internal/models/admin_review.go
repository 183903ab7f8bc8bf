package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	AdminReviewPending  = "pending"
	AdminReviewResolved = "resolved"
)

// AdminReview is a row in the moderator queue, opened when a report
// evaluation flags a user for admin review.
type AdminReview struct {
	ID           string         `gorm:"primaryKey" json:"id"`
	UserID       string         `gorm:"type:text;not null;index:idx_review_user_status" json:"user_id"`
	Recent30Days int            `gorm:"column:recent_30_days" json:"recent_30_days"`
	SuspendUntil *time.Time     `json:"suspend_until,omitempty"`
	HiddenPosts  int            `json:"hidden_posts"`
	Categories   pq.StringArray `gorm:"type:text[]" json:"categories"`
	Status       string         `gorm:"type:text;not null;default:pending;index:idx_review_user_status" json:"status"`
	Resolution   string         `gorm:"type:text" json:"resolution,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	ResolvedAt   *time.Time     `json:"resolved_at,omitempty"`
}

// BeforeCreate assigns a UUID if the ID has not been set.
func (r *AdminReview) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = AdminReviewPending
	}
	return
}
