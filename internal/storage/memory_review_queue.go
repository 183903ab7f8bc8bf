package storage

import (
	"context"
	"gurimarket/backend/internal/models"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryReviewQueue is the in-process admin review queue used with the
// memory backend and when no Postgres URL is configured.
type MemoryReviewQueue struct {
	mu      sync.Mutex
	reviews map[string]*models.AdminReview
	now     func() time.Time
}

func NewMemoryReviewQueue() *MemoryReviewQueue {
	return &MemoryReviewQueue{reviews: make(map[string]*models.AdminReview), now: time.Now}
}

// Open behaves like ReviewQueue.Open: a user has at most one pending review.
func (q *MemoryReviewQueue) Open(_ context.Context, review *models.AdminReview) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, r := range q.reviews {
		if r.UserID == review.UserID && r.Status == models.AdminReviewPending {
			r.Recent30Days = review.Recent30Days
			r.SuspendUntil = review.SuspendUntil
			r.HiddenPosts += review.HiddenPosts
			r.Categories = review.Categories
			review.ID = r.ID
			review.CreatedAt = r.CreatedAt
			return nil
		}
	}

	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	review.Status = models.AdminReviewPending
	review.CreatedAt = q.now().UTC()
	cp := *review
	q.reviews[cp.ID] = &cp
	return nil
}

func (q *MemoryReviewQueue) Pending(_ context.Context, limit int) ([]models.AdminReview, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []models.AdminReview
	for _, r := range q.reviews {
		if r.Status == models.AdminReviewPending {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (q *MemoryReviewQueue) Get(_ context.Context, id string) (*models.AdminReview, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	r, ok := q.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (q *MemoryReviewQueue) Resolve(_ context.Context, id, resolution string) (*models.AdminReview, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	r, ok := q.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.Status != models.AdminReviewPending {
		return nil, ErrNotPending
	}
	now := q.now().UTC()
	r.Status = models.AdminReviewResolved
	r.Resolution = resolution
	r.ResolvedAt = &now
	cp := *r
	return &cp, nil
}
