package handler

import (
	"errors"
	"gurimarket/backend/internal/report"
	"gurimarket/backend/internal/storage"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultReviewLimit = 50

// RestoreUser un-hides a user's posts after a moderator lifts a suspension.
func (h *Handler) RestoreUser(c *gin.Context) {
	uid := c.Param("uid")
	restored, err := h.Reports.RestoreUserPostsAfterSuspension(c.Request.Context(), uid)
	if err != nil {
		h.Log.Errorw("Restore failed", "user_id", uid, "admin_id", c.GetString(adminIDKey), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore posts"})
		return
	}
	h.Log.Infow("Posts restored by admin", "user_id", uid, "admin_id", c.GetString(adminIDKey), "posts", restored)
	c.JSON(http.StatusOK, gin.H{"user_id": uid, "restored": restored})
}

// ListReviews returns pending admin reviews, oldest first.
func (h *Handler) ListReviews(c *gin.Context) {
	if h.Reviews == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "review queue is not configured"})
		return
	}
	limit := defaultReviewLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	reviews, err := h.Reviews.Pending(c.Request.Context(), limit)
	if err != nil {
		h.Log.Errorw("Failed to list reviews", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list reviews"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

type resolveRequest struct {
	Restore bool `json:"restore"`
}

// ResolveReview closes a pending review, optionally restoring the user's posts.
func (h *Handler) ResolveReview(c *gin.Context) {
	if h.Reviews == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "review queue is not configured"})
		return
	}
	var req resolveRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	id := c.Param("id")
	review, restored, err := h.Reports.ResolveReview(c.Request.Context(), h.Reviews, id, req.Restore)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "review not found"})
	case errors.Is(err, report.ErrReviewClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "review already resolved"})
	case err != nil:
		h.Log.Errorw("Failed to resolve review", "review_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve review"})
	default:
		h.Log.Infow("Review resolved by admin", "review_id", id, "admin_id", c.GetString(adminIDKey))
		c.JSON(http.StatusOK, gin.H{"review": review, "restored": restored})
	}
}
