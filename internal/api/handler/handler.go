// Package handler exposes the trigger ingress and the admin API over gin.
package handler

import (
	"gurimarket/backend/internal/hub"
	"gurimarket/backend/internal/report"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler holds the services behind the HTTP routes. Reviews and Feed are
// optional; their routes answer 503 when unset.
type Handler struct {
	Dispatcher *hub.Dispatcher
	Reports    *report.Service
	Reviews    report.ReviewQueue
	Feed       FeedSubscriber
	JWTSecret  []byte
	Log        *zap.SugaredLogger
}

func NewHandler(d *hub.Dispatcher, reports *report.Service, secret string, log *zap.SugaredLogger) *Handler {
	return &Handler{Dispatcher: d, Reports: reports, JWTSecret: []byte(secret), Log: log}
}

// Routes registers every route on r.
func (h *Handler) Routes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.POST("/v1/triggers/:kind", h.PostTrigger)

	admin := r.Group("/v1/admin", h.AuthRequired())
	admin.POST("/users/:uid/restore", h.RestoreUser)
	admin.GET("/reviews", h.ListReviews)
	admin.POST("/reviews/:id/resolve", h.ResolveReview)
	admin.GET("/moderation/feed", h.ServeModerationFeed)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
