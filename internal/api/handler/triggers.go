package handler

import (
	"encoding/json"
	"gurimarket/backend/internal/hub"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PostTrigger delivers one event through the ingress. The body is the
// document and query params become event params. Only the X-Event-ID header
// names the delivery for dedup: a document id is reused when a document is
// deleted and written again, so it cannot identify a delivery. The handler
// runs synchronously so the caller can retry on 500.
func (h *Handler) PostTrigger(c *gin.Context) {
	kind := hub.Kind(c.Param("kind"))
	if !h.Dispatcher.Handles(kind) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown trigger kind"})
		return
	}

	body, err := c.GetRawData()
	if err != nil || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON document"})
		return
	}

	params := make(map[string]string)
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	id := c.GetHeader("X-Event-ID")

	if err := h.Dispatcher.Handle(c.Request.Context(), hub.NewJSONEvent(id, kind, params, body)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "trigger handler failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "event_id": id})
}
