package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// FeedSubscriber opens a subscription to the moderation feed.
type FeedSubscriber interface {
	SubscribeModeration(ctx context.Context) *redis.PubSub
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is admin-only and token-gated, so any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeModerationFeed streams moderation events to an admin over WebSocket.
// Each Redis message is forwarded as one text frame, verbatim.
func (h *Handler) ServeModerationFeed(c *gin.Context) {
	if h.Feed == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "moderation feed is not configured"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warnw("WebSocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	sub := h.Feed.SubscribeModeration(ctx)
	if _, err := sub.Receive(ctx); err != nil {
		h.Log.Errorw("Moderation feed subscribe failed", "error", err)
		cancel()
		_ = sub.Close()
		_ = conn.Close()
		return
	}

	adminID := c.GetString(adminIDKey)
	h.Log.Infow("Moderation feed connected", "admin_id", adminID)

	go readPump(conn, cancel)
	writePump(ctx, conn, sub.Channel())

	cancel()
	_ = sub.Close()
	h.Log.Infow("Moderation feed disconnected", "admin_id", adminID)
}

// readPump discards client frames and cancels the feed when the peer goes away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards feed messages and keeps the connection alive with pings.
func writePump(ctx context.Context, conn *websocket.Conn, feed <-chan *redis.Message) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case msg, ok := <-feed:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
