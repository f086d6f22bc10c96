package handler

import (
	"io"
	"time"

	"github.com/gatherly/notification-engine/internal/middleware"
	"github.com/gatherly/notification-engine/internal/realtime"
	"github.com/gatherly/notification-engine/internal/shared/logger"
	"github.com/gin-gonic/gin"
)

// heartbeatInterval keeps intermediaries from closing an idle SSE stream
const heartbeatInterval = 25 * time.Second

// StreamHandler serves the live notification stream over server-sent events.
// The stream is a latency optimization for the bell badge; the list endpoint
// remains the source of truth after a disconnect.
type StreamHandler struct {
	hub *realtime.Hub
	log *logger.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(hub *realtime.Hub, log *logger.Logger) *StreamHandler {
	return &StreamHandler{hub: hub, log: log}
}

// Stream subscribes the caller and forwards records until the client
// disconnects.
func (h *StreamHandler) Stream(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	sub := h.hub.Subscribe(userID)
	defer sub.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case n, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("notification", n)
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().Unix())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
