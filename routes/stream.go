package routes

import (
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"docstore-platform/internal/logger"
	"docstore-platform/services"
)

// StreamHandler exposes the SSE attach endpoint. The streamer holds the
// process-local session table; the relay bridges events published by worker
// processes onto it.
type StreamHandler struct {
	Streamer *services.SSEStreamer
	Relay    *services.EventRelay
}

func SetupStreamRoutes(router *gin.Engine, h *StreamHandler) {
	router.GET("/api/v1/streams/:chatId", h.attach)
}

// sseSink writes frames to the live response, flushing after each one.
type sseSink struct {
	mu sync.Mutex
	w  gin.ResponseWriter
}

func (s *sseSink) WriteFrame(frame string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, frame); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}

// attach holds the connection open and serves frames until the client
// disconnects. Detaching writes the terminal end frame.
func (h *StreamHandler) attach(c *gin.Context) {
	chatID := c.Param("chatId")
	if chatID == "" {
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "chatId is required"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.Flush()

	sink := &sseSink{w: c.Writer}
	if c.Query("external") == "true" {
		h.Streamer.AddExternalClient(chatID, sink)
	} else {
		h.Streamer.AddClient(chatID, sink)
	}

	if err := h.Relay.EnsureSubscribed(c.Request.Context(), chatID); err != nil {
		logger.Error("Failed to subscribe relay channel", "chatId", chatID, "error", err)
		h.Streamer.RemoveClient(chatID)
		return
	}

	<-c.Request.Context().Done()

	h.Streamer.RemoveClient(chatID)
	h.Relay.Unsubscribe(chatID)
	logger.Debug("Stream client detached", "chatId", chatID)
}
