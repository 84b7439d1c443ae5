package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"docstore-platform/internal/logger"
)

// EventSink receives serialized SSE frames. The production sink wraps the
// HTTP response writer; tests substitute a buffer.
type EventSink interface {
	WriteFrame(frame string) error
}

// Client classes attached to a streaming session.
const (
	ClientInternal = "INTERNAL"
	ClientExternal = "EXTERNAL"
)

type streamSession struct {
	sink       EventSink
	clientType string
	started    bool
}

// SSEStreamer holds the process-local table of streaming sessions keyed by
// chat id and serializes typed events onto their sinks. Emits against an
// unknown id are logged no-ops: dropped events are an accepted limitation of
// the at-most-once contract, not a failure.
type SSEStreamer struct {
	mu       sync.Mutex
	sessions map[string]*streamSession
}

func NewSSEStreamer() *SSEStreamer {
	return &SSEStreamer{sessions: make(map[string]*streamSession)}
}

// AddClient attaches an internal client session for a chat id.
func (s *SSEStreamer) AddClient(chatID string, sink EventSink) {
	s.attach(chatID, sink, ClientInternal)
}

// AddExternalClient attaches an external (embed/API) client session.
func (s *SSEStreamer) AddExternalClient(chatID string, sink EventSink) {
	s.attach(chatID, sink, ClientExternal)
}

func (s *SSEStreamer) attach(chatID string, sink EventSink, clientType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = &streamSession{sink: sink, clientType: clientType}
}

// RemoveClient writes the terminal end frame and drops the session.
func (s *SSEStreamer) RemoveClient(chatID string) {
	s.mu.Lock()
	sess, ok := s.sessions[chatID]
	delete(s.sessions, chatID)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.writeFrame(chatID, sess, "end", "[DONE]")
}

// HasClient reports whether a session is attached for the chat id.
func (s *SSEStreamer) HasClient(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[chatID]
	return ok
}

// StreamStartEvent emits at most one start frame per session no matter how
// often it is requested.
func (s *SSEStreamer) StreamStartEvent(chatID string, data any) {
	s.mu.Lock()
	sess, ok := s.sessions[chatID]
	if ok && sess.started {
		s.mu.Unlock()
		return
	}
	if ok {
		sess.started = true
	}
	s.mu.Unlock()
	if !ok {
		logger.Debug("No session attached, event dropped", "chatId", chatID, "event", "start")
		return
	}
	s.writeFrame(chatID, sess, "start", data)
}

func (s *SSEStreamer) StreamTokenEvent(chatID string, token string) {
	s.emit(chatID, "token", token)
}

func (s *SSEStreamer) StreamSourceDocumentsEvent(chatID string, data any) {
	s.emit(chatID, "sourceDocuments", data)
}

func (s *SSEStreamer) StreamUsedToolsEvent(chatID string, data any) {
	s.emit(chatID, "usedTools", data)
}

func (s *SSEStreamer) StreamFileAnnotationsEvent(chatID string, data any) {
	s.emit(chatID, "fileAnnotations", data)
}

func (s *SSEStreamer) StreamAgentReasoningEvent(chatID string, data any) {
	s.emit(chatID, "agentReasoning", data)
}

func (s *SSEStreamer) StreamNextAgentEvent(chatID string, data any) {
	s.emit(chatID, "nextAgent", data)
}

func (s *SSEStreamer) StreamAgentFlowEvent(chatID string, data any) {
	s.emit(chatID, "agentFlowEvent", data)
}

func (s *SSEStreamer) StreamAgentFlowExecutedDataEvent(chatID string, data any) {
	s.emit(chatID, "agentFlowExecutedData", data)
}

func (s *SSEStreamer) StreamNextAgentFlowEvent(chatID string, data any) {
	s.emit(chatID, "nextAgentFlow", data)
}

func (s *SSEStreamer) StreamActionEvent(chatID string, data any) {
	s.emit(chatID, "action", data)
}

func (s *SSEStreamer) StreamAbortEvent(chatID string) {
	s.emit(chatID, "abort", "[DONE]")
}

// StreamErrorEvent rewrites known upstream error signatures to friendlier
// messages before emission so internal detail never reaches the client.
func (s *SSEStreamer) StreamErrorEvent(chatID string, msg string) {
	s.emit(chatID, "error", rewriteErrorMessage(msg))
}

func (s *SSEStreamer) StreamUsageMetadataEvent(chatID string, data any) {
	s.emit(chatID, "usageMetadata", data)
}

func (s *SSEStreamer) StreamCustomEvent(chatID string, event string, data any) {
	s.emit(chatID, event, data)
}

// MetadataDetails is assembled into one metadata event; the event is only
// emitted when at least one field is set.
type MetadataDetails struct {
	ChatID          string         `json:"chatId,omitempty"`
	ChatMessageID   string         `json:"chatMessageId,omitempty"`
	Question        string         `json:"question,omitempty"`
	SessionID       string         `json:"sessionId,omitempty"`
	MemoryType      string         `json:"memoryType,omitempty"`
	FollowUpPrompts string         `json:"followUpPrompts,omitempty"`
	FlowVariables   map[string]any `json:"flowVariables,omitempty"`
}

func (m MetadataDetails) empty() bool {
	return m.ChatID == "" && m.ChatMessageID == "" && m.Question == "" &&
		m.SessionID == "" && m.MemoryType == "" && m.FollowUpPrompts == "" &&
		len(m.FlowVariables) == 0
}

func (s *SSEStreamer) StreamMetadataEvent(chatID string, details MetadataDetails) {
	if details.empty() {
		return
	}
	s.emit(chatID, "metadata", details)
}

func (s *SSEStreamer) emit(chatID, event string, data any) {
	s.mu.Lock()
	sess, ok := s.sessions[chatID]
	s.mu.Unlock()
	if !ok {
		logger.Debug("No session attached, event dropped", "chatId", chatID, "event", event)
		return
	}
	s.writeFrame(chatID, sess, event, data)
}

// writeFrame serializes one `event:\ndata:<json>\n\n` frame. Sink failures
// are logged and discarded: a broken client must not fail the producer.
func (s *SSEStreamer) writeFrame(chatID string, sess *streamSession, event string, data any) {
	payload, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		logger.Error("Failed to encode stream event", "chatId", chatID, "event", event, "error", err)
		return
	}
	frame := fmt.Sprintf("event:\ndata:%s\n\n", payload)
	if err := sess.sink.WriteFrame(frame); err != nil {
		logger.Warn("Failed to write stream frame", "chatId", chatID, "event", event, "error", err)
	}
}

// rewriteErrorMessage maps known collaborator error signatures to messages
// safe to show end users.
func rewriteErrorMessage(msg string) string {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "401") || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "api key"):
		return "Invalid API key or unauthorized access. Please check the configured credentials."
	case strings.Contains(msg, "429") || strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit"):
		return "The upstream provider is rate limiting requests. Please try again shortly."
	default:
		return msg
	}
}
