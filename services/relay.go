package services

import (
	"context"
	"encoding/json"
	"sync"

	"docstore-platform/internal/broker"
	"docstore-platform/internal/logger"
)

// relayChannel names the broker channel carrying events for one chat id.
func relayChannel(chatID string) string {
	return "docstore:events:" + chatID
}

// relayMessage is the broker payload schema.
type relayMessage struct {
	EventType string          `json:"eventType"`
	ChatID    string          `json:"chatId"`
	Data      json.RawMessage `json:"data"`
}

// EventRelay bridges worker processes publishing pipeline events and the API
// process holding the client connection. One subscription per chat id;
// delivery is at-most-once and non-durable, events published while nobody is
// subscribed are lost by design.
type EventRelay struct {
	broker   broker.Broker
	streamer *SSEStreamer

	mu   sync.Mutex
	subs map[string]func()
}

func NewEventRelay(b broker.Broker, streamer *SSEStreamer) *EventRelay {
	return &EventRelay{broker: b, streamer: streamer, subs: make(map[string]func())}
}

// EnsureSubscribed opens the broker subscription for a chat id if one is not
// already active.
func (r *EventRelay) EnsureSubscribed(ctx context.Context, chatID string) error {
	r.mu.Lock()
	if _, ok := r.subs[chatID]; ok {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	unsub, err := r.broker.Subscribe(ctx, relayChannel(chatID), r.dispatch)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[chatID]; ok {
		// lost the race, keep the earlier subscription
		unsub()
		return nil
	}
	r.subs[chatID] = unsub
	return nil
}

// Unsubscribe closes the broker subscription for a chat id.
func (r *EventRelay) Unsubscribe(chatID string) {
	r.mu.Lock()
	unsub, ok := r.subs[chatID]
	delete(r.subs, chatID)
	r.mu.Unlock()
	if ok {
		unsub()
	}
}

// dispatch routes one broker payload to the matching streamer method. An
// unrecognized event type is logged and dropped.
func (r *EventRelay) dispatch(payload []byte) {
	var msg relayMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		logger.Warn("Dropping malformed relay message", "error", err)
		return
	}

	switch msg.EventType {
	case "start":
		r.streamer.StreamStartEvent(msg.ChatID, decodeAny(msg.Data))
	case "token":
		r.streamer.StreamTokenEvent(msg.ChatID, decodeString(msg.Data))
	case "sourceDocuments":
		r.streamer.StreamSourceDocumentsEvent(msg.ChatID, decodeAny(msg.Data))
	case "usedTools":
		r.streamer.StreamUsedToolsEvent(msg.ChatID, decodeAny(msg.Data))
	case "fileAnnotations":
		r.streamer.StreamFileAnnotationsEvent(msg.ChatID, decodeAny(msg.Data))
	case "agentReasoning":
		r.streamer.StreamAgentReasoningEvent(msg.ChatID, decodeAny(msg.Data))
	case "nextAgent":
		r.streamer.StreamNextAgentEvent(msg.ChatID, decodeAny(msg.Data))
	case "agentFlowEvent":
		r.streamer.StreamAgentFlowEvent(msg.ChatID, decodeAny(msg.Data))
	case "agentFlowExecutedData":
		r.streamer.StreamAgentFlowExecutedDataEvent(msg.ChatID, decodeAny(msg.Data))
	case "nextAgentFlow":
		r.streamer.StreamNextAgentFlowEvent(msg.ChatID, decodeAny(msg.Data))
	case "action":
		r.streamer.StreamActionEvent(msg.ChatID, decodeAny(msg.Data))
	case "abort":
		r.streamer.StreamAbortEvent(msg.ChatID)
	case "error":
		r.streamer.StreamErrorEvent(msg.ChatID, decodeString(msg.Data))
	case "metadata":
		var details MetadataDetails
		if err := json.Unmarshal(msg.Data, &details); err != nil {
			logger.Warn("Dropping malformed metadata event", "chatId", msg.ChatID, "error", err)
			return
		}
		r.streamer.StreamMetadataEvent(msg.ChatID, details)
	case "usageMetadata":
		r.streamer.StreamUsageMetadataEvent(msg.ChatID, decodeAny(msg.Data))
	case "custom":
		r.streamer.StreamCustomEvent(msg.ChatID, "custom", decodeAny(msg.Data))
	default:
		logger.Warn("Dropping event with unknown type", "chatId", msg.ChatID, "eventType", msg.EventType)
	}
}

func decodeString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw)
	}
	return s
}

func decodeAny(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

// EventPublisher is the worker-side half of the relay: it publishes typed
// events onto the per-chat broker channel.
type EventPublisher struct {
	broker broker.Broker
}

func NewEventPublisher(b broker.Broker) *EventPublisher {
	return &EventPublisher{broker: b}
}

func (p *EventPublisher) Publish(ctx context.Context, eventType, chatID string, data any) error {
	payload, err := json.Marshal(map[string]any{
		"eventType": eventType,
		"chatId":    chatID,
		"data":      data,
	})
	if err != nil {
		return err
	}
	return p.broker.Publish(ctx, relayChannel(chatID), payload)
}
