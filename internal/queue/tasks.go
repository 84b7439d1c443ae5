package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"docstore-platform/internal/logger"
	"docstore-platform/services"
)

const (
	TaskProcessLoader = "docstore:process-loader"
	TaskUpsertStore   = "docstore:upsert"
)

type ProcessLoaderPayload struct {
	StoreID  string `json:"store_id"`
	LoaderID string `json:"loader_id"`
	ChatID   string `json:"chat_id,omitempty"`
}

type UpsertStorePayload struct {
	StoreID string `json:"store_id"`
	ChatID  string `json:"chat_id,omitempty"`
}

// Task creators
func NewProcessLoaderTask(storeID, loaderID, chatID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ProcessLoaderPayload{
		StoreID:  storeID,
		LoaderID: loaderID,
		ChatID:   chatID,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskProcessLoader,
		payload,
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
		asynq.Queue("default"),
	), nil
}

func NewUpsertStoreTask(storeID, chatID string) (*asynq.Task, error) {
	payload, err := json.Marshal(UpsertStorePayload{
		StoreID: storeID,
		ChatID:  chatID,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskUpsertStore,
		payload,
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
		asynq.Queue("critical"),
	), nil
}

// TaskProcessor runs the pipeline inside the worker process and publishes
// progress events through the relay channel when a chat id accompanies the
// task.
type TaskProcessor struct {
	docs   *services.DocumentStoreService
	index  *services.VectorIndexService
	events *services.EventPublisher
}

func NewTaskProcessor(docs *services.DocumentStoreService, index *services.VectorIndexService, events *services.EventPublisher) *TaskProcessor {
	return &TaskProcessor{docs: docs, index: index, events: events}
}

func (p *TaskProcessor) HandleProcessLoader(ctx context.Context, t *asynq.Task) error {
	var payload ProcessLoaderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid process-loader payload: %w", err)
	}
	logger.Info("Processing loader", "storeId", payload.StoreID, "loaderId", payload.LoaderID)

	p.publish(ctx, "start", payload.ChatID, "")
	if err := p.docs.ProcessLoader(ctx, payload.StoreID, payload.LoaderID); err != nil {
		p.publish(ctx, "error", payload.ChatID, err.Error())
		return err
	}
	p.publish(ctx, "custom", payload.ChatID, map[string]any{
		"operation": "processLoader",
		"storeId":   payload.StoreID,
		"loaderId":  payload.LoaderID,
		"status":    "FINISHED",
	})
	return nil
}

func (p *TaskProcessor) HandleUpsertStore(ctx context.Context, t *asynq.Task) error {
	var payload UpsertStorePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid upsert payload: %w", err)
	}
	logger.Info("Upserting store into vector index", "storeId", payload.StoreID)

	p.publish(ctx, "start", payload.ChatID, "")
	result, err := p.index.Upsert(ctx, payload.StoreID)
	if err != nil {
		p.publish(ctx, "error", payload.ChatID, err.Error())
		return err
	}
	p.publish(ctx, "custom", payload.ChatID, map[string]any{
		"operation": "upsert",
		"storeId":   payload.StoreID,
		"status":    "FINISHED",
		"result":    result.Stripped(),
	})
	return nil
}

func (p *TaskProcessor) publish(ctx context.Context, eventType, chatID string, data any) {
	if chatID == "" || p.events == nil {
		return
	}
	if err := p.events.Publish(ctx, eventType, chatID, data); err != nil {
		logger.Warn("Failed to publish pipeline event", "chatId", chatID, "eventType", eventType, "error", err)
	}
}
