package components

import (
	"context"
	"fmt"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"google.golang.org/api/option"

	"docstore-platform/internal/logger"
)

const defaultEmbeddingModel = "text-embedding-004"

// googleEmbeddings calls the Google Generative AI embedding endpoint behind
// a circuit breaker so a misbehaving upstream fails fast instead of stalling
// every worker.
type googleEmbeddings struct {
	client  *genai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
}

func newGoogleEmbeddings(ctx context.Context, inv Invocation) (Embedder, error) {
	apiKey := stringOption(inv.Config, "apiKey", "")
	if apiKey == "" {
		apiKey = inv.Credential
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key for Google embeddings")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GoogleEmbeddings",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &googleEmbeddings{
		client:  client,
		model:   stringOption(inv.Config, "modelName", defaultEmbeddingModel),
		breaker: breaker,
	}, nil
}

func (g *googleEmbeddings) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	result, err := g.breaker.Execute(func() (interface{}, error) {
		em := g.client.EmbeddingModel(g.model)
		batch := em.NewBatch()
		for _, text := range texts {
			batch.AddContent(genai.Text(text))
		}
		resp, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, err
		}
		if len(resp.Embeddings) != len(texts) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
		}
		vectors := make([][]float32, len(resp.Embeddings))
		for i, emb := range resp.Embeddings {
			vectors[i] = emb.Values
		}
		return vectors, nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedding batch failed: %w", err)
	}
	return result.([][]float32), nil
}

func (g *googleEmbeddings) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		resp, err := g.client.EmbeddingModel(g.model).EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if resp.Embedding == nil {
			return nil, fmt.Errorf("no embedding returned")
		}
		return resp.Embedding.Values, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}
	return result.([]float32), nil
}
