package provider

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync/atomic"
	"time"

	"github.com/sashabaranov/go-openai"

	"qiyas/internal/domain"
)

// Config holds the connection settings for the OpenAI-compatible API
// serving both external capabilities: embedding and generation.
type Config struct {
	BaseURL        string
	APIKey         string
	EmbeddingModel string
	ChatModel      string
	MaxRetries     int
	Timeout        time.Duration
}

// Provider wraps an OpenAI-compatible client as the embedding and
// generation capability. A single provider instance serves both so
// index build and query embedding cannot drift onto different models.
type Provider struct {
	client    *openai.Client
	config    Config
	dimension atomic.Int64
}

// New creates a provider. Missing settings fall back to defaults.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing API key")
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Provider{client: openai.NewClientWithConfig(clientConfig), config: cfg}, nil
}

// NewFromEnv creates a provider from QIYAS_* environment variables.
func NewFromEnv() (*Provider, error) {
	return New(Config{
		BaseURL:        getEnv("QIYAS_AI_BASE_URL", "https://api.openai.com/v1"),
		APIKey:         os.Getenv("QIYAS_AI_API_KEY"),
		EmbeddingModel: getEnv("QIYAS_AI_EMBEDDING_MODEL", "text-embedding-3-small"),
		ChatModel:      getEnv("QIYAS_AI_CHAT_MODEL", "gpt-4o-mini"),
	})
}

// Name identifies the embedding capability, including the model, so a
// persisted index records exactly which embedding space it lives in.
func (p *Provider) Name() string { return "openai/" + p.config.EmbeddingModel }

// Prepare is a no-op; remote embedding needs no corpus pass. The
// dimension is learned lazily from the first embedding response.
func (p *Provider) Prepare(corpus []string) error { return nil }

// Dimension reports the embedding length, 0 until the first Embed.
func (p *Provider) Dimension() int { return int(p.dimension.Load()) }

// Embed returns the embedding vector for the given text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float64, error) {
	var result []float64
	err := p.doWithRetry(ctx, func(ctx context.Context) error {
		resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(p.config.EmbeddingModel),
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("empty embedding response")
		}
		raw := resp.Data[0].Embedding
		result = make([]float64, len(raw))
		for i, v := range raw {
			result[i] = float64(v)
		}
		return nil
	})
	if err != nil {
		return nil, &domain.EmbeddingError{Err: err}
	}
	p.dimension.CompareAndSwap(0, int64(len(result)))
	return result, nil
}

// Generate performs a chat completion over the assembled prompt and
// returns the raw response text.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	var result string
	err := p.doWithRetry(ctx, func(ctx context.Context) error {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: p.config.ChatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.2,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty chat response")
		}
		result = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", &domain.GenerationError{Err: err}
	}
	return result, nil
}

// doWithRetry executes fn under the configured timeout with
// exponential backoff between attempts.
func (p *Provider) doWithRetry(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < p.config.MaxRetries-1 {
			wait := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			slog.Debug("provider request failed, retrying",
				"attempt", attempt+1,
				"wait", wait,
				"error", err)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
