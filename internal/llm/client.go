package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/support-agent/backend/internal/metrics"
	"github.com/support-agent/backend/internal/retrieval"
	"github.com/support-agent/backend/internal/sentiment"
	"github.com/support-agent/backend/pkg/circuitbreaker"
	"github.com/support-agent/backend/pkg/logger"
	"github.com/support-agent/backend/pkg/retry"
)

type Client struct {
	client         *openai.Client
	model          string
	embeddingModel string
	temperature    float32
	maxTokens      int
	timeout        time.Duration
	cb             *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
}

type CompletionResponse struct {
	Content string
	Usage   Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func NewClient(apiKey, model, embeddingModel string, temperature float32, maxTokens, timeoutSec int) *Client {
	client := openai.NewClient(apiKey)

	cb := circuitbreaker.New("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	timeout := time.Duration(timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger.Info("LLM client initialized",
		zap.String("model", model),
		zap.String("embedding_model", embeddingModel),
	)

	return &Client{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
		temperature:    temperature,
		maxTokens:      maxTokens,
		timeout:        timeout,
		cb:             cb,
		retryConfig:    retryConfig,
	}
}

func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: req.UserPrompt,
		},
	}

	var result *CompletionResponse

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model:       c.model,
					Messages:    messages,
					Temperature: temperature,
					MaxTokens:   maxTokens,
				},
			)

			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}

			metrics.LLMTokensUsed.WithLabelValues(c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
			metrics.LLMTokensUsed.WithLabelValues(c.model, "completion").Add(float64(resp.Usage.CompletionTokens))

			result = &CompletionResponse{
				Content: resp.Choices[0].Message.Content,
				Usage: Usage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				},
			}

			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var embedding []float32

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateEmbeddings(
				ctx,
				openai.EmbeddingRequest{
					Input: []string{text},
					Model: openai.EmbeddingModel(c.embeddingModel),
				},
			)

			if err != nil {
				return fmt.Errorf("failed to generate embedding: %w", err)
			}

			embedding = make([]float32, len(resp.Data[0].Embedding))
			copy(embedding, resp.Data[0].Embedding)

			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return embedding, nil
}

func (c *Client) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 2*c.timeout)
	defer cancel()

	var embeddings [][]float32

	batchSize := 100
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch := texts[i:end]

		err := c.cb.Execute(ctx, func() error {
			return retry.Do(ctx, c.retryConfig, func() error {
				resp, err := c.client.CreateEmbeddings(
					ctx,
					openai.EmbeddingRequest{
						Input: batch,
						Model: openai.EmbeddingModel(c.embeddingModel),
					},
				)

				if err != nil {
					return fmt.Errorf("failed to generate batch embeddings: %w", err)
				}

				for _, data := range resp.Data {
					embedding := make([]float32, len(data.Embedding))
					copy(embedding, data.Embedding)
					embeddings = append(embeddings, embedding)
				}

				return nil
			})
		})

		if err != nil {
			return nil, err
		}
	}

	logger.Debug("Batch embeddings generated", zap.Int("count", len(embeddings)))

	return embeddings, nil
}

// GenerateReply builds the support prompt from the retrieved sources and the
// detected sentiment, and returns the model's text verbatim.
func (c *Client) GenerateReply(ctx context.Context, query string, sources []retrieval.Source, sentimentLabel, tone string) (string, error) {
	systemPrompt := `You are a helpful and empathetic customer support agent.

Your responses must:
1. Be based ONLY on the provided knowledge-base context
2. Acknowledge the customer's emotional state
3. Say you don't have enough information when the context doesn't cover the question
4. Never fabricate policies, prices, or procedures

Be warm, concise, and actionable.`

	var contextBuilder strings.Builder
	if len(sources) == 0 {
		contextBuilder.WriteString("(no knowledge-base context available)")
	}
	for i, source := range sources {
		contextBuilder.WriteString(fmt.Sprintf("[%d] %s: %s\n", i+1, source.Title, source.Snippet))
	}

	toneHint := ""
	if tone != "" {
		toneHint = fmt.Sprintf("\nPreferred tone: %s", tone)
	}

	userPrompt := fmt.Sprintf(`The customer has expressed a sentiment of: %q.%s

Knowledge Base Context:
%s

Customer's Message: %q

Your Empathetic Response:`, sentimentLabel, toneHint, contextBuilder.String(), query)

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	logger.Info("Reply generated",
		zap.String("sentiment", sentimentLabel),
		zap.Int("reply_length", len(resp.Content)),
	)

	return resp.Content, nil
}

// ClassifySentiment asks the model for a JSON sentiment verdict. A response
// that cannot be parsed is an error; the caller falls back to keywords.
func (c *Client) ClassifySentiment(ctx context.Context, text string) (sentiment.Result, error) {
	systemPrompt := `You are a sentiment classifier for customer-support messages.

Classify the message into exactly one label:
- positive
- neutral
- negative
- very_negative

Return JSON only:
{"label": "negative", "score": 0.82, "emotions": {"sadness": 0.6}}

score is your confidence in [0,1]. emotions maps emotion names to intensities.`

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   text,
		Temperature:  0.1,
		MaxTokens:    150,
	})
	if err != nil {
		return sentiment.Result{}, fmt.Errorf("failed to classify sentiment: %w", err)
	}

	result, err := parseSentiment(resp.Content)
	if err != nil {
		return sentiment.Result{}, fmt.Errorf("failed to parse sentiment response: %w", err)
	}

	return result, nil
}

func parseSentiment(content string) (sentiment.Result, error) {
	// Models occasionally wrap JSON in code fences or prose.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return sentiment.Result{}, fmt.Errorf("no JSON object in %q", content)
	}

	var result sentiment.Result
	if err := json.Unmarshal([]byte(content[start:end+1]), &result); err != nil {
		return sentiment.Result{}, err
	}

	switch result.Label {
	case sentiment.LabelPositive, sentiment.LabelNeutral, sentiment.LabelNegative, sentiment.LabelVeryNegative:
	default:
		return sentiment.Result{}, fmt.Errorf("unknown label %q", result.Label)
	}

	if result.Score < 0 || result.Score > 1 {
		return sentiment.Result{}, fmt.Errorf("score %v out of range", result.Score)
	}

	return result, nil
}
