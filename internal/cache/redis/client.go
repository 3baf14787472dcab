package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/support-agent/backend/internal/sentiment"
	"github.com/support-agent/backend/pkg/logger"
)

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetEmbedding(ctx context.Context, textHash string, embedding []float32, ttl time.Duration) error {
	data, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("embedding:%s", textHash), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set embedding cache: %w", err)
	}

	return nil
}

func (c *Client) GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("embedding:%s", textHash)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get embedding cache: %w", err)
	}

	var embedding []float32
	err = json.Unmarshal(data, &embedding)
	if err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal embedding: %w", err)
	}

	return embedding, true, nil
}

func (c *Client) SetSentiment(ctx context.Context, textHash string, result sentiment.Result, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal sentiment: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("sentiment:%s", textHash), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set sentiment cache: %w", err)
	}

	return nil
}

func (c *Client) GetSentiment(ctx context.Context, textHash string) (sentiment.Result, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("sentiment:%s", textHash)).Bytes()
	if err == redis.Nil {
		return sentiment.Result{}, false, nil
	}
	if err != nil {
		return sentiment.Result{}, false, fmt.Errorf("failed to get sentiment cache: %w", err)
	}

	var result sentiment.Result
	err = json.Unmarshal(data, &result)
	if err != nil {
		return sentiment.Result{}, false, fmt.Errorf("failed to unmarshal sentiment: %w", err)
	}

	return result, true, nil
}

// InvalidateRetrievalCache drops cached embeddings after new articles land.
func (c *Client) InvalidateRetrievalCache(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "embedding:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Retrieval cache invalidated")
	return nil
}
