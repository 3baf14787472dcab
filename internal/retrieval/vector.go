package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/support-agent/backend/internal/metrics"
	"github.com/support-agent/backend/internal/vector/milvus"
	"github.com/support-agent/backend/pkg/logger"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Searcher runs similarity search over stored chunk embeddings.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]milvus.SearchResult, error)
}

// EmbeddingCache caches query embeddings keyed by text hash.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, textHash string, embedding []float32, ttl time.Duration) error
}

// VectorRetriever embeds the query and ranks stored article chunks by
// similarity. The vector store returns results already ordered by score;
// ties keep the store's insertion order.
type VectorRetriever struct {
	embedder Embedder
	searcher Searcher
	cache    EmbeddingCache
	hash     func(string) string
	cacheTTL time.Duration
	timeout  time.Duration
}

type VectorOption func(*VectorRetriever)

func WithEmbeddingCache(cache EmbeddingCache, hash func(string) string, ttl time.Duration) VectorOption {
	return func(r *VectorRetriever) {
		r.cache = cache
		r.hash = hash
		r.cacheTTL = ttl
	}
}

func NewVectorRetriever(embedder Embedder, searcher Searcher, opts ...VectorOption) *VectorRetriever {
	r := &VectorRetriever{
		embedder: embedder,
		searcher: searcher,
		timeout:  15 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *VectorRetriever) Search(ctx context.Context, query string, topK int) ([]Source, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	embedding, err := r.queryEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.searcher.Search(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}

	sources := make([]Source, 0, len(results))
	for _, result := range results {
		snippet := result.Text
		if len(snippet) > snippetMaxLen {
			snippet = snippet[:snippetMaxLen]
		}
		sources = append(sources, Source{
			ID:      result.ChunkID,
			Title:   result.Title,
			Snippet: snippet,
			Score:   float64(result.Score),
			URL:     result.URL,
		})
	}

	metrics.RetrievalResults.Observe(float64(len(sources)))
	logger.Debug("Knowledge base searched",
		zap.String("query", query),
		zap.Int("top_k", topK),
		zap.Int("results", len(sources)),
	)

	return sources, nil
}

func (r *VectorRetriever) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	var key string
	if r.cache != nil {
		key = r.hash(query)
		if embedding, ok, err := r.cache.GetEmbedding(ctx, key); err == nil && ok {
			metrics.CacheHits.WithLabelValues("embedding").Inc()
			return embedding, nil
		}
		metrics.CacheMisses.WithLabelValues("embedding").Inc()
	}

	embedding, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.SetEmbedding(ctx, key, embedding, r.cacheTTL); err != nil {
			logger.Debug("Embedding cache write failed", zap.Error(err))
		}
	}

	return embedding, nil
}
