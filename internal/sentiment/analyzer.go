package sentiment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/support-agent/backend/internal/metrics"
	"github.com/support-agent/backend/pkg/logger"
)

// ModelClient is the narrow contract to the external classifier.
type ModelClient interface {
	ClassifySentiment(ctx context.Context, text string) (Result, error)
}

// ResultCache caches classification results keyed by text hash.
type ResultCache interface {
	GetSentiment(ctx context.Context, textHash string) (Result, bool, error)
	SetSentiment(ctx context.Context, textHash string, result Result, ttl time.Duration) error
}

// HashFunc derives the cache key for a text.
type HashFunc func(string) string

// Analyzer wraps the optional external classifier with the keyword fallback.
// A nil model means the fallback is the only path; a model error degrades to
// the fallback for that call.
type Analyzer struct {
	model    ModelClient
	cache    ResultCache
	hash     HashFunc
	cacheTTL time.Duration
	timeout  time.Duration
}

type AnalyzerOption func(*Analyzer)

func WithCache(cache ResultCache, hash HashFunc, ttl time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		a.cache = cache
		a.hash = hash
		a.cacheTTL = ttl
	}
}

func WithTimeout(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		a.timeout = d
	}
}

func NewAnalyzer(model ModelClient, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		model:   model,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) Analyze(ctx context.Context, text string) Result {
	if a.model == nil {
		result := Classify(text)
		metrics.SentimentTotal.WithLabelValues(result.Label, "fallback").Inc()
		return result
	}

	var key string
	if a.cache != nil {
		key = a.hash(text)
		if cached, ok, err := a.cache.GetSentiment(ctx, key); err == nil && ok {
			metrics.CacheHits.WithLabelValues("sentiment").Inc()
			return cached
		}
		metrics.CacheMisses.WithLabelValues("sentiment").Inc()
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result, err := a.model.ClassifySentiment(ctx, text)
	if err != nil {
		// Timeout and outright failure are the same case: unavailable.
		logger.Warn("Sentiment model unavailable, using keyword fallback", zap.Error(err))
		result = Classify(text)
		metrics.SentimentTotal.WithLabelValues(result.Label, "fallback").Inc()
		return result
	}

	metrics.SentimentTotal.WithLabelValues(result.Label, "model").Inc()

	if a.cache != nil {
		if err := a.cache.SetSentiment(ctx, key, result, a.cacheTTL); err != nil {
			logger.Debug("Sentiment cache write failed", zap.Error(err))
		}
	}

	return result
}

// AnalyzeBatch classifies each text independently.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, texts []string) []Result {
	results := make([]Result, len(texts))
	for i, text := range texts {
		results[i] = a.Analyze(ctx, text)
	}
	return results
}
