package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TurnDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "support_turn_duration_seconds",
			Help:    "Chat turn processing duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
	)

	TurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_turns_total",
			Help: "Total chat turns processed",
		},
		[]string{"status"},
	)

	SentimentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_sentiment_total",
			Help: "Sentiment classifications by label and path",
		},
		[]string{"label", "path"},
	)

	EscalationsPredicted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "support_escalations_predicted_total",
			Help: "Turns flagged for human escalation",
		},
	)

	RetrievalResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "support_retrieval_results_count",
			Help:    "Number of knowledge-base results per query",
			Buckets: []float64{0, 1, 2, 5, 10, 20},
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	ArticlesIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "support_articles_ingested_total",
			Help: "Total knowledge-base articles ingested",
		},
	)

	FeedbackRatings = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "support_feedback_rating",
			Help:    "Submitted satisfaction ratings",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)
)

func Init() {
	prometheus.MustRegister(TurnDuration)
	prometheus.MustRegister(TurnsTotal)
	prometheus.MustRegister(SentimentTotal)
	prometheus.MustRegister(EscalationsPredicted)
	prometheus.MustRegister(RetrievalResults)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(ArticlesIngested)
	prometheus.MustRegister(FeedbackRatings)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
