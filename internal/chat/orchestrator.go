// Package chat orchestrates one support turn: retrieve knowledge, classify
// sentiment, predict escalation, generate a reply, and log the exchange.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/support-agent/backend/internal/escalation"
	"github.com/support-agent/backend/internal/generation"
	"github.com/support-agent/backend/internal/metrics"
	"github.com/support-agent/backend/internal/retrieval"
	"github.com/support-agent/backend/internal/sentiment"
	"github.com/support-agent/backend/internal/storage/models"
	"github.com/support-agent/backend/pkg/logger"
)

var ErrEmptyMessage = errors.New("message text is required")

const (
	defaultTopK = 5
	maxTopK     = 20
)

type TurnRequest struct {
	CustomerID    string
	SessionID     string
	Text          string
	TopK          int
	PreferredTone string
	Metadata      map[string]interface{}
}

type TurnResult struct {
	SessionID  string             `json:"session_id"`
	Reply      string             `json:"reply"`
	Sentiment  sentiment.Result   `json:"sentiment"`
	Escalation escalation.Result  `json:"escalation"`
	Sources    []retrieval.Source `json:"sources"`
	CreatedAt  time.Time          `json:"created_at"`
}

type Classifier interface {
	Analyze(ctx context.Context, text string) sentiment.Result
}

type Predictor interface {
	Predict(ctx context.Context, text string, history []string) escalation.Result
}

// Store persists session transcripts. Writes are best-effort: a store error
// never fails the turn.
type Store interface {
	AppendExchange(sessionID, customerID string, customerMsg, botMsg models.ChatMessage) error
	GetSession(sessionID string) (*models.ChatSession, error)
}

type Orchestrator struct {
	retriever  retrieval.Retriever
	classifier Classifier
	predictor  Predictor
	generator  generation.Generator
	store      Store

	// Used when the primary retriever fails mid-call.
	retrievalFallback retrieval.Retriever
}

func NewOrchestrator(retriever retrieval.Retriever, classifier Classifier, predictor Predictor, generator generation.Generator, store Store) *Orchestrator {
	return &Orchestrator{
		retriever:         retriever,
		classifier:        classifier,
		predictor:         predictor,
		generator:         generator,
		store:             store,
		retrievalFallback: retrieval.NewNullRetriever(),
	}
}

// Respond runs one chat turn. Every enrichment stage is failure-isolated:
// a collaborator that errors is replaced by its fallback and the turn
// continues. Only malformed input aborts.
func (o *Orchestrator) Respond(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if req.Text == "" {
		return nil, ErrEmptyMessage
	}

	start := time.Now()
	createdAt := start.UTC()

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	// Retrieval, sentiment, and escalation are independent. Generation
	// fans in on the first two; escalation joins before the response.
	sourcesCh := make(chan []retrieval.Source, 1)
	sentimentCh := make(chan sentiment.Result, 1)
	escalationCh := make(chan escalation.Result, 1)

	go func() {
		sourcesCh <- o.retrieve(ctx, req.Text, topK)
	}()
	go func() {
		sentimentCh <- o.classifier.Analyze(ctx, req.Text)
	}()
	go func() {
		escalationCh <- o.predictor.Predict(ctx, req.Text, nil)
	}()

	sources := <-sourcesCh
	sent := <-sentimentCh

	reply := o.generator.Generate(ctx, req.Text, sources, sent, req.PreferredTone)

	esc := <-escalationCh
	if esc.Predicted {
		metrics.EscalationsPredicted.Inc()
	}

	o.persist(sessionID, req.CustomerID, req.Text, reply, sent, createdAt)

	metrics.TurnDuration.Observe(time.Since(start).Seconds())
	metrics.TurnsTotal.WithLabelValues("ok").Inc()

	logger.Info("Turn processed",
		zap.String("session_id", sessionID),
		zap.String("sentiment", sent.Label),
		zap.Bool("escalation", esc.Predicted),
		zap.Int("sources", len(sources)),
		zap.Duration("latency", time.Since(start)),
	)

	return &TurnResult{
		SessionID:  sessionID,
		Reply:      reply,
		Sentiment:  sent,
		Escalation: esc,
		Sources:    sources,
		CreatedAt:  createdAt,
	}, nil
}

func (o *Orchestrator) retrieve(ctx context.Context, query string, topK int) []retrieval.Source {
	sources, err := o.retriever.Search(ctx, query, topK)
	if err != nil {
		logger.Warn("Retrieval failed, using sentinel source", zap.Error(err))
		sources, _ = o.retrievalFallback.Search(ctx, query, topK)
	}

	if len(sources) > topK {
		sources = sources[:topK]
	}
	if sources == nil {
		sources = []retrieval.Source{}
	}

	return sources
}

func (o *Orchestrator) persist(sessionID, customerID, text, reply string, sent sentiment.Result, createdAt time.Time) {
	if o.store == nil {
		return
	}

	customerMsg := models.ChatMessage{
		Sender:         "customer",
		Text:           text,
		SentimentLabel: sent.Label,
		SentimentScore: sent.Score,
		Timestamp:      createdAt,
	}
	botMsg := models.ChatMessage{
		Sender:    "bot",
		Text:      reply,
		Timestamp: time.Now().UTC(),
	}

	if err := o.store.AppendExchange(sessionID, customerID, customerMsg, botMsg); err != nil {
		logger.Warn("Conversation log skipped", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// Session retrieves a persisted transcript; nil when unknown.
func (o *Orchestrator) Session(sessionID string) (*models.ChatSession, error) {
	if o.store == nil {
		return nil, nil
	}
	return o.store.GetSession(sessionID)
}

// NewSessionID mints a collision-resistant session identifier.
func NewSessionID() string {
	return "sess_" + uuid.NewString()
}
