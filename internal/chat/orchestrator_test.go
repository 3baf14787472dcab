package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/support-agent/backend/internal/escalation"
	"github.com/support-agent/backend/internal/generation"
	"github.com/support-agent/backend/internal/retrieval"
	"github.com/support-agent/backend/internal/sentiment"
	"github.com/support-agent/backend/internal/storage/models"
)

type failingRetriever struct{}

func (failingRetriever) Search(_ context.Context, _ string, _ int) ([]retrieval.Source, error) {
	return nil, errors.New("vector store unavailable")
}

type fixedRetriever struct {
	sources []retrieval.Source
}

func (r fixedRetriever) Search(_ context.Context, _ string, _ int) ([]retrieval.Source, error) {
	return r.sources, nil
}

type memoryStore struct {
	mu        sync.Mutex
	exchanges map[string][]models.ChatMessage
	sessions  map[string]*models.ChatSession
	err       error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		exchanges: make(map[string][]models.ChatMessage),
		sessions:  make(map[string]*models.ChatSession),
	}
}

func (s *memoryStore) AppendExchange(sessionID, _ string, customerMsg, botMsg models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.exchanges[sessionID] = append(s.exchanges[sessionID], customerMsg, botMsg)
	return nil
}

func (s *memoryStore) GetSession(sessionID string) (*models.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[sessionID], s.err
}

func newTestOrchestrator(r retrieval.Retriever, store Store) *Orchestrator {
	return NewOrchestrator(
		r,
		sentiment.NewAnalyzer(nil),
		escalation.NewPredictor(),
		generation.NewTemplateGenerator(),
		store,
	)
}

func TestRespondAngryRefundTurn(t *testing.T) {
	store := newMemoryStore()
	o := newTestOrchestrator(retrieval.NewNullRetriever(), store)

	result, err := o.Respond(context.Background(), TurnRequest{
		CustomerID: "cust_1",
		Text:       "This is the worst, I want a refund, get me your manager",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Sentiment.Label != sentiment.LabelVeryNegative {
		t.Errorf("sentiment = %s, want %s", result.Sentiment.Label, sentiment.LabelVeryNegative)
	}
	if result.Sentiment.Score != 0.95 {
		t.Errorf("sentiment score = %v, want 0.95", result.Sentiment.Score)
	}
	if !result.Escalation.Predicted {
		t.Error("turn with refund and manager triggers must be flagged for escalation")
	}
	reasons := strings.Join(result.Escalation.Reasons, " ")
	if !strings.Contains(reasons, "refund") || !strings.Contains(reasons, "manager") {
		t.Errorf("reasons %v missing expected triggers", result.Escalation.Reasons)
	}
	if !strings.HasPrefix(result.Reply, "I truly understand this is frustrating. ") {
		t.Errorf("reply %q missing consolation prefix", result.Reply)
	}
	if !strings.HasPrefix(result.SessionID, "sess_") {
		t.Errorf("session id %q missing sess_ prefix", result.SessionID)
	}

	msgs := store.exchanges[result.SessionID]
	if len(msgs) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(msgs))
	}
	if msgs[0].Sender != "customer" || msgs[1].Sender != "bot" {
		t.Errorf("unexpected senders: %s, %s", msgs[0].Sender, msgs[1].Sender)
	}
	if msgs[0].SentimentLabel != sentiment.LabelVeryNegative {
		t.Errorf("customer message sentiment = %s", msgs[0].SentimentLabel)
	}
}

func TestRespondHappyTurn(t *testing.T) {
	o := newTestOrchestrator(retrieval.NewNullRetriever(), nil)

	result, err := o.Respond(context.Background(), TurnRequest{Text: "Thanks, that was perfect!"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Sentiment.Label != sentiment.LabelPositive {
		t.Errorf("sentiment = %s, want %s", result.Sentiment.Label, sentiment.LabelPositive)
	}
	if result.Sentiment.Score != 0.90 {
		t.Errorf("sentiment score = %v, want 0.90", result.Sentiment.Score)
	}
	if result.Escalation.Predicted {
		t.Error("friendly turn must not be flagged for escalation")
	}
	if result.Escalation.Score != 0 {
		t.Errorf("escalation score = %v, want 0", result.Escalation.Score)
	}
	if len(result.Sources) != 1 || result.Sources[0].ID != retrieval.SentinelID {
		t.Errorf("expected single sentinel source, got %+v", result.Sources)
	}
}

func TestRespondEmptyMessage(t *testing.T) {
	o := newTestOrchestrator(retrieval.NewNullRetriever(), nil)

	_, err := o.Respond(context.Background(), TurnRequest{Text: ""})
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
}

func TestRespondTopKClamped(t *testing.T) {
	many := make([]retrieval.Source, 40)
	for i := range many {
		many[i] = retrieval.Source{ID: "kb", Score: 0.5}
	}
	o := newTestOrchestrator(fixedRetriever{sources: many}, nil)

	tests := []struct {
		name    string
		topK    int
		wantMax int
	}{
		{"default", 0, 5},
		{"explicit", 3, 3},
		{"over max", 100, 20},
		{"negative", -4, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := o.Respond(context.Background(), TurnRequest{Text: "hi", TopK: tt.topK})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.Sources) > tt.wantMax {
				t.Errorf("got %d sources, want at most %d", len(result.Sources), tt.wantMax)
			}
		})
	}
}

func TestRespondRetrieverFailureFallsBack(t *testing.T) {
	o := newTestOrchestrator(failingRetriever{}, nil)

	result, err := o.Respond(context.Background(), TurnRequest{Text: "where is my invoice"})
	if err != nil {
		t.Fatalf("retrieval failure must not fail the turn: %v", err)
	}
	if len(result.Sources) != 1 || result.Sources[0].ID != retrieval.SentinelID {
		t.Errorf("expected sentinel fallback source, got %+v", result.Sources)
	}
}

func TestRespondStoreFailureSwallowed(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("disk full")
	o := newTestOrchestrator(retrieval.NewNullRetriever(), store)

	result, err := o.Respond(context.Background(), TurnRequest{Text: "hello"})
	if err != nil {
		t.Fatalf("persistence failure must not fail the turn: %v", err)
	}
	if result.Reply == "" {
		t.Error("expected a reply despite store failure")
	}
}

func TestRespondReusesSessionID(t *testing.T) {
	o := newTestOrchestrator(retrieval.NewNullRetriever(), nil)

	result, err := o.Respond(context.Background(), TurnRequest{Text: "hi", SessionID: "sess_existing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SessionID != "sess_existing" {
		t.Errorf("session id = %q, want sess_existing", result.SessionID)
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		if !strings.HasPrefix(id, "sess_") {
			t.Fatalf("id %q missing prefix", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
