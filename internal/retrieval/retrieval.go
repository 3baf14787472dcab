// Package retrieval returns ranked knowledge-base snippets for a query.
package retrieval

import "context"

// SentinelID marks the synthetic source returned when no knowledge base is
// configured. Callers can distinguish it by ID or by the fixed 0.42 score.
const (
	SentinelID    = "fallback_1"
	SentinelScore = 0.42
)

const snippetMaxLen = 240

type Source struct {
	ID      string  `json:"id"`
	Title   string  `json:"title,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score,omitempty"`
	URL     string  `json:"url,omitempty"`
}

// Retriever is the capability interface selected at startup. Search returns
// at most topK sources ordered by descending relevance.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]Source, error)
}

// NullRetriever stands in when no vector store is configured. It returns a
// single low-confidence sentinel so downstream stages still have a source
// to work with.
type NullRetriever struct{}

func NewNullRetriever() *NullRetriever {
	return &NullRetriever{}
}

func (n *NullRetriever) Search(_ context.Context, _ string, _ int) ([]Source, error) {
	return []Source{
		{
			ID:      SentinelID,
			Title:   "No KB connected",
			Snippet: "Set up vector DB to enable retrieval.",
			Score:   SentinelScore,
		},
	}, nil
}
