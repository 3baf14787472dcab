// Package generation produces the reply text for a chat turn.
package generation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/support-agent/backend/internal/retrieval"
	"github.com/support-agent/backend/internal/sentiment"
	"github.com/support-agent/backend/pkg/logger"
)

// ErrorReply is returned verbatim when the external model fails mid-call.
// Generation never propagates a fatal error; the user always gets text.
const ErrorReply = "I'm sorry, but I encountered an error trying to generate a response."

const (
	prefixVeryNegative = "I truly understand this is frustrating. "
	prefixNegative     = "I'm sorry you're facing this. "
)

// Generator is the capability interface selected at startup.
type Generator interface {
	Generate(ctx context.Context, query string, sources []retrieval.Source, sent sentiment.Result, tone string) string
}

// ReplyModel is the narrow contract to the external generation model.
type ReplyModel interface {
	GenerateReply(ctx context.Context, query string, sources []retrieval.Source, sentimentLabel, tone string) (string, error)
}

// ModelGenerator delegates to the external model and degrades to a fixed
// apology on failure.
type ModelGenerator struct {
	model ReplyModel
}

func NewModelGenerator(model ReplyModel) *ModelGenerator {
	return &ModelGenerator{model: model}
}

func (g *ModelGenerator) Generate(ctx context.Context, query string, sources []retrieval.Source, sent sentiment.Result, tone string) string {
	reply, err := g.model.GenerateReply(ctx, query, sources, sent.Label, tone)
	if err != nil {
		logger.Error("Reply generation failed", zap.Error(err))
		return ErrorReply
	}
	return reply
}

// TemplateGenerator synthesizes a reply locally when no generation model is
// configured: an empathy prefix picked by sentiment tier, then the best
// retrieved snippet.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Generate(_ context.Context, _ string, sources []retrieval.Source, sent sentiment.Result, _ string) string {
	prefix := ""
	switch sent.Label {
	case sentiment.LabelVeryNegative:
		prefix = prefixVeryNegative
	case sentiment.LabelNegative:
		prefix = prefixNegative
	}

	suggestion := "please connect your knowledge base."
	if len(sources) > 0 {
		suggestion = sources[0].Snippet
	}

	return fmt.Sprintf("%sHere's what I can suggest based on our help center: %s", prefix, suggestion)
}
