package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/support-agent/backend/internal/retrieval"
	"github.com/support-agent/backend/internal/sentiment"
)

type stubReplyModel struct {
	reply string
	err   error
}

func (s *stubReplyModel) GenerateReply(_ context.Context, _ string, _ []retrieval.Source, _, _ string) (string, error) {
	return s.reply, s.err
}

func TestTemplateGeneratorPrefixes(t *testing.T) {
	sources := []retrieval.Source{{ID: "kb_1", Snippet: "Restart the router and retry."}}

	tests := []struct {
		name       string
		label      string
		wantPrefix string
	}{
		{"very negative gets consolation", sentiment.LabelVeryNegative, "I truly understand this is frustrating. "},
		{"negative gets apology", sentiment.LabelNegative, "I'm sorry you're facing this. "},
		{"neutral gets no prefix", sentiment.LabelNeutral, "Here's what I can suggest"},
		{"positive gets no prefix", sentiment.LabelPositive, "Here's what I can suggest"},
	}

	g := NewTemplateGenerator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := g.Generate(context.Background(), "help", sources, sentiment.Result{Label: tt.label}, "empathetic")
			if !strings.HasPrefix(reply, tt.wantPrefix) {
				t.Errorf("reply %q does not start with %q", reply, tt.wantPrefix)
			}
			if !strings.Contains(reply, "Restart the router and retry.") {
				t.Errorf("reply %q does not include the top snippet", reply)
			}
		})
	}
}

func TestTemplateGeneratorNoSources(t *testing.T) {
	g := NewTemplateGenerator()
	reply := g.Generate(context.Background(), "help", nil, sentiment.Result{Label: sentiment.LabelNeutral}, "")
	want := "Here's what I can suggest based on our help center: please connect your knowledge base."
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
}

func TestModelGeneratorDelegates(t *testing.T) {
	g := NewModelGenerator(&stubReplyModel{reply: "Happy to help with that."})
	reply := g.Generate(context.Background(), "help", nil, sentiment.Result{Label: sentiment.LabelNeutral}, "empathetic")
	if reply != "Happy to help with that." {
		t.Errorf("reply = %q", reply)
	}
}

func TestModelGeneratorErrorReply(t *testing.T) {
	g := NewModelGenerator(&stubReplyModel{err: errors.New("model timeout")})
	reply := g.Generate(context.Background(), "help", nil, sentiment.Result{Label: sentiment.LabelNegative}, "empathetic")
	if reply != ErrorReply {
		t.Errorf("reply = %q, want the fixed error apology", reply)
	}
}
