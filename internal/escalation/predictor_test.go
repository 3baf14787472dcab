package escalation

import (
	"context"
	"reflect"
	"testing"
)

func TestPredictScoring(t *testing.T) {
	p := NewPredictor()

	tests := []struct {
		name          string
		text          string
		wantScore     float64
		wantPredicted bool
		wantReasons   []string
	}{
		{
			name:          "no triggers",
			text:          "What are your opening hours?",
			wantScore:     0.0,
			wantPredicted: false,
			wantReasons:   []string{},
		},
		{
			name:          "single trigger lands on threshold",
			text:          "I would like a refund please",
			wantScore:     0.85,
			wantPredicted: true,
			wantReasons:   []string{"refund"},
		},
		{
			name:          "two triggers",
			text:          "Give me a refund or I'll file a complaint",
			wantScore:     0.90,
			wantPredicted: true,
			wantReasons:   []string{"refund", "complaint"},
		},
		{
			name:          "hit contribution caps at three",
			text:          "refund chargeback legal lawsuit complaint manager",
			wantScore:     0.95,
			wantPredicted: true,
			wantReasons:   []string{"refund", "chargeback", "legal", "lawsuit", "complaint", "manager"},
		},
		{
			name:          "multi-word trigger",
			text:          "I want to cancel my account today",
			wantScore:     0.85,
			wantPredicted: true,
			wantReasons:   []string{"cancel my account"},
		},
		{
			name:          "case insensitive",
			text:          "GET ME YOUR MANAGER",
			wantScore:     0.85,
			wantPredicted: true,
			wantReasons:   []string{"manager"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Predict(context.Background(), tt.text, nil)
			if got.Score != tt.wantScore {
				t.Errorf("Score = %v, want %v", got.Score, tt.wantScore)
			}
			if got.Predicted != tt.wantPredicted {
				t.Errorf("Predicted = %v, want %v", got.Predicted, tt.wantPredicted)
			}
			if !reflect.DeepEqual(got.Reasons, tt.wantReasons) {
				t.Errorf("Reasons = %v, want %v", got.Reasons, tt.wantReasons)
			}
		})
	}
}

func TestPredictReasonsInTableOrder(t *testing.T) {
	p := NewPredictor()

	// "manager" appears first in the text but after "refund" in the table.
	got := p.Predict(context.Background(), "manager, I demand a refund", nil)
	want := []string{"refund", "manager"}
	if !reflect.DeepEqual(got.Reasons, want) {
		t.Errorf("Reasons = %v, want table order %v", got.Reasons, want)
	}
}

func TestPredictRepeatedTriggerCountedOnce(t *testing.T) {
	p := NewPredictor()

	got := p.Predict(context.Background(), "refund refund refund", nil)
	if len(got.Reasons) != 1 {
		t.Errorf("expected deduplicated reasons, got %v", got.Reasons)
	}
	if got.Score != 0.85 {
		t.Errorf("Score = %v, want 0.85 for one distinct trigger", got.Score)
	}
}

func TestPredictHistoryIgnored(t *testing.T) {
	p := NewPredictor()

	withHistory := p.Predict(context.Background(), "refund now", []string{"earlier complaint", "legal threats"})
	without := p.Predict(context.Background(), "refund now", nil)

	if withHistory.Score != without.Score || !reflect.DeepEqual(withHistory.Reasons, without.Reasons) {
		t.Errorf("history must not change the fallback result: %+v vs %+v", withHistory, without)
	}
}

func TestPredictScoreBounds(t *testing.T) {
	p := NewPredictor()

	for _, text := range []string{"", "refund", "refund chargeback legal lawsuit complaint escalate supervisor manager"} {
		got := p.Predict(context.Background(), text, nil)
		if got.Score < 0 || got.Score > 1 {
			t.Errorf("Predict(%q).Score = %v out of [0,1]", text, got.Score)
		}
		if got.Predicted != (got.Score >= 0.85) {
			t.Errorf("Predict(%q): Predicted=%v inconsistent with Score=%v", text, got.Predicted, got.Score)
		}
	}
}

func TestRulesReturnsCopy(t *testing.T) {
	p := NewPredictor()

	rules := p.Rules()
	if len(rules) == 0 {
		t.Fatal("expected non-empty rule table")
	}

	rules[0] = "tampered"
	if p.Rules()[0] == "tampered" {
		t.Error("Rules must return a copy, not the internal table")
	}
}
