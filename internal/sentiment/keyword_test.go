package sentiment

import "testing"

func TestClassifyTiers(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantLabel string
		wantScore float64
	}{
		{"very negative keyword", "I hate this product", LabelVeryNegative, 0.95},
		{"worst keyword", "This is the worst experience ever", LabelVeryNegative, 0.95},
		{"uppercase input", "ABSOLUTELY TERRIBLE", LabelVeryNegative, 0.95},
		{"negative keyword", "There is an issue with my order", LabelNegative, 0.75},
		{"cannot keyword", "I cannot log in", LabelNegative, 0.75},
		{"positive keyword", "Thanks, that was perfect!", LabelPositive, 0.90},
		{"resolved keyword", "My problem is resolved, great job", LabelNegative, 0.75},
		{"neutral", "What are your opening hours?", LabelNeutral, 0.60},
		{"empty text", "", LabelNeutral, 0.60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			if got.Label != tt.wantLabel {
				t.Errorf("Classify(%q).Label = %q, want %q", tt.text, got.Label, tt.wantLabel)
			}
			if got.Score != tt.wantScore {
				t.Errorf("Classify(%q).Score = %v, want %v", tt.text, got.Score, tt.wantScore)
			}
		})
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	// A message matching multiple tiers takes the highest-priority one.
	got := Classify("I hate this but thanks for trying")
	if got.Label != LabelVeryNegative {
		t.Errorf("expected very_negative to win over positive, got %q", got.Label)
	}

	got = Classify("bad but great")
	if got.Label != LabelNegative {
		t.Errorf("expected negative to win over positive, got %q", got.Label)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	text := "I'm angry about this problem, thanks for nothing"
	first := Classify(text)
	for i := 0; i < 10; i++ {
		got := Classify(text)
		if got.Label != first.Label || got.Score != first.Score {
			t.Fatalf("classification not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestClassifyEmotions(t *testing.T) {
	tests := []struct {
		text    string
		emotion string
	}{
		{"I hate it", "anger"},
		{"there is a problem", "sadness"},
		{"thanks a lot", "joy"},
		{"hello", "neutral"},
	}

	for _, tt := range tests {
		got := Classify(tt.text)
		if _, ok := got.Emotions[tt.emotion]; !ok {
			t.Errorf("Classify(%q).Emotions missing %q, got %v", tt.text, tt.emotion, got.Emotions)
		}
	}
}
