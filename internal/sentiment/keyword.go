package sentiment

import (
	"context"
	"strings"
)

// Tier tables checked in priority order. Scores are fixed per tier, not
// derived from match counts, so the classifier is byte-for-byte reproducible.
var (
	veryNegativeWords = []string{"angry", "furious", "hate", "useless", "worst", "terrible"}
	negativeWords     = []string{"not happy", "bad", "issue", "problem", "can't", "cannot", "delay"}
	positiveWords     = []string{"great", "thanks", "love", "awesome", "perfect", "resolved"}
)

// KeywordClassifier is the deterministic local fallback. It does no I/O.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (k *KeywordClassifier) Analyze(_ context.Context, text string) Result {
	return Classify(text)
}

// Classify lower-cases the text and returns the first matching tier:
// very_negative, then negative, then positive, else neutral.
func Classify(text string) Result {
	t := strings.ToLower(text)

	if containsAny(t, veryNegativeWords) {
		return Result{Label: LabelVeryNegative, Score: 0.95, Emotions: map[string]float64{"anger": 0.9}}
	}
	if containsAny(t, negativeWords) {
		return Result{Label: LabelNegative, Score: 0.75, Emotions: map[string]float64{"sadness": 0.6}}
	}
	if containsAny(t, positiveWords) {
		return Result{Label: LabelPositive, Score: 0.90, Emotions: map[string]float64{"joy": 0.85}}
	}
	return Result{Label: LabelNeutral, Score: 0.60, Emotions: map[string]float64{"neutral": 0.7}}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
