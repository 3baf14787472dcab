// Package sentiment classifies customer messages. The model-backed path
// delegates to an external classifier; the keyword path is a deterministic
// local substitute used whenever the model is unavailable or fails.
package sentiment

import "context"

const (
	LabelPositive     = "positive"
	LabelNegative     = "negative"
	LabelVeryNegative = "very_negative"
	LabelNeutral      = "neutral"
)

type Result struct {
	Label    string             `json:"label"`
	Score    float64            `json:"score"`
	Emotions map[string]float64 `json:"emotions,omitempty"`
}

// Classifier is the capability interface selected at startup. Implementations
// must not return an error for ordinary input; degradation happens inside.
type Classifier interface {
	Analyze(ctx context.Context, text string) Result
}
