// Package escalation decides whether a conversation should be routed to a
// human agent. The rule-based predictor is both the fallback and the shipped
// default; a learned model can replace it behind the same contract.
package escalation

import (
	"context"
	"math"
	"strings"
)

// Trigger phrases checked as substrings, in this order. Reasons are reported
// in table order.
var defaultTriggers = []string{
	"refund", "chargeback", "legal", "lawsuit",
	"complaint", "escalate", "supervisor", "manager",
	"cancel my account", "switch provider",
}

const defaultThreshold = 0.85

type Result struct {
	Predicted bool     `json:"predicted"`
	Score     float64  `json:"score"`
	Reasons   []string `json:"reasons"`
}

type Predictor struct {
	triggers  []string
	threshold float64
}

func NewPredictor() *Predictor {
	return &Predictor{
		triggers:  defaultTriggers,
		threshold: defaultThreshold,
	}
}

func NewPredictorWithThreshold(threshold float64) *Predictor {
	p := NewPredictor()
	if threshold > 0 {
		p.threshold = threshold
	}
	return p
}

// Rules returns the trigger table, exposed on GET /escalation/rules.
func (p *Predictor) Rules() []string {
	rules := make([]string, len(p.triggers))
	copy(rules, p.triggers)
	return rules
}

// Predict scores a message for escalation need. history is accepted for
// contract compatibility with a model-backed predictor and is unused here.
//
// Score arithmetic: 0.80 + 0.05 per hit, capped at 3 hits, so a single
// trigger lands exactly on the 0.85 threshold.
func (p *Predictor) Predict(_ context.Context, text string, history []string) Result {
	_ = history

	txt := strings.ToLower(text)

	reasons := []string{}
	seen := make(map[string]bool)
	for _, trigger := range p.triggers {
		if seen[trigger] {
			continue
		}
		if strings.Contains(txt, trigger) {
			reasons = append(reasons, trigger)
			seen[trigger] = true
		}
	}

	score := 0.0
	if len(reasons) > 0 {
		hits := math.Min(3, float64(len(reasons)))
		score = 0.80 + 0.05*hits
	}
	score = round2(score)

	return Result{
		Predicted: score >= p.threshold,
		Score:     score,
		Reasons:   reasons,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
