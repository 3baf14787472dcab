package sentiment

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type stubModel struct {
	result Result
	err    error
	calls  int
}

func (s *stubModel) ClassifySentiment(_ context.Context, _ string) (Result, error) {
	s.calls++
	return s.result, s.err
}

type stubCache struct {
	store map[string]Result
	fail  bool
}

func (s *stubCache) GetSentiment(_ context.Context, key string) (Result, bool, error) {
	if s.fail {
		return Result{}, false, errors.New("cache down")
	}
	r, ok := s.store[key]
	return r, ok, nil
}

func (s *stubCache) SetSentiment(_ context.Context, key string, result Result, _ time.Duration) error {
	if s.fail {
		return errors.New("cache down")
	}
	s.store[key] = result
	return nil
}

func identityHash(s string) string { return s }

func TestAnalyzeWithoutModel(t *testing.T) {
	a := NewAnalyzer(nil)

	got := a.Analyze(context.Background(), "I hate this")
	if got.Label != LabelVeryNegative || got.Score != 0.95 {
		t.Errorf("expected keyword fallback result, got %+v", got)
	}
}

func TestAnalyzeModelPath(t *testing.T) {
	model := &stubModel{result: Result{Label: LabelNegative, Score: 0.82}}
	a := NewAnalyzer(model)

	got := a.Analyze(context.Background(), "hmm")
	if got.Label != LabelNegative || got.Score != 0.82 {
		t.Errorf("expected model result, got %+v", got)
	}
	if model.calls != 1 {
		t.Errorf("expected 1 model call, got %d", model.calls)
	}
}

func TestAnalyzeModelFailureFallsBack(t *testing.T) {
	model := &stubModel{err: errors.New("model unavailable")}
	a := NewAnalyzer(model)

	got := a.Analyze(context.Background(), "Thanks, awesome work")
	if got.Label != LabelPositive || got.Score != 0.90 {
		t.Errorf("expected keyword fallback after model failure, got %+v", got)
	}
}

func TestAnalyzeCacheHitSkipsModel(t *testing.T) {
	cached := Result{Label: LabelNeutral, Score: 0.55}
	cache := &stubCache{store: map[string]Result{"hello": cached}}
	model := &stubModel{result: Result{Label: LabelPositive, Score: 0.9}}
	a := NewAnalyzer(model, WithCache(cache, identityHash, time.Minute))

	got := a.Analyze(context.Background(), "hello")
	if !reflect.DeepEqual(got, cached) {
		t.Errorf("expected cached result %+v, got %+v", cached, got)
	}
	if model.calls != 0 {
		t.Errorf("model should not be called on cache hit, got %d calls", model.calls)
	}
}

func TestAnalyzeCacheFailureIgnored(t *testing.T) {
	cache := &stubCache{fail: true}
	model := &stubModel{result: Result{Label: LabelPositive, Score: 0.9}}
	a := NewAnalyzer(model, WithCache(cache, identityHash, time.Minute))

	got := a.Analyze(context.Background(), "hello")
	if got.Label != LabelPositive {
		t.Errorf("cache failure must not affect result, got %+v", got)
	}
}

func TestAnalyzeBatchIndependent(t *testing.T) {
	a := NewAnalyzer(nil)

	texts := []string{"I hate this", "thanks", "what time is it"}
	results := a.AnalyzeBatch(context.Background(), texts)

	if len(results) != len(texts) {
		t.Fatalf("expected %d results, got %d", len(texts), len(results))
	}

	wantLabels := []string{LabelVeryNegative, LabelPositive, LabelNeutral}
	for i, want := range wantLabels {
		if results[i].Label != want {
			t.Errorf("results[%d].Label = %q, want %q", i, results[i].Label, want)
		}
	}
}
