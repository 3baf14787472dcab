package feedback

import (
	"errors"
	"testing"

	"github.com/support-agent/backend/internal/storage/models"
)

type stubStore struct {
	records     []*models.FeedbackRecord
	stats       *models.FeedbackStats
	insertErr   error
	statsErr    error
	satisfErr   error
	stampedID   string
	stampRating int
}

func (s *stubStore) InsertFeedback(record *models.FeedbackRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.records = append(s.records, record)
	return nil
}

func (s *stubStore) GetFeedbackStats() (*models.FeedbackStats, error) {
	return s.stats, s.statsErr
}

func (s *stubStore) SetSatisfaction(sessionID string, rating int, _ string) error {
	if s.satisfErr != nil {
		return s.satisfErr
	}
	s.stampedID = sessionID
	s.stampRating = rating
	return nil
}

func TestSubmitValidRating(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store)

	ack, err := svc.Submit("sess_1", 4, "helpful", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ack.OK || ack.SessionID != "sess_1" {
		t.Errorf("unexpected ack: %+v", ack)
	}
	if ack.StoredAt.IsZero() {
		t.Error("ack missing stored_at timestamp")
	}
	if len(store.records) != 1 || store.records[0].Rating != 4 {
		t.Fatalf("record not stored: %+v", store.records)
	}
	if store.stampedID != "sess_1" || store.stampRating != 4 {
		t.Errorf("session not stamped: id=%q rating=%d", store.stampedID, store.stampRating)
	}
}

func TestSubmitInvalidRating(t *testing.T) {
	svc := NewService(&stubStore{})

	for _, rating := range []int{0, -1, 6, 100} {
		if _, err := svc.Submit("sess_1", rating, "", nil); !errors.Is(err, ErrInvalidRating) {
			t.Errorf("rating %d: err = %v, want ErrInvalidRating", rating, err)
		}
	}
}

func TestSubmitStoreFailureStillAcks(t *testing.T) {
	store := &stubStore{insertErr: errors.New("db locked")}
	svc := NewService(store)

	ack, err := svc.Submit("sess_1", 5, "", nil)
	if err != nil {
		t.Fatalf("store failure must not surface: %v", err)
	}
	if !ack.OK {
		t.Error("ack must be positive even when the store is down")
	}
}

func TestSubmitNilStore(t *testing.T) {
	svc := NewService(nil)

	ack, err := svc.Submit("sess_1", 3, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ack.OK {
		t.Error("ack must be positive without a store")
	}
}

func TestAggregatesRounding(t *testing.T) {
	store := &stubStore{stats: &models.FeedbackStats{Total: 3, AverageRating: 3.666666, Last10: 3}}
	svc := NewService(store)

	stats := svc.Aggregates()
	if stats.AverageRating != 3.67 {
		t.Errorf("average = %v, want 3.67", stats.AverageRating)
	}
	if stats.Total != 3 || stats.Last10 != 3 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestAggregatesZeroedOnFailure(t *testing.T) {
	tests := []struct {
		name string
		svc  *Service
	}{
		{"nil store", NewService(nil)},
		{"store error", NewService(&stubStore{statsErr: errors.New("db gone")})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := tt.svc.Aggregates()
			if stats.Total != 0 || stats.AverageRating != 0 || stats.Last10 != 0 {
				t.Errorf("expected zeroed stats, got %+v", stats)
			}
		})
	}
}
