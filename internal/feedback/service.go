// Package feedback records post-hoc satisfaction ratings. Feedback is
// telemetry: writes soft-fail and reads zero out rather than surface errors.
package feedback

import (
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/support-agent/backend/internal/metrics"
	"github.com/support-agent/backend/internal/storage/models"
	"github.com/support-agent/backend/pkg/logger"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

type Store interface {
	InsertFeedback(record *models.FeedbackRecord) error
	GetFeedbackStats() (*models.FeedbackStats, error)
	SetSatisfaction(sessionID string, rating int, comment string) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type Ack struct {
	OK        bool      `json:"ok"`
	SessionID string    `json:"session_id"`
	StoredAt  time.Time `json:"stored_at"`
}

// Submit validates the rating, then stores the record and stamps the session,
// both best-effort. The ack is positive even when the store is down.
func (s *Service) Submit(sessionID string, rating int, comment string, metadata map[string]interface{}) (*Ack, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	storedAt := time.Now().UTC()

	if s.store != nil {
		record := &models.FeedbackRecord{
			SessionID: sessionID,
			Rating:    rating,
			Comment:   comment,
			Metadata:  metadata,
			CreatedAt: storedAt,
		}

		if err := s.store.InsertFeedback(record); err != nil {
			logger.Warn("Feedback write failed", zap.String("session_id", sessionID), zap.Error(err))
		} else if err := s.store.SetSatisfaction(sessionID, rating, comment); err != nil {
			logger.Debug("Session satisfaction stamp failed", zap.Error(err))
		}
	}

	metrics.FeedbackRatings.Observe(float64(rating))

	return &Ack{OK: true, SessionID: sessionID, StoredAt: storedAt}, nil
}

// Aggregates returns count, mean rating rounded to 2 decimals, and the size
// of the trailing window, zeroed when the store is empty or unavailable.
func (s *Service) Aggregates() *models.FeedbackStats {
	if s.store == nil {
		return &models.FeedbackStats{}
	}

	stats, err := s.store.GetFeedbackStats()
	if err != nil {
		logger.Warn("Feedback aggregate read failed", zap.Error(err))
		return &models.FeedbackStats{}
	}

	stats.AverageRating = math.Round(stats.AverageRating*100) / 100
	return stats
}
