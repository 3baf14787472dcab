package models

import "time"

type ChatSession struct {
	SessionID           string        `json:"session_id"`
	CustomerID          string        `json:"customer_id,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
	SatisfactionScore   *int          `json:"satisfaction_score,omitempty"`
	SatisfactionComment string        `json:"satisfaction_comment,omitempty"`
	Messages            []ChatMessage `json:"messages"`
}

type ChatMessage struct {
	ID             int       `json:"id,omitempty"`
	SessionID      string    `json:"-"`
	Sender         string    `json:"sender"` // "customer" or "bot"
	Text           string    `json:"text"`
	SentimentLabel string    `json:"sentiment_label,omitempty"`
	SentimentScore float64   `json:"sentiment_score,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type FeedbackRecord struct {
	ID        int                    `json:"id,omitempty"`
	SessionID string                 `json:"session_id"`
	Rating    int                    `json:"rating"`
	Comment   string                 `json:"comment,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type FeedbackStats struct {
	Total         int     `json:"total"`
	AverageRating float64 `json:"average_rating"`
	Last10        int     `json:"last_10"`
}

type Article struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Source    string    `json:"source,omitempty"`
	URL       string    `json:"url,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ArticleChunk struct {
	ID         string    `json:"id"`
	ArticleID  string    `json:"article_id"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}
