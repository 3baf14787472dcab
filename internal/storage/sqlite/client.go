package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/support-agent/backend/internal/storage/models"
	"github.com/support-agent/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chat_sessions (
		session_id TEXT PRIMARY KEY,
		customer_id TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		satisfaction_score INTEGER,
		satisfaction_comment TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_customer ON chat_sessions(customer_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON chat_sessions(updated_at);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		text TEXT NOT NULL,
		sentiment_label TEXT,
		sentiment_score REAL,
		timestamp INTEGER NOT NULL,
		FOREIGN KEY (session_id) REFERENCES chat_sessions(session_id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON chat_messages(session_id);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		rating INTEGER NOT NULL,
		comment TEXT,
		metadata TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_session ON feedback(session_id);
	CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at);

	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		source TEXT,
		url TEXT,
		tags TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_articles_updated ON articles(updated_at);

	CREATE TABLE IF NOT EXISTS article_chunks (
		id TEXT PRIMARY KEY,
		article_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (article_id) REFERENCES articles(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_article ON article_chunks(article_id);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// AppendExchange upserts the session row and appends the customer and bot
// messages in a single transaction, so a turn is either fully logged or
// not logged at all.
func (c *Client) AppendExchange(sessionID, customerID string, customerMsg, botMsg models.ChatMessage) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()

	_, err = tx.Exec(`
		INSERT INTO chat_sessions (session_id, customer_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET updated_at = excluded.updated_at
	`, sessionID, customerID, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	insertMsg := `
		INSERT INTO chat_messages (session_id, sender, text, sentiment_label, sentiment_score, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(insertMsg,
		sessionID,
		customerMsg.Sender,
		customerMsg.Text,
		customerMsg.SentimentLabel,
		customerMsg.SentimentScore,
		customerMsg.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert customer message: %w", err)
	}

	_, err = tx.Exec(insertMsg,
		sessionID,
		botMsg.Sender,
		botMsg.Text,
		botMsg.SentimentLabel,
		botMsg.SentimentScore,
		botMsg.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert bot message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit exchange: %w", err)
	}

	logger.Debug("Exchange appended", zap.String("session_id", sessionID))
	return nil
}

func (c *Client) GetSession(sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	var createdAt, updatedAt int64
	var customerID, comment sql.NullString
	var score sql.NullInt64

	err := c.db.QueryRow(`
		SELECT session_id, customer_id, created_at, updated_at, satisfaction_score, satisfaction_comment
		FROM chat_sessions WHERE session_id = ?
	`, sessionID).Scan(&session.SessionID, &customerID, &createdAt, &updatedAt, &score, &comment)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.CustomerID = customerID.String
	session.CreatedAt = time.Unix(createdAt, 0)
	session.UpdatedAt = time.Unix(updatedAt, 0)
	session.SatisfactionComment = comment.String
	if score.Valid {
		v := int(score.Int64)
		session.SatisfactionScore = &v
	}

	rows, err := c.db.Query(`
		SELECT id, sender, text, sentiment_label, sentiment_score, timestamp
		FROM chat_messages WHERE session_id = ? ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.ChatMessage
		var ts int64
		var label sql.NullString
		var msgScore sql.NullFloat64

		err := rows.Scan(&m.ID, &m.Sender, &m.Text, &label, &msgScore, &ts)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		m.SessionID = sessionID
		m.SentimentLabel = label.String
		m.SentimentScore = msgScore.Float64
		m.Timestamp = time.Unix(ts, 0)
		session.Messages = append(session.Messages, m)
	}

	return &session, nil
}

func (c *Client) SetSatisfaction(sessionID string, rating int, comment string) error {
	res, err := c.db.Exec(`
		UPDATE chat_sessions SET satisfaction_score = ?, satisfaction_comment = ? WHERE session_id = ?
	`, rating, comment, sessionID)
	if err != nil {
		return fmt.Errorf("failed to set satisfaction: %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		logger.Debug("Satisfaction stamp skipped, unknown session", zap.String("session_id", sessionID))
	}

	return nil
}

func (c *Client) InsertFeedback(record *models.FeedbackRecord) error {
	metadataJSON, _ := json.Marshal(record.Metadata)

	_, err := c.db.Exec(`
		INSERT INTO feedback (session_id, rating, comment, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, record.SessionID, record.Rating, record.Comment, string(metadataJSON), record.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}

	logger.Info("Feedback stored",
		zap.String("session_id", record.SessionID),
		zap.Int("rating", record.Rating),
	)

	return nil
}

func (c *Client) GetFeedbackStats() (*models.FeedbackStats, error) {
	var total int
	var avg sql.NullFloat64

	err := c.db.QueryRow(`SELECT COUNT(*), AVG(rating) FROM feedback`).Scan(&total, &avg)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate feedback: %w", err)
	}

	stats := &models.FeedbackStats{Total: total}
	if avg.Valid {
		stats.AverageRating = avg.Float64
	}
	if total < 10 {
		stats.Last10 = total
	} else {
		stats.Last10 = 10
	}

	return stats, nil
}

func (c *Client) InsertArticle(article *models.Article) error {
	tagsJSON, _ := json.Marshal(article.Tags)

	_, err := c.db.Exec(`
		INSERT INTO articles (id, title, content, source, url, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			updated_at = excluded.updated_at
	`,
		article.ID,
		article.Title,
		article.Content,
		article.Source,
		article.URL,
		string(tagsJSON),
		article.CreatedAt.Unix(),
		article.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}

	logger.Debug("Article inserted", zap.String("article_id", article.ID), zap.String("title", article.Title))
	return nil
}

func (c *Client) InsertChunk(chunk *models.ArticleChunk) error {
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO article_chunks (id, article_id, chunk_index, text, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, chunk.ID, chunk.ArticleID, chunk.ChunkIndex, chunk.Text, chunk.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}

	return nil
}

func (c *Client) GetArticle(id string) (*models.Article, error) {
	var article models.Article
	var tagsJSON sql.NullString
	var source, url sql.NullString
	var createdAt, updatedAt int64

	err := c.db.QueryRow(`
		SELECT id, title, content, source, url, tags, created_at, updated_at
		FROM articles WHERE id = ?
	`, id).Scan(&article.ID, &article.Title, &article.Content, &source, &url, &tagsJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	article.Source = source.String
	article.URL = url.String
	article.CreatedAt = time.Unix(createdAt, 0)
	article.UpdatedAt = time.Unix(updatedAt, 0)
	if tagsJSON.Valid {
		json.Unmarshal([]byte(tagsJSON.String), &article.Tags)
	}

	return &article, nil
}
