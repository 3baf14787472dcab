// Package ingestion turns raw help articles into stored, embedded chunks.
package ingestion

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	prose "github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/support-agent/backend/internal/metrics"
	"github.com/support-agent/backend/internal/storage/models"
	"github.com/support-agent/backend/internal/vector/milvus"
	"github.com/support-agent/backend/pkg/logger"
)

type ArticleInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	HTML    string   `json:"html,omitempty"`
	Source  string   `json:"source,omitempty"`
	URL     string   `json:"url,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

type BatchEmbedder interface {
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorStore interface {
	Insert(ctx context.Context, chunks []milvus.ArticleChunk) error
}

type ArticleStore interface {
	InsertArticle(article *models.Article) error
	InsertChunk(chunk *models.ArticleChunk) error
}

type Processor struct {
	db        ArticleStore
	vectorDB  VectorStore
	embedder  BatchEmbedder
	chunkSize int
}

func NewProcessor(db ArticleStore, vectorDB VectorStore, embedder BatchEmbedder) *Processor {
	return &Processor{
		db:        db,
		vectorDB:  vectorDB,
		embedder:  embedder,
		chunkSize: 1000,
	}
}

// Process ingests a batch of articles. Articles that fail are skipped with a
// detail note; the batch never aborts as a whole.
func (p *Processor) Process(ctx context.Context, inputs []ArticleInput) (int, []string) {
	ingested := 0
	details := make([]string, 0, len(inputs))

	for _, input := range inputs {
		chunkCount, err := p.processOne(ctx, input)
		if err != nil {
			logger.Warn("Article skipped", zap.String("title", input.Title), zap.Error(err))
			details = append(details, fmt.Sprintf("%s: %v", input.Title, err))
			continue
		}
		ingested++
		details = append(details, fmt.Sprintf("%s: ok (%d chunks)", input.Title, chunkCount))
		metrics.ArticlesIngested.Inc()
	}

	logger.Info("Article batch processed",
		zap.Int("ingested", ingested),
		zap.Int("total", len(inputs)),
	)

	return ingested, details
}

func (p *Processor) processOne(ctx context.Context, input ArticleInput) (int, error) {
	content := input.Content
	if content == "" && input.HTML != "" {
		content = CleanHTML(input.HTML)
	}
	if input.Title == "" || content == "" {
		return 0, fmt.Errorf("title and content are required")
	}

	now := time.Now()
	article := &models.Article{
		ID:        uuid.NewString(),
		Title:     input.Title,
		Content:   content,
		Source:    input.Source,
		URL:       input.URL,
		Tags:      input.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if p.db != nil {
		if err := p.db.InsertArticle(article); err != nil {
			return 0, fmt.Errorf("failed to store article: %w", err)
		}
	}

	chunks := p.chunkText(content)

	if p.db != nil {
		for i, text := range chunks {
			chunk := &models.ArticleChunk{
				ID:         fmt.Sprintf("%s_chunk_%d", article.ID, i),
				ArticleID:  article.ID,
				ChunkIndex: i,
				Text:       text,
				CreatedAt:  now,
			}
			if err := p.db.InsertChunk(chunk); err != nil {
				logger.Warn("Chunk store failed", zap.String("chunk_id", chunk.ID), zap.Error(err))
			}
		}
	}

	if p.embedder == nil || p.vectorDB == nil {
		// No vector path configured: the article is stored raw and will not
		// be retrievable until embedding is enabled.
		logger.Debug("Vector path not configured, stored raw only", zap.String("article_id", article.ID))
		return len(chunks), nil
	}

	embeddings, err := p.embedder.GenerateBatchEmbeddings(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(embeddings), len(chunks))
	}

	vectorChunks := make([]milvus.ArticleChunk, 0, len(chunks))
	for i, text := range chunks {
		vectorChunks = append(vectorChunks, milvus.ArticleChunk{
			ID:        fmt.Sprintf("%s_chunk_%d", article.ID, i),
			Embedding: embeddings[i],
			Text:      text,
			Title:     article.Title,
			ArticleID: article.ID,
			URL:       article.URL,
			Timestamp: now,
		})
	}

	if err := p.vectorDB.Insert(ctx, vectorChunks); err != nil {
		return 0, fmt.Errorf("failed to insert into vector DB: %w", err)
	}

	logger.Info("Article ingested",
		zap.String("article_id", article.ID),
		zap.String("title", article.Title),
		zap.Int("chunks", len(vectorChunks)),
	)

	return len(vectorChunks), nil
}

// chunkText splits content into chunks of roughly chunkSize bytes on
// sentence boundaries. A sentence longer than the budget becomes a chunk
// of its own.
func (p *Processor) chunkText(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+len(sentence)+1 > p.chunkSize {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(sentence)
		current.WriteString(" ")
	}

	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	return chunks
}

func splitSentences(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		// Tokenizer failure: fall back to whitespace-normalized text as one
		// sentence stream split on periods.
		logger.Debug("Sentence tokenizer failed, using naive split", zap.Error(err))
		return naiveSentences(text)
	}

	sentences := make([]string, 0)
	for _, s := range doc.Sentences() {
		trimmed := strings.TrimSpace(s.Text)
		if trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

func naiveSentences(text string) []string {
	parts := strings.Split(text, ". ")
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanHTML strips markup and chrome from an HTML article body.
func CleanHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer, header, aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Find("body").Text()
	text = whitespaceRe.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
