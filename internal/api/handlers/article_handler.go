package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/support-agent/backend/internal/ingestion"
	"github.com/support-agent/backend/internal/retrieval"
	"github.com/support-agent/backend/internal/storage/models"
	"github.com/support-agent/backend/pkg/logger"
)

// ArticleReader fetches stored articles; nil when no store is configured.
type ArticleReader interface {
	GetArticle(id string) (*models.Article, error)
}

// CacheInvalidator drops cached query embeddings after the knowledge base
// changes; nil when no cache is configured.
type CacheInvalidator interface {
	InvalidateRetrievalCache(ctx context.Context) error
}

type ArticleHandler struct {
	processor   *ingestion.Processor
	retriever   retrieval.Retriever
	reader      ArticleReader
	invalidator CacheInvalidator
}

func NewArticleHandler(processor *ingestion.Processor, retriever retrieval.Retriever, reader ArticleReader, invalidator CacheInvalidator) *ArticleHandler {
	return &ArticleHandler{
		processor:   processor,
		retriever:   retriever,
		reader:      reader,
		invalidator: invalidator,
	}
}

func (h *ArticleHandler) Ingest(c *fiber.Ctx) error {
	var inputs []ingestion.ArticleInput

	if err := c.BodyParser(&inputs); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if len(inputs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "at least one article is required",
		})
	}

	ingested, details := h.processor.Process(c.Context(), inputs)

	if ingested > 0 && h.invalidator != nil {
		if err := h.invalidator.InvalidateRetrievalCache(c.Context()); err != nil {
			logger.Warn("Retrieval cache invalidation failed", zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"ingested": ingested,
		"details":  details,
	})
}

func (h *ArticleHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "q is required",
		})
	}

	topK := c.QueryInt("top_k", 5)
	if topK < 1 || topK > 20 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "top_k must be between 1 and 20",
		})
	}

	sources, err := h.retriever.Search(c.Context(), query, topK)
	if err != nil {
		logger.Warn("Search failed, using sentinel source", zap.Error(err))
		sources, _ = retrieval.NewNullRetriever().Search(c.Context(), query, topK)
	}
	if len(sources) > topK {
		sources = sources[:topK]
	}

	return c.JSON(fiber.Map{
		"query":   query,
		"top_k":   topK,
		"results": sources,
	})
}

func (h *ArticleHandler) GetArticle(c *fiber.Ctx) error {
	id := c.Params("id")

	if h.reader == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Article not found",
		})
	}

	article, err := h.reader.GetArticle(id)
	if err != nil {
		logger.Error("Failed to load article", zap.String("article_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load article",
		})
	}

	if article == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Article not found",
		})
	}

	return c.JSON(article)
}
