package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/support-agent/backend/internal/sentiment"
	"github.com/support-agent/backend/pkg/logger"
)

type SentimentHandler struct {
	analyzer *sentiment.Analyzer
}

func NewSentimentHandler(analyzer *sentiment.Analyzer) *SentimentHandler {
	return &SentimentHandler{
		analyzer: analyzer,
	}
}

func (h *SentimentHandler) Analyze(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

	result := h.analyzer.Analyze(c.Context(), req.Text)

	return c.JSON(result)
}

func (h *SentimentHandler) AnalyzeBatch(c *fiber.Ctx) error {
	var req struct {
		Texts []string `json:"texts"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if len(req.Texts) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "texts is required",
		})
	}

	results := h.analyzer.AnalyzeBatch(c.Context(), req.Texts)

	return c.JSON(fiber.Map{
		"results": results,
	})
}
