package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/support-agent/backend/internal/feedback"
	"github.com/support-agent/backend/pkg/logger"
)

type FeedbackHandler struct {
	service *feedback.Service
}

func NewFeedbackHandler(service *feedback.Service) *FeedbackHandler {
	return &FeedbackHandler{
		service: service,
	}
}

func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	var req struct {
		SessionID string                 `json:"session_id"`
		Rating    int                    `json:"rating"`
		Comment   string                 `json:"comment"`
		Metadata  map[string]interface{} `json:"metadata"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}

	ack, err := h.service.Submit(req.SessionID, req.Rating, req.Comment, req.Metadata)
	if err != nil {
		if errors.Is(err, feedback.ErrInvalidRating) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		logger.Error("Failed to submit feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to submit feedback",
		})
	}

	return c.JSON(ack)
}

func (h *FeedbackHandler) Aggregates(c *fiber.Ctx) error {
	return c.JSON(h.service.Aggregates())
}
