package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/support-agent/backend/internal/escalation"
	"github.com/support-agent/backend/pkg/logger"
)

type EscalationHandler struct {
	predictor *escalation.Predictor
}

func NewEscalationHandler(predictor *escalation.Predictor) *EscalationHandler {
	return &EscalationHandler{
		predictor: predictor,
	}
}

func (h *EscalationHandler) Predict(c *fiber.Ctx) error {
	var req struct {
		Text    string   `json:"text"`
		History []string `json:"history"`
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

	result := h.predictor.Predict(c.Context(), req.Text, req.History)

	return c.JSON(result)
}

func (h *EscalationHandler) Rules(c *fiber.Ctx) error {
	return c.JSON(h.predictor.Rules())
}
