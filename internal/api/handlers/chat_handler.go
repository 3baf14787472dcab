package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/support-agent/backend/internal/chat"
	"github.com/support-agent/backend/pkg/logger"
)

type ChatHandler struct {
	orchestrator *chat.Orchestrator
}

func NewChatHandler(orchestrator *chat.Orchestrator) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
	}
}

func (h *ChatHandler) Respond(c *fiber.Ctx) error {
	var req struct {
		CustomerID    string                 `json:"customer_id"`
		SessionID     string                 `json:"session_id"`
		Text          string                 `json:"text"`
		TopK          int                    `json:"top_k"`
		PreferredTone string                 `json:"preferred_tone"`
		Metadata      map[string]interface{} `json:"metadata"`
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

	result, err := h.orchestrator.Respond(c.Context(), chat.TurnRequest{
		CustomerID:    req.CustomerID,
		SessionID:     req.SessionID,
		Text:          req.Text,
		TopK:          req.TopK,
		PreferredTone: req.PreferredTone,
		Metadata:      req.Metadata,
	})
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		logger.Error("Failed to process turn", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process message",
		})
	}

	return c.JSON(result)
}

func (h *ChatHandler) GetSession(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	session, err := h.orchestrator.Session(sessionID)
	if err != nil {
		logger.Error("Failed to load session", zap.String("session_id", sessionID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load session",
		})
	}

	if session == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	return c.JSON(session)
}
