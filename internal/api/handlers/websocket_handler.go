package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/support-agent/backend/internal/chat"
	"github.com/support-agent/backend/pkg/logger"
)

type WebSocketHandler struct {
	orchestrator *chat.Orchestrator
}

func NewWebSocketHandler(orchestrator *chat.Orchestrator) *WebSocketHandler {
	return &WebSocketHandler{
		orchestrator: orchestrator,
	}
}

// HandleConnection runs chat turns over a websocket, streaming the reply in
// word chunks followed by a complete frame with the full turn result.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	// Session identity survives across messages on one connection.
	sessionID := ""

	for {
		var msg struct {
			Type       string `json:"type"`
			Content    string `json:"content"`
			SessionID  string `json:"session_id"`
			CustomerID string `json:"customer_id"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "message" {
			continue
		}

		if msg.SessionID != "" {
			sessionID = msg.SessionID
		}

		result, err := h.runTurn(c, msg.Content, sessionID, msg.CustomerID)
		if err != nil {
			h.sendError(c, "Failed to process message")
			continue
		}
		sessionID = result.SessionID
	}
}

func (h *WebSocketHandler) runTurn(c *websocket.Conn, text, sessionID, customerID string) (*chat.TurnResult, error) {
	h.sendFrame(c, "status", "Thinking...")

	result, err := h.orchestrator.Respond(context.Background(), chat.TurnRequest{
		Text:       text,
		SessionID:  sessionID,
		CustomerID: customerID,
	})
	if err != nil {
		return nil, err
	}

	words := strings.Fields(result.Reply)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}
		if err := h.sendFrame(c, "chunk", chunk); err != nil {
			return nil, err
		}
	}

	err = c.WriteJSON(map[string]interface{}{
		"type":       "complete",
		"session_id": result.SessionID,
		"sentiment":  result.Sentiment,
		"escalation": result.Escalation,
		"sources":    result.Sources,
		"created_at": result.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (h *WebSocketHandler) sendFrame(c *websocket.Conn, msgType, content string) error {
	return c.WriteJSON(map[string]interface{}{
		"type":    msgType,
		"content": content,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
