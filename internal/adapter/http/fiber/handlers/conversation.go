package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/ports"
)

type ConversationHandler struct {
	service ports.ConversationService
	log     *zap.Logger
}

func NewConversationHandler(service ports.ConversationService, log *zap.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		log:     log,
	}
}

type TurnRequest struct {
	SessionID string `json:"session_id"`
	Utterance string `json:"utterance"`
}

// Turn runs one conversational turn. When the caller sends no session_id a
// fresh one is minted, so first-contact clients need no prior handshake.
func (h *ConversationHandler) Turn(c *fiber.Ctx) error {
	var req TurnRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	result, err := h.service.HandleTurn(c.Context(), req.SessionID, req.Utterance)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// Clear removes a session's history. Clearing an unknown session succeeds.
func (h *ConversationHandler) Clear(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	if err := h.service.ClearSession(c.Context(), sessionID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"cleared":    true,
	})
}

// History returns the full turn log for a session, oldest first.
func (h *ConversationHandler) History(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	turns, err := h.service.GetHistory(c.Context(), sessionID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"turns":      turns,
	})
}
