package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/service/transcript"
)

// StreamHandler exposes chunked live transcription over plain HTTP for
// clients that cannot hold a WebSocket open.
type StreamHandler struct {
	transcripts *transcript.Service
	log         *zap.Logger
}

func NewStreamHandler(transcripts *transcript.Service, log *zap.Logger) *StreamHandler {
	return &StreamHandler{
		transcripts: transcripts,
		log:         log,
	}
}

type StreamStartRequest struct {
	SessionID string `json:"session_id"`
}

// Start opens a streaming session with an empty transcript.
func (h *StreamHandler) Start(c *fiber.Ctx) error {
	var req StreamStartRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	sessionID, err := h.transcripts.Start(req.SessionID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"status":     "streaming",
	})
}

// Chunk feeds one audio chunk into the running transcript.
func (h *StreamHandler) Chunk(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	audio := c.Body()
	if len(audio) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No audio data"})
	}

	partial, full, err := h.transcripts.AppendChunk(c.Context(), sessionID, audio, c.Get(fiber.HeaderContentType))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"partial":    partial,
		"transcript": full,
	})
}

// Status returns the transcript accumulated so far.
func (h *StreamHandler) Status(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	full, err := h.transcripts.Transcript(sessionID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"transcript": full,
	})
}

// Stop closes the stream and returns the final transcript.
func (h *StreamHandler) Stop(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	final, err := h.transcripts.Stop(sessionID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"transcript": final,
		"status":     "stopped",
	})
}
