package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/ports"
)

type SpeechHandler struct {
	transcriber ports.TranscriptionService
	synthesizer ports.SynthesisService
	log         *zap.Logger
}

func NewSpeechHandler(transcriber ports.TranscriptionService, synthesizer ports.SynthesisService, log *zap.Logger) *SpeechHandler {
	return &SpeechHandler{
		transcriber: transcriber,
		synthesizer: synthesizer,
		log:         log,
	}
}

// Transcribe accepts audio as a multipart "audio" file or as the raw request
// body and returns the recognized text. Unrecognizable audio yields an empty
// transcript, not an error.
func (h *SpeechHandler) Transcribe(c *fiber.Ctx) error {
	audio, contentType, err := h.readAudio(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if len(audio) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No audio data"})
	}

	text, err := h.transcriber.Transcribe(c.Context(), audio, contentType)
	if err != nil {
		h.log.Error("Transcription failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Transcription failed"})
	}

	return c.JSON(fiber.Map{"text": text})
}

type SynthesizeRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

// Synthesize converts text to speech and streams back MP3 audio.
func (h *SpeechHandler) Synthesize(c *fiber.Ctx) error {
	var req SynthesizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Text is required"})
	}

	audio, err := h.synthesizer.Synthesize(c.Context(), req.Text, req.VoiceID)
	if err != nil {
		h.log.Error("Synthesis failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Synthesis failed"})
	}

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.Send(audio)
}

func (h *SpeechHandler) readAudio(c *fiber.Ctx) ([]byte, string, error) {
	if file, err := c.FormFile("audio"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, "", err
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", err
		}
		return data, file.Header.Get(fiber.HeaderContentType), nil
	}

	return c.Body(), c.Get(fiber.HeaderContentType), nil
}
