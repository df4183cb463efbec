package websocket

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/ports"
)

// ConverseHandler runs full voice turns over one WebSocket connection.
// Binary frames carry caller audio; text frames carry a JSON TurnMessage.
// Either way the reply goes back as JSON, with synthesized audio inlined
// as base64 when a synthesizer is configured.
type ConverseHandler struct {
	conversation ports.ConversationService
	transcriber  ports.TranscriptionService
	synthesizer  ports.SynthesisService
	log          *zap.Logger
}

func NewConverseHandler(
	conversation ports.ConversationService,
	transcriber ports.TranscriptionService,
	synthesizer ports.SynthesisService,
	log *zap.Logger,
) *ConverseHandler {
	return &ConverseHandler{
		conversation: conversation,
		transcriber:  transcriber,
		synthesizer:  synthesizer,
		log:          log,
	}
}

type TurnMessage struct {
	SessionID string `json:"session_id"`
	Utterance string `json:"utterance"`
}

type TurnReply struct {
	SessionID  string  `json:"session_id"`
	Utterance  string  `json:"utterance"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reply      string  `json:"reply"`
	Audio      string  `json:"audio,omitempty"` // Base64 MP3
}

type errorReply struct {
	Error string `json:"error"`
}

// HandleConverse drives the per-connection turn loop. The session sticks to
// the connection: the first message fixes the session id for all that follow.
func (h *ConverseHandler) HandleConverse(c *websocket.Conn) {
	ctx := context.Background()
	sessionID := uuid.NewString()

	for {
		messageType, data, err := c.ReadMessage()
		if err != nil {
			break
		}

		var utterance string

		switch messageType {
		case websocket.BinaryMessage:
			utterance, err = h.transcriber.Transcribe(ctx, data, "audio/wav")
			if err != nil {
				h.log.Warn("Transcription failed on stream", zap.Error(err))
				h.writeError(c, "transcription failed")
				continue
			}
			if utterance == "" {
				h.writeError(c, "no speech recognized")
				continue
			}

		case websocket.TextMessage:
			var msg TurnMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				h.writeError(c, "invalid message")
				continue
			}
			if msg.SessionID != "" {
				sessionID = msg.SessionID
			}
			utterance = msg.Utterance

		default:
			continue
		}

		result, err := h.conversation.HandleTurn(ctx, sessionID, utterance)
		if err != nil {
			h.writeError(c, err.Error())
			continue
		}

		reply := TurnReply{
			SessionID:  result.SessionID,
			Utterance:  utterance,
			Intent:     string(result.Intent),
			Confidence: result.Confidence,
			Reply:      result.Reply,
		}

		if h.synthesizer != nil {
			if audio, err := h.synthesizer.Synthesize(ctx, result.Reply, ""); err == nil {
				reply.Audio = base64.StdEncoding.EncodeToString(audio)
			} else {
				h.log.Warn("Synthesis failed on stream", zap.Error(err))
			}
		}

		payload, _ := json.Marshal(reply)
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			break
		}
	}
}

func (h *ConverseHandler) writeError(c *websocket.Conn, msg string) {
	payload, _ := json.Marshal(errorReply{Error: msg})
	c.WriteMessage(websocket.TextMessage, payload)
}

// SetupRoutes registers the WebSocket endpoints.
func SetupRoutes(app *fiber.App, converse *ConverseHandler, hub *Hub) {
	upgrade := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	app.Use("/ws/converse", upgrade)
	app.Get("/ws/converse", websocket.New(converse.HandleConverse))

	app.Use("/ws/events", upgrade)
	app.Get("/ws/events", websocket.New(func(c *websocket.Conn) {
		hub.AddClient(c)
	}))
}
