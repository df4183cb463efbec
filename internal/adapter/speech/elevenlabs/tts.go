package elevenlabs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/observability/telemetry"
	"github.com/seu-repo/conversia/internal/ports"
	"github.com/seu-repo/conversia/pkg/config"
)

const defaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

// Synthesizer implements ports.SynthesisService against the ElevenLabs
// text-to-speech API. Synthesized audio is cached by text+voice hash so
// repeated replies (fallbacks in particular) skip the provider entirely.
type Synthesizer struct {
	apiKey     string
	voiceID    string
	model      string
	cache      ports.Cache
	cacheTTL   time.Duration
	httpClient *http.Client
	log        *zap.Logger
}

func NewSynthesizer(cfg config.ElevenLabsConfig, cache ports.Cache, cacheTTL time.Duration, log *zap.Logger) *Synthesizer {
	voiceID := cfg.VoiceID
	if voiceID == "" {
		voiceID = defaultVoiceID
	}
	model := cfg.Model
	if model == "" {
		model = "eleven_turbo_v2_5"
	}
	return &Synthesizer{
		apiKey:     cfg.APIKey,
		voiceID:    voiceID,
		model:      model,
		cache:      cache,
		cacheTTL:   cacheTTL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("elevenlabs: not configured")
	}
	if voiceID == "" {
		voiceID = s.voiceID
	}

	cacheKey := audioCacheKey(text, voiceID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			if audio, err := base64.StdEncoding.DecodeString(cached); err == nil {
				telemetry.SynthesisCacheHits.WithLabelValues("hit").Inc()
				s.log.Debug("TTS cache hit", zap.String("voice_id", voiceID))
				return audio, nil
			}
		}
		telemetry.SynthesisCacheHits.WithLabelValues("miss").Inc()
	}

	payload, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: s.model,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.5,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal request: %w", err)
	}

	endpoint := "https://api.elevenlabs.io/v1/text-to-speech/" + voiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: build request: %w", err)
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		s.log.Error("ElevenLabs API error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, fmt.Errorf("elevenlabs: unexpected status %d", resp.StatusCode)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, base64.StdEncoding.EncodeToString(body), s.cacheTTL); err != nil {
			s.log.Warn("Failed to cache synthesized audio", zap.Error(err))
		}
	}

	s.log.Info("Text synthesized", zap.String("voice_id", voiceID), zap.Int("bytes", len(body)))
	return body, nil
}

func audioCacheKey(text, voiceID string) string {
	sum := sha256.Sum256([]byte(voiceID + "\x00" + text))
	return "tts:audio:" + hex.EncodeToString(sum[:])
}

var _ ports.SynthesisService = (*Synthesizer)(nil)
