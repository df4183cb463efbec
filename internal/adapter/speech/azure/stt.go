package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/ports"
	"github.com/seu-repo/conversia/pkg/config"
)

// Transcriber implements ports.TranscriptionService against the Azure Speech
// short-audio REST API.
type Transcriber struct {
	apiKey     string
	region     string
	language   string
	httpClient *http.Client
	log        *zap.Logger
}

func NewTranscriber(cfg config.AzureSpeechConfig, log *zap.Logger) *Transcriber {
	language := cfg.Language
	if language == "" {
		language = "en-US"
	}
	return &Transcriber{
		apiKey:     cfg.APIKey,
		region:     cfg.Region,
		language:   language,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
}

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	if t.apiKey == "" || t.region == "" {
		return "", fmt.Errorf("azure speech: not configured")
	}
	if contentType == "" {
		contentType = "audio/wav; codecs=audio/pcm; samplerate=16000"
	}

	endpoint := fmt.Sprintf(
		"https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1?language=%s",
		t.region, url.QueryEscape(t.language),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("azure speech: build request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", t.apiKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("azure speech: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("azure speech: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.log.Error("Azure Speech API error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return "", fmt.Errorf("azure speech: unexpected status %d", resp.StatusCode)
	}

	var result recognitionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("azure speech: decode response: %w", err)
	}

	if result.RecognitionStatus != "Success" {
		t.log.Warn("No speech recognized", zap.String("status", result.RecognitionStatus))
		return "", nil
	}

	t.log.Info("Audio transcribed", zap.Int("chars", len(result.DisplayText)))
	return result.DisplayText, nil
}

var _ ports.TranscriptionService = (*Transcriber)(nil)
