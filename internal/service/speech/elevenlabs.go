package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/drivelink/voicebot/internal/config"
	"github.com/drivelink/voicebot/internal/model/speech"
)

const defaultElevenLabsURL = "https://api.elevenlabs.io"

// ElevenLabsClient synthesizes speech through the ElevenLabs text-to-speech
// endpoints, buffered or streamed.
type ElevenLabsClient struct {
	cfg        config.SpeechConfig
	baseURL    string
	httpClient *http.Client
}

// NewElevenLabsClient creates an ElevenLabs text-to-speech client.
func NewElevenLabsClient(cfg config.SpeechConfig) *ElevenLabsClient {
	return &ElevenLabsClient{
		cfg:        cfg,
		baseURL:    defaultElevenLabsURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type elevenLabsRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id"`
	VoiceSettings *elevenLabsVoicing `json:"voice_settings,omitempty"`
}

type elevenLabsVoicing struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	SpeakerBoost    bool    `json:"use_speaker_boost"`
}

// SynthesizeSpeech converts text into a complete mp3 clip.
func (c *ElevenLabsClient) SynthesizeSpeech(ctx context.Context, req *speech.TTSRequest) (*speech.TTSResponse, error) {
	resp, err := c.post(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis body: %w", err)
	}

	return &speech.TTSResponse{
		SessionID: req.SessionID,
		AudioData: audio,
		Format:    "mp3",
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SynthesizeStream converts text into an mp3 byte stream. The caller owns
// the returned body and must close it.
func (c *ElevenLabsClient) SynthesizeStream(ctx context.Context, req *speech.TTSRequest) (io.ReadCloser, error) {
	resp, err := c.post(ctx, req, true)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *ElevenLabsClient) post(ctx context.Context, req *speech.TTSRequest, streaming bool) (*http.Response, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("synthesis text is empty")
	}

	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = c.cfg.VoiceID
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, voiceID)
	if streaming {
		endpoint += "/stream"
	}

	payload, err := json.Marshal(elevenLabsRequest{
		Text:    req.Text,
		ModelID: c.cfg.TTSModel,
		VoiceSettings: &elevenLabsVoicing{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.0,
			SpeakerBoost:    true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build synthesis request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", c.cfg.ElevenLabsAPIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		log.Printf("[speech] elevenlabs status=%d body=%s", resp.StatusCode, body)
		return nil, fmt.Errorf("elevenlabs returned status %d", resp.StatusCode)
	}
	return resp, nil
}
