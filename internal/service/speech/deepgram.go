package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/drivelink/voicebot/internal/config"
	"github.com/drivelink/voicebot/internal/model/speech"
)

const defaultDeepgramURL = "https://api.deepgram.com"

// DeepgramClient transcribes recorded audio through the Deepgram
// pre-recorded listen endpoint.
type DeepgramClient struct {
	cfg        config.SpeechConfig
	baseURL    string
	httpClient *http.Client
}

// NewDeepgramClient creates a Deepgram speech-to-text client.
func NewDeepgramClient(cfg config.SpeechConfig) *DeepgramClient {
	return &DeepgramClient{
		cfg:        cfg,
		baseURL:    defaultDeepgramURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// deepgramResponse mirrors the subset of the listen response we consume.
type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// TranscribeAudio sends one utterance of audio and returns its transcript.
// An empty transcript is a valid result, not an error.
func (c *DeepgramClient) TranscribeAudio(ctx context.Context, req *speech.ASRRequest) (*speech.ASRResponse, error) {
	query := url.Values{}
	query.Set("model", c.cfg.DeepgramModel)
	query.Set("smart_format", "true")
	query.Set("punctuate", "true")

	endpoint := fmt.Sprintf("%s/v1/listen?%s", c.baseURL, query.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, req.AudioData)
	if err != nil {
		return nil, fmt.Errorf("build transcribe request: %w", err)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "audio/webm"
	}
	httpReq.Header.Set("Authorization", "Token "+c.cfg.DeepgramAPIKey)
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("deepgram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("[speech] deepgram status=%d body=%s", resp.StatusCode, body)
		return nil, fmt.Errorf("deepgram returned status %d", resp.StatusCode)
	}

	var parsed deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode deepgram response: %w", err)
	}

	out := &speech.ASRResponse{
		SessionID: req.SessionID,
		CreatedAt: time.Now().UTC(),
	}
	if len(parsed.Results.Channels) > 0 && len(parsed.Results.Channels[0].Alternatives) > 0 {
		alt := parsed.Results.Channels[0].Alternatives[0]
		out.Transcript = alt.Transcript
		out.Confidence = alt.Confidence
	}
	return out, nil
}
