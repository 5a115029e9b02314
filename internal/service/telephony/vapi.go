package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/drivelink/voicebot/internal/config"
)

// ErrNotConfigured is returned when outbound calling credentials are missing.
var ErrNotConfigured = errors.New("telephony service not configured")

// assistantFirstMessage opens every outbound call.
const assistantFirstMessage = "Hi! This is the DriveLink assistant calling. How can I help you with your vehicle today?"

// assistantSystemPrompt steers the inline call agent.
const assistantSystemPrompt = "You are a friendly automotive assistant on a phone call. " +
	"Answer questions about vehicles, features, and maintenance. " +
	"Keep answers short and conversational, suitable for speech."

// Service places outbound phone calls through the Vapi call API with an
// inline assistant definition, so no agent has to be pre-provisioned.
type Service struct {
	cfg        config.TelephonyConfig
	baseURL    string
	httpClient *http.Client
}

// NewService creates the telephony service. It returns ErrNotConfigured when
// the API key or phone number id is absent.
func NewService(cfg config.TelephonyConfig) (*Service, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	return &Service{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type callRequest struct {
	PhoneNumberID string       `json:"phoneNumberId"`
	Customer      callCustomer `json:"customer"`
	Assistant     callAgent    `json:"assistant"`
}

type callCustomer struct {
	Number string `json:"number"`
}

type callAgent struct {
	FirstMessage string    `json:"firstMessage"`
	Model        callModel `json:"model"`
}

type callModel struct {
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Messages []callMessage `json:"messages"`
}

type callMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type callResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// PlaceCall dials phoneNumber and returns the provider call id.
func (s *Service) PlaceCall(ctx context.Context, phoneNumber string) (string, error) {
	if strings.TrimSpace(phoneNumber) == "" {
		return "", fmt.Errorf("phone number is empty")
	}

	payload, err := json.Marshal(callRequest{
		PhoneNumberID: s.cfg.PhoneNumberID,
		Customer:      callCustomer{Number: phoneNumber},
		Assistant: callAgent{
			FirstMessage: assistantFirstMessage,
			Model: callModel{
				Provider: "openai",
				Model:    "gpt-4o-mini",
				Messages: []callMessage{
					{Role: "system", Content: assistantSystemPrompt},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal call request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/call", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build call request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("vapi request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("[telephony] vapi status=%d body=%s", resp.StatusCode, body)
		return "", fmt.Errorf("vapi returned status %d", resp.StatusCode)
	}

	var parsed callResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode vapi response: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("vapi response missing call id")
	}

	log.Printf("[telephony] call placed id=%s status=%s", parsed.ID, parsed.Status)
	return parsed.ID, nil
}
