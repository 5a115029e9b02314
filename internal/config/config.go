package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every service setting, all sourced from environment
// variables (a .env file is loaded by the entrypoints before Load runs).
type Config struct {
	Server    ServerConfig
	Assistant AssistantConfig
	Speech    SpeechConfig
	Telephony TelephonyConfig
	Ingest    IngestConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	assistant, err := loadAssistantConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	telephony := loadTelephonyConfig()
	ingest := loadIngestConfig()

	return &Config{
		Server:    server,
		Assistant: assistant,
		Speech:    speech,
		Telephony: telephony,
		Ingest:    ingest,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AssistantConfig describes the language-model collaborator.
type AssistantConfig struct {
	APIKey         string
	AssistantID    string
	BaseURL        string
	StreamResponse bool
	Timeout        time.Duration
}

// Enabled reports whether the required assistant credentials are present.
func (c AssistantConfig) Enabled() bool {
	return c.APIKey != "" && c.AssistantID != ""
}

func loadAssistantConfig() (AssistantConfig, error) {
	stream, err := parseBoolEnv("ASSISTANT_STREAM", true)
	if err != nil {
		return AssistantConfig{}, err
	}

	timeout, err := parseTimeoutEnv("ASSISTANT_TIMEOUT", 60*time.Second)
	if err != nil {
		return AssistantConfig{}, err
	}

	return AssistantConfig{
		APIKey:         strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		AssistantID:    strings.TrimSpace(os.Getenv("OPENAI_ASSISTANT_ID")),
		BaseURL:        strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		StreamResponse: stream,
		Timeout:        timeout,
	}, nil
}

// SpeechConfig describes the speech-to-text and text-to-speech collaborators.
type SpeechConfig struct {
	DeepgramAPIKey   string
	DeepgramModel    string
	ElevenLabsAPIKey string
	VoiceID          string
	TTSModel         string
	Timeout          time.Duration
}

// Enabled reports whether both voice collaborators are configured.
func (c SpeechConfig) Enabled() bool {
	return c.DeepgramAPIKey != "" && c.ElevenLabsAPIKey != ""
}

func loadSpeechConfig() (SpeechConfig, error) {
	timeout, err := parseTimeoutEnv("SPEECH_TIMEOUT", 30*time.Second)
	if err != nil {
		return SpeechConfig{}, err
	}

	return SpeechConfig{
		DeepgramAPIKey:   strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
		DeepgramModel:    getEnvOrDefault("DEEPGRAM_MODEL", "nova-2"),
		ElevenLabsAPIKey: strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
		VoiceID:          getEnvOrDefault("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		TTSModel:         getEnvOrDefault("ELEVENLABS_MODEL_ID", "eleven_turbo_v2_5"),
		Timeout:          timeout,
	}, nil
}

// TelephonyConfig describes the outbound-call collaborator.
type TelephonyConfig struct {
	APIKey        string
	PhoneNumberID string
	BaseURL       string
}

// Enabled reports whether outbound calling is configured.
func (c TelephonyConfig) Enabled() bool {
	return c.APIKey != "" && c.PhoneNumberID != ""
}

func loadTelephonyConfig() TelephonyConfig {
	return TelephonyConfig{
		APIKey:        strings.TrimSpace(os.Getenv("VAPI_API_KEY")),
		PhoneNumberID: strings.TrimSpace(os.Getenv("VAPI_PHONE_NUMBER_ID")),
		BaseURL:       getEnvOrDefault("VAPI_BASE_URL", "https://api.vapi.ai"),
	}
}

// IngestConfig describes the offline knowledge-base ingestion tooling.
type IngestConfig struct {
	FirecrawlAPIKey string
	FirecrawlURL    string
	VectorStoreID   string
}

func loadIngestConfig() IngestConfig {
	return IngestConfig{
		FirecrawlAPIKey: strings.TrimSpace(os.Getenv("FIRECRAWL_API_KEY")),
		FirecrawlURL:    getEnvOrDefault("FIRECRAWL_BASE_URL", "https://api.firecrawl.dev"),
		VectorStoreID:   strings.TrimSpace(os.Getenv("OPENAI_VECTOR_STORE_ID")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

// parseTimeoutEnv reads a timeout in seconds, falling back to a default.
func parseTimeoutEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: expected positive seconds", key, raw)
	}
	return time.Duration(seconds) * time.Second, nil
}
