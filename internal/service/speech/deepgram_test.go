package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/drivelink/voicebot/internal/config"
	speechmodel "github.com/drivelink/voicebot/internal/model/speech"
)

func speechTestConfig() config.SpeechConfig {
	return config.SpeechConfig{
		DeepgramAPIKey:   "dg-key",
		DeepgramModel:    "nova-2",
		ElevenLabsAPIKey: "el-key",
		VoiceID:          "voice-default",
		TTSModel:         "eleven_turbo_v2_5",
		Timeout:          5 * time.Second,
	}
}

func TestTranscribeAudioParsesTranscript(t *testing.T) {
	var gotAuth, gotContentType, gotPath string
	var gotQuery map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":"does the ariya have awd","confidence":0.97}]}]}}`))
	}))
	defer srv.Close()

	client := NewDeepgramClient(speechTestConfig())
	client.baseURL = srv.URL

	resp, err := client.TranscribeAudio(context.Background(), &speechmodel.ASRRequest{
		SessionID: "sess-1",
		AudioData: strings.NewReader("fake-audio"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Transcript != "does the ariya have awd" {
		t.Fatalf("expected transcript, got %q", resp.Transcript)
	}
	if resp.Confidence != 0.97 {
		t.Fatalf("expected confidence 0.97, got %f", resp.Confidence)
	}
	if gotAuth != "Token dg-key" {
		t.Fatalf("expected Token auth header, got %q", gotAuth)
	}
	if gotContentType != "audio/webm" {
		t.Fatalf("expected default audio/webm content type, got %q", gotContentType)
	}
	if gotPath != "/v1/listen" {
		t.Fatalf("expected /v1/listen path, got %q", gotPath)
	}
	for key, want := range map[string]string{"model": "nova-2", "smart_format": "true", "punctuate": "true"} {
		if got := gotQuery[key]; len(got) != 1 || got[0] != want {
			t.Fatalf("expected query %s=%s, got %v", key, want, got)
		}
	}
}

func TestTranscribeAudioEmptyTranscriptIsValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":"","confidence":0}]}]}}`))
	}))
	defer srv.Close()

	client := NewDeepgramClient(speechTestConfig())
	client.baseURL = srv.URL

	resp, err := client.TranscribeAudio(context.Background(), &speechmodel.ASRRequest{
		SessionID: "sess-1",
		AudioData: strings.NewReader("silence"),
	})
	if err != nil {
		t.Fatalf("expected empty transcript to be a valid result, got %v", err)
	}
	if resp.Transcript != "" {
		t.Fatalf("expected empty transcript, got %q", resp.Transcript)
	}
}

func TestTranscribeAudioUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewDeepgramClient(speechTestConfig())
	client.baseURL = srv.URL

	_, err := client.TranscribeAudio(context.Background(), &speechmodel.ASRRequest{
		SessionID: "sess-1",
		AudioData: strings.NewReader("fake-audio"),
	})
	if err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
