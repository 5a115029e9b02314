package speech

import (
	"bytes"
	"context"
	"io"

	"github.com/drivelink/voicebot/internal/config"
	"github.com/drivelink/voicebot/internal/model/speech"
)

// Service fronts the speech-to-text and text-to-speech collaborators.
type Service struct {
	cfg       config.SpeechConfig
	asrClient *DeepgramClient
	ttsClient *ElevenLabsClient
}

// NewService creates the speech service.
func NewService(cfg config.SpeechConfig) *Service {
	return &Service{
		cfg:       cfg,
		asrClient: NewDeepgramClient(cfg),
		ttsClient: NewElevenLabsClient(cfg),
	}
}

// TranscribeAudio runs speech-to-text for one utterance.
func (s *Service) TranscribeAudio(ctx context.Context, req *speech.ASRRequest) (*speech.ASRResponse, error) {
	return s.asrClient.TranscribeAudio(ctx, req)
}

// SynthesizeSpeech runs text-to-speech and returns the full clip.
func (s *Service) SynthesizeSpeech(ctx context.Context, req *speech.TTSRequest) (*speech.TTSResponse, error) {
	return s.ttsClient.SynthesizeSpeech(ctx, req)
}

// SynthesizeStream runs text-to-speech as a byte stream.
func (s *Service) SynthesizeStream(ctx context.Context, req *speech.TTSRequest) (io.ReadCloser, error) {
	return s.ttsClient.SynthesizeStream(ctx, req)
}

// TranscribeBuffer transcribes an in-memory audio clip.
func (s *Service) TranscribeBuffer(ctx context.Context, sessionID string, audio []byte, contentType string) (*speech.ASRResponse, error) {
	req := &speech.ASRRequest{
		SessionID:   sessionID,
		AudioData:   bytes.NewReader(audio),
		ContentType: contentType,
	}
	return s.TranscribeAudio(ctx, req)
}

// SynthesizeToBuffer synthesizes text into an in-memory clip.
func (s *Service) SynthesizeToBuffer(ctx context.Context, sessionID, text, voiceID string) (*speech.TTSResponse, error) {
	req := &speech.TTSRequest{
		SessionID: sessionID,
		Text:      text,
		VoiceID:   voiceID,
	}
	return s.SynthesizeSpeech(ctx, req)
}
