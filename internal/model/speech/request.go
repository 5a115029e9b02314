package speech

import "io"

// ASRRequest carries one utterance of recorded audio for transcription.
type ASRRequest struct {
	SessionID   string    `json:"sessionId"`
	AudioData   io.Reader `json:"-"`
	ContentType string    `json:"contentType"` // audio/webm, audio/wav, ...
}

// TTSRequest asks for synthesized speech for a piece of answer text.
type TTSRequest struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
	VoiceID   string `json:"voiceId"`
}
