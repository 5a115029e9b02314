package speech

import "time"

// ASRResponse is the transcription result for one utterance.
type ASRResponse struct {
	SessionID  string    `json:"sessionId"`
	Transcript string    `json:"transcript"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TTSResponse holds synthesized audio for one answer.
type TTSResponse struct {
	SessionID string    `json:"sessionId"`
	AudioData []byte    `json:"-"`
	Format    string    `json:"format"` // mp3
	CreatedAt time.Time `json:"createdAt"`
}
