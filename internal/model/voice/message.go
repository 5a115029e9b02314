package voice

import "encoding/json"

// Message types exchanged on the duplex voice channel. The type field
// selects the variant; audio payloads are base64 within the JSON frame.
const (
	TypeAudio      = "audio"
	TypeEnd        = "end"
	TypeTranscript = "transcript"
	TypeResponse   = "response"
	TypeError      = "error"
)

// Inbound is a client frame before variant validation.
type Inbound struct {
	Type  string `json:"type"`
	Audio string `json:"audio,omitempty"`
}

// Outbound is a server frame. Exactly one payload field is set,
// matching the variant named by Type.
type Outbound struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Audio   string `json:"audio,omitempty"`
	Message string `json:"message,omitempty"`
}

// TranscriptFrame announces the recognized user utterance.
func TranscriptFrame(text string) Outbound {
	return Outbound{Type: TypeTranscript, Text: text}
}

// ResponseFrame carries the assistant answer text.
func ResponseFrame(text string) Outbound {
	return Outbound{Type: TypeResponse, Text: text}
}

// AudioFrame carries synthesized speech, already base64-encoded.
func AudioFrame(audioB64 string) Outbound {
	return Outbound{Type: TypeAudio, Audio: audioB64}
}

// ErrorFrame reports a recoverable failure; the connection stays open.
func ErrorFrame(message string) Outbound {
	return Outbound{Type: TypeError, Message: message}
}

// Decode parses a raw client frame and validates the variant.
func Decode(raw []byte) (Inbound, bool) {
	var msg Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Inbound{}, false
	}
	switch msg.Type {
	case TypeAudio, TypeEnd:
		return msg, true
	default:
		return msg, false
	}
}
