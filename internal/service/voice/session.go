package voice

import (
	"context"
	"encoding/base64"
	"log"
	"strings"

	"github.com/drivelink/voicebot/internal/model/chat"
	speechmodel "github.com/drivelink/voicebot/internal/model/speech"
	voicemodel "github.com/drivelink/voicebot/internal/model/voice"
)

// State of a live voice session. Transitions are strictly sequential per
// connection; independent connections run fully in parallel.
type State int

const (
	StateIdle State = iota
	StateTranscribing
	StateThinking
	StateSpeaking
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTranscribing:
		return "transcribing"
	case StateThinking:
		return "thinking"
	case StateSpeaking:
		return "speaking"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// voiceContentType is what browser clients record and send over the channel.
const voiceContentType = "audio/webm"

// Transcriber converts one utterance of audio into text.
type Transcriber interface {
	TranscribeBuffer(ctx context.Context, sessionID string, audio []byte, contentType string) (*speechmodel.ASRResponse, error)
}

// TurnRunner drives one request/response cycle against the assistant.
type TurnRunner interface {
	RunTurn(ctx context.Context, conversationID, input string) (*chat.Turn, error)
}

// Synthesizer converts answer text into speech audio.
type Synthesizer interface {
	SynthesizeToBuffer(ctx context.Context, sessionID, text, voiceID string) (*speechmodel.TTSResponse, error)
}

// Session sequences one live voice connection: audio in, transcript, turn,
// synthesized audio out. It is owned exclusively by its connection handler
// and never shared. Collaborator failures are converted to outbound error
// frames and return the session to idle; they never terminate the session.
type Session struct {
	id             string
	conversationID string
	state          State

	transcriber Transcriber
	turns       TurnRunner
	synth       Synthesizer

	emit    func(voicemodel.Outbound)
	release func()
}

// NewSession creates the state machine for one connection. emit delivers
// outbound frames to the transport; release frees the session's conversation
// and runs at most once, on Close.
func NewSession(sessionID, conversationID string, transcriber Transcriber, turns TurnRunner, synth Synthesizer, emit func(voicemodel.Outbound), release func()) *Session {
	return &Session{
		id:             sessionID,
		conversationID: conversationID,
		state:          StateIdle,
		transcriber:    transcriber,
		turns:          turns,
		synth:          synth,
		emit:           emit,
		release:        release,
	}
}

// State returns the current machine state.
func (s *Session) State() State {
	return s.state
}

// HandleAudio runs one full turn for a chunk of recorded audio. An empty or
// whitespace transcript is discarded without any outbound event. A synthesis
// failure after a successful turn still delivers the response text and only
// skips the audio frame.
func (s *Session) HandleAudio(ctx context.Context, audio []byte) {
	if s.state != StateIdle {
		log.Printf("[voice] dropping audio chunk session=%s state=%s", s.id, s.state)
		return
	}

	s.state = StateTranscribing
	asr, err := s.transcriber.TranscribeBuffer(ctx, s.id, audio, voiceContentType)
	if err != nil {
		log.Printf("[voice] transcription failed session=%s: %v", s.id, err)
		s.emit(voicemodel.ErrorFrame("Transcription failed"))
		s.state = StateIdle
		return
	}

	transcript := strings.TrimSpace(asr.Transcript)
	if transcript == "" {
		s.state = StateIdle
		return
	}
	s.emit(voicemodel.TranscriptFrame(asr.Transcript))

	s.state = StateThinking
	turn, err := s.turns.RunTurn(ctx, s.conversationID, asr.Transcript)
	if err != nil {
		log.Printf("[voice] turn failed session=%s: %v", s.id, err)
		s.emit(voicemodel.ErrorFrame("Assistant failed to respond"))
		s.state = StateIdle
		return
	}
	s.emit(voicemodel.ResponseFrame(turn.Output))

	s.state = StateSpeaking
	tts, err := s.synth.SynthesizeToBuffer(ctx, s.id, turn.Output, "")
	if err != nil || len(tts.AudioData) == 0 {
		// The text response is already delivered; degrade by skipping audio.
		log.Printf("[voice] synthesis failed session=%s: %v", s.id, err)
		s.state = StateIdle
		return
	}
	s.emit(voicemodel.AudioFrame(base64.StdEncoding.EncodeToString(tts.AudioData)))

	s.state = StateIdle
}

// Close releases the session's conversation and marks the machine terminal.
// Safe to call from any state and more than once.
func (s *Session) Close() {
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	if s.release != nil {
		s.release()
		s.release = nil
	}
}
