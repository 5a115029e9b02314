package voice

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/drivelink/voicebot/internal/model/chat"
	speechmodel "github.com/drivelink/voicebot/internal/model/speech"
	voicemodel "github.com/drivelink/voicebot/internal/model/voice"
)

type fakeTranscriber struct {
	transcripts []string
	err         error
	calls       int
}

func (f *fakeTranscriber) TranscribeBuffer(_ context.Context, sessionID string, _ []byte, _ string) (*speechmodel.ASRResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	transcript := ""
	if f.calls < len(f.transcripts) {
		transcript = f.transcripts[f.calls]
	}
	f.calls++
	return &speechmodel.ASRResponse{SessionID: sessionID, Transcript: transcript}, nil
}

type fakeTurns struct {
	output string
	err    error
	inputs []string
}

func (f *fakeTurns) RunTurn(_ context.Context, conversationID, input string) (*chat.Turn, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &chat.Turn{
		ConversationID: conversationID,
		Input:          input,
		Status:         chat.TurnCompleted,
		Output:         f.output,
	}, nil
}

type fakeSynth struct {
	audio []byte
	err   error
}

func (f *fakeSynth) SynthesizeToBuffer(_ context.Context, sessionID, _, _ string) (*speechmodel.TTSResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &speechmodel.TTSResponse{SessionID: sessionID, AudioData: f.audio, Format: "mp3"}, nil
}

type harness struct {
	sess     *Session
	events   []voicemodel.Outbound
	released int
}

func newHarness(transcriber Transcriber, turns TurnRunner, synth Synthesizer) *harness {
	h := &harness{}
	h.sess = NewSession("sess-1", "conv-1", transcriber, turns, synth,
		func(frame voicemodel.Outbound) { h.events = append(h.events, frame) },
		func() { h.released++ },
	)
	return h
}

func (h *harness) eventTypes() []string {
	types := make([]string, len(h.events))
	for i, e := range h.events {
		types[i] = e.Type
	}
	return types
}

func TestHandleAudioFullTurn(t *testing.T) {
	audio := []byte("synth-bytes")
	h := newHarness(
		&fakeTranscriber{transcripts: []string{"what colors does it come in"}},
		&fakeTurns{output: "Nine exterior colors."},
		&fakeSynth{audio: audio},
	)

	h.sess.HandleAudio(context.Background(), []byte("pcm"))

	want := []string{voicemodel.TypeTranscript, voicemodel.TypeResponse, voicemodel.TypeAudio}
	got := h.eventTypes()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if h.events[0].Text != "what colors does it come in" {
		t.Fatalf("unexpected transcript text %q", h.events[0].Text)
	}
	if h.events[1].Text != "Nine exterior colors." {
		t.Fatalf("unexpected response text %q", h.events[1].Text)
	}
	if h.events[2].Audio != base64.StdEncoding.EncodeToString(audio) {
		t.Fatalf("unexpected audio payload %q", h.events[2].Audio)
	}
	if h.sess.State() != StateIdle {
		t.Fatalf("expected idle after turn, got %s", h.sess.State())
	}
}

func TestHandleAudioEmptyTranscriptDiscarded(t *testing.T) {
	turns := &fakeTurns{output: "never"}
	h := newHarness(
		&fakeTranscriber{transcripts: []string{"   "}},
		turns,
		&fakeSynth{audio: []byte("a")},
	)

	h.sess.HandleAudio(context.Background(), []byte("pcm"))

	if len(h.events) != 0 {
		t.Fatalf("expected no events for empty transcript, got %v", h.eventTypes())
	}
	if len(turns.inputs) != 0 {
		t.Fatalf("expected no turn for empty transcript, got %v", turns.inputs)
	}
	if h.sess.State() != StateIdle {
		t.Fatalf("expected idle, got %s", h.sess.State())
	}
}

func TestHandleAudioTranscriptionFailure(t *testing.T) {
	h := newHarness(
		&fakeTranscriber{err: errors.New("deepgram down")},
		&fakeTurns{output: "never"},
		&fakeSynth{audio: []byte("a")},
	)

	h.sess.HandleAudio(context.Background(), []byte("pcm"))

	if len(h.events) != 1 || h.events[0].Type != voicemodel.TypeError {
		t.Fatalf("expected single error event, got %v", h.eventTypes())
	}
	if h.sess.State() != StateIdle {
		t.Fatalf("expected idle after failure, got %s", h.sess.State())
	}
}

func TestHandleAudioTurnFailure(t *testing.T) {
	h := newHarness(
		&fakeTranscriber{transcripts: []string{"towing capacity"}},
		&fakeTurns{err: errors.New("run expired")},
		&fakeSynth{audio: []byte("a")},
	)

	h.sess.HandleAudio(context.Background(), []byte("pcm"))

	want := []string{voicemodel.TypeTranscript, voicemodel.TypeError}
	got := h.eventTypes()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	if h.sess.State() != StateIdle {
		t.Fatalf("expected idle after failure, got %s", h.sess.State())
	}
}

func TestHandleAudioSynthesisFailureKeepsText(t *testing.T) {
	h := newHarness(
		&fakeTranscriber{transcripts: []string{"seat material"}},
		&fakeTurns{output: "Quilted leather on Platinum trim."},
		&fakeSynth{err: errors.New("elevenlabs down")},
	)

	h.sess.HandleAudio(context.Background(), []byte("pcm"))

	want := []string{voicemodel.TypeTranscript, voicemodel.TypeResponse}
	got := h.eventTypes()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected text without audio, got %v", got)
	}
	if h.sess.State() != StateIdle {
		t.Fatalf("expected idle, got %s", h.sess.State())
	}
}

func TestCloseReleasesConversationOnce(t *testing.T) {
	h := newHarness(
		&fakeTranscriber{transcripts: []string{"hello"}},
		&fakeTurns{output: "hi"},
		&fakeSynth{audio: []byte("a")},
	)

	h.sess.Close()
	h.sess.Close()

	if h.released != 1 {
		t.Fatalf("expected exactly one release, got %d", h.released)
	}
	if h.sess.State() != StateClosed {
		t.Fatalf("expected closed, got %s", h.sess.State())
	}

	h.sess.HandleAudio(context.Background(), []byte("pcm"))
	if len(h.events) != 0 {
		t.Fatalf("expected no events after close, got %v", h.eventTypes())
	}
}
