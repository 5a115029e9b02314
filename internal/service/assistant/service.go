package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/drivelink/voicebot/internal/config"
	"github.com/drivelink/voicebot/internal/model/chat"
)

// backend abstracts the upstream assistant thread API so the executor can be
// exercised against fakes in tests.
type backend interface {
	createThread(ctx context.Context) (string, error)
	appendUserMessage(ctx context.Context, conversationID, text string) error
	runToTerminal(ctx context.Context, conversationID string) (string, error)
	latestAnswer(ctx context.Context, conversationID string) (string, []string, error)
	// streamRun blocks for the lifetime of the run, invoking push for each
	// text delta. push reports whether the consumer still wants output.
	streamRun(ctx context.Context, conversationID string, push func(delta string) bool) error
	transcript(ctx context.Context, conversationID string) ([]chat.HistoryEntry, error)
}

// Service drives request/response cycles against the language-model
// collaborator. Turns on one conversation are strictly serialized: a second
// request for a conversation with a turn in flight waits for it to finish.
type Service struct {
	api backend
	cfg config.AssistantConfig

	mu    sync.Mutex
	convs map[string]*sync.Mutex
}

// NewService creates the assistant service.
func NewService(cfg config.AssistantConfig) (*Service, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	return newService(newOpenAIBackend(cfg), cfg), nil
}

func newService(api backend, cfg config.AssistantConfig) *Service {
	return &Service{
		api:   api,
		cfg:   cfg,
		convs: make(map[string]*sync.Mutex),
	}
}

// StreamingEnabled indicates whether streamed turn output is configured.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// CreateConversation allocates a new upstream conversation thread.
func (s *Service) CreateConversation(ctx context.Context) (string, error) {
	id, err := s.api.createThread(ctx)
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return id, nil
}

// RunTurn appends the user input to the conversation, runs the assistant to a
// terminal state and extracts the answer text plus cited source ids. A
// terminal state other than completed yields a TurnFailedError and no output.
func (s *Service) RunTurn(ctx context.Context, conversationID, input string) (*chat.Turn, error) {
	unlock := s.lockConversation(conversationID)
	defer unlock()

	if err := s.api.appendUserMessage(ctx, conversationID, input); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	status, err := s.api.runToTerminal(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("run assistant: %w", err)
	}
	if status != string(chat.TurnCompleted) {
		return nil, &TurnFailedError{Status: status}
	}

	output, citations, err := s.api.latestAnswer(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("read answer: %w", err)
	}

	log.Printf("[assistant] turn completed conversation=%s output=%d chars citations=%d",
		conversationID, len(output), len(citations))

	return &chat.Turn{
		ConversationID: conversationID,
		Input:          input,
		Status:         chat.TurnCompleted,
		Output:         output,
		Citations:      citations,
	}, nil
}

// RunTurnStream appends the user input and returns a finite, non-restartable
// sequence of answer text deltas. The underlying run stream is blocking and
// push-style, so it is isolated on a dedicated goroutine behind the bridge;
// the conversation stays locked until the stream terminates.
func (s *Service) RunTurnStream(ctx context.Context, conversationID, input string) (*schema.StreamReader[string], error) {
	unlock := s.lockConversation(conversationID)

	if err := s.api.appendUserMessage(ctx, conversationID, input); err != nil {
		unlock()
		return nil, fmt.Errorf("append message: %w", err)
	}

	stream := bridge(func(push func(string) bool) error {
		defer unlock()
		return s.api.streamRun(ctx, conversationID, push)
	})

	return stream, nil
}

// Transcript returns the upstream conversation history, oldest first.
func (s *Service) Transcript(ctx context.Context, conversationID string) ([]chat.HistoryEntry, error) {
	entries, err := s.api.transcript(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	return entries, nil
}

// ApologyText is the user-facing text substituted for a failed turn.
func ApologyText() string {
	return "Sorry, I ran into a problem answering that. Please try again."
}

// lockConversation serializes turns per conversation. Lock entries live for
// the process lifetime, bounded by the number of conversations, same as the
// registry itself.
func (s *Service) lockConversation(conversationID string) func() {
	key := strings.TrimSpace(conversationID)

	s.mu.Lock()
	lock, ok := s.convs[key]
	if !ok {
		lock = &sync.Mutex{}
		s.convs[key] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
