package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/drivelink/voicebot/internal/model/chat"
)

// ErrSessionNotFound is returned when a session id has no mapping.
var ErrSessionNotFound = errors.New("session not found")

// ConversationAllocator creates a new upstream conversation thread.
type ConversationAllocator interface {
	CreateConversation(ctx context.Context) (string, error)
}

// Registry is the single source of truth for session-to-conversation
// mappings. State is process-lifetime only; sessions do not survive restarts
// and are never reused after deletion.
type Registry struct {
	allocator ConversationAllocator

	mu      sync.Mutex
	entries map[string]*entry
}

// entry holds one mapping. ready is closed once allocation settles; after
// that conversationID/err are immutable.
type entry struct {
	ready          chan struct{}
	conversationID string
	err            error
	createdAt      time.Time
}

// NewRegistry creates an empty registry backed by the given allocator.
func NewRegistry(allocator ConversationAllocator) *Registry {
	return &Registry{
		allocator: allocator,
		entries:   make(map[string]*entry),
	}
}

// GetOrCreate returns the conversation bound to sessionID, allocating one
// upstream on first use. Concurrent calls for the same unseen id allocate
// exactly once: the first caller performs the allocation, the rest wait for
// it and observe the same value. Allocation failure evicts the entry so a
// later call can retry; the error propagates to every waiter.
func (r *Registry) GetOrCreate(ctx context.Context, sessionID string) (string, error) {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	if !ok {
		e = &entry{ready: make(chan struct{}), createdAt: time.Now().UTC()}
		r.entries[sessionID] = e
		r.mu.Unlock()

		id, err := r.allocator.CreateConversation(ctx)

		r.mu.Lock()
		e.conversationID, e.err = id, err
		if err != nil {
			// First caller wins only on success.
			if cur, found := r.entries[sessionID]; found && cur == e {
				delete(r.entries, sessionID)
			}
		}
		close(e.ready)
		r.mu.Unlock()

		return e.conversationID, e.err
	}
	r.mu.Unlock()

	select {
	case <-e.ready:
		return e.conversationID, e.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Get returns the session bound to sessionID, if its conversation has been
// allocated.
func (r *Registry) Get(sessionID string) (chat.Session, bool) {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	r.mu.Unlock()
	if !ok {
		return chat.Session{}, false
	}

	select {
	case <-e.ready:
	default:
		return chat.Session{}, false
	}
	if e.err != nil {
		return chat.Session{}, false
	}

	return chat.Session{
		ID:             sessionID,
		ConversationID: e.conversationID,
		CreatedAt:      e.createdAt,
	}, true
}

// Exists reports whether sessionID has a settled mapping.
func (r *Registry) Exists(sessionID string) bool {
	_, ok := r.Get(sessionID)
	return ok
}

// Delete removes the mapping and reports whether it existed. Idempotent.
func (r *Registry) Delete(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.entries[sessionID]
	delete(r.entries, sessionID)
	return ok
}
