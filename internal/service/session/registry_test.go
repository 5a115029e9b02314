package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeAllocator struct {
	mu    sync.Mutex
	calls int
	delay time.Duration
	err   error
}

func (f *fakeAllocator) CreateConversation(context.Context) (string, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("conv-%d", n), nil
}

func (f *fakeAllocator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestGetOrCreateConcurrentAllocatesOnce(t *testing.T) {
	alloc := &fakeAllocator{delay: 20 * time.Millisecond}
	reg := NewRegistry(alloc)

	const callers = 16
	results := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := reg.GetOrCreate(context.Background(), "sess-1")
			if err != nil {
				t.Errorf("caller %d: unexpected error: %v", i, err)
				return
			}
			results[i] = id
		}(i)
	}
	wg.Wait()

	if got := alloc.callCount(); got != 1 {
		t.Fatalf("expected exactly one allocation, got %d", got)
	}
	for i, id := range results {
		if id != results[0] {
			t.Fatalf("caller %d observed %q, caller 0 observed %q", i, id, results[0])
		}
	}
}

func TestGetOrCreateDistinctSessions(t *testing.T) {
	reg := NewRegistry(&fakeAllocator{})

	first, err := reg.GetOrCreate(context.Background(), "sess-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := reg.GetOrCreate(context.Background(), "sess-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct conversations, got %s twice", first)
	}

	// Repeat lookups stay stable.
	again, err := reg.GetOrCreate(context.Background(), "sess-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != first {
		t.Fatalf("expected %s on repeat lookup, got %s", first, again)
	}
}

func TestGetOrCreateFailureEvictsEntry(t *testing.T) {
	alloc := &fakeAllocator{err: errors.New("upstream down")}
	reg := NewRegistry(alloc)

	if _, err := reg.GetOrCreate(context.Background(), "sess-1"); err == nil {
		t.Fatal("expected allocation error")
	}
	if reg.Exists("sess-1") {
		t.Fatal("expected failed entry to be evicted")
	}

	alloc.err = nil
	id, err := reg.GetOrCreate(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if id == "" {
		t.Fatal("expected a conversation id on retry")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	reg := NewRegistry(&fakeAllocator{})

	if _, err := reg.GetOrCreate(context.Background(), "sess-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reg.Delete("sess-1") {
		t.Fatal("expected first delete to report existence")
	}
	if reg.Delete("sess-1") {
		t.Fatal("expected second delete to report absence")
	}
	if _, ok := reg.Get("sess-1"); ok {
		t.Fatal("expected session to be gone after delete")
	}
}

func TestGetReturnsSettledSession(t *testing.T) {
	reg := NewRegistry(&fakeAllocator{})

	conv, err := reg.GetOrCreate(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sess, ok := reg.Get("sess-1")
	if !ok {
		t.Fatal("expected session to exist")
	}
	if sess.ConversationID != conv {
		t.Fatalf("expected conversation %s, got %s", conv, sess.ConversationID)
	}
	if sess.ID != "sess-1" {
		t.Fatalf("expected session id sess-1, got %s", sess.ID)
	}
}
