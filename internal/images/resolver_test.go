package images

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"blogforge/internal/core"
)

// fakeGenerator fails generation for the positions listed in failFor and
// records when each prompt was submitted.
type fakeGenerator struct {
	mu        sync.Mutex
	calls     int
	failFor   map[string]bool
	submitted map[string]time.Time
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	if f.submitted != nil {
		f.submitted[prompt] = time.Now()
	}
	f.mu.Unlock()
	if f.failFor[prompt] {
		return "", errors.New("rate limited")
	}
	return "https://transient.example.com/" + prompt, nil
}

func (f *fakeGenerator) Download(ctx context.Context, imageURL string) ([]byte, error) {
	return []byte("png-bytes-" + imageURL), nil
}

// memoryStore collects uploads in memory and returns deterministic URLs.
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectPath] = data
	return "https://storage.example.com/blog-images/" + objectPath, nil
}

func TestResolveSlots_PartialFailure(t *testing.T) {
	gen := &fakeGenerator{failFor: map[string]bool{"p2": true, "p4": true}}
	store := newMemoryStore()
	resolver := NewResolver(gen, store, "generated", 0)

	slots := []core.ImageSlot{
		{Position: 1, Prompt: "p1"},
		{Position: 2, Prompt: "p2"},
		{Position: 3, Prompt: "p3"},
		{Position: 4, Prompt: "p4"},
		{Position: 5, Prompt: "p5"},
	}

	resolved := resolver.ResolveSlots(context.Background(), slots)
	if len(resolved) != 5 {
		t.Fatalf("got %d slots back, want 5", len(resolved))
	}

	for _, s := range resolved {
		wantResolved := s.Position != 2 && s.Position != 4
		if s.Resolved() != wantResolved {
			t.Errorf("slot %d resolved = %v, want %v", s.Position, s.Resolved(), wantResolved)
		}
		if s.Resolved() && !strings.HasPrefix(s.ResolvedURL, "https://storage.example.com/") {
			t.Errorf("slot %d URL = %q, want a durable storage URL", s.Position, s.ResolvedURL)
		}
	}

	if gen.calls != 5 {
		t.Errorf("generator called %d times, want 5 (one per slot, no retries)", gen.calls)
	}
	if len(store.objects) != 3 {
		t.Errorf("store holds %d objects, want 3", len(store.objects))
	}
}

func TestResolveSlots_DoesNotMutateInput(t *testing.T) {
	gen := &fakeGenerator{}
	resolver := NewResolver(gen, newMemoryStore(), "generated", 0)

	slots := []core.ImageSlot{{Position: 1, Prompt: "p1"}}
	resolved := resolver.ResolveSlots(context.Background(), slots)

	if slots[0].ResolvedURL != "" {
		t.Error("input slice should stay untouched")
	}
	if resolved[0].ResolvedURL == "" {
		t.Error("returned slice should carry the resolved URL")
	}
}

func TestResolveSlots_StaggersSubmissions(t *testing.T) {
	// The stagger delay runs before each launch after the first, so slot N
	// cannot reach the generator earlier than (N-1) stagger intervals in.
	stagger := 15 * time.Millisecond
	gen := &fakeGenerator{submitted: make(map[string]time.Time)}
	resolver := NewResolver(gen, newMemoryStore(), "generated", stagger)

	slots := []core.ImageSlot{
		{Position: 1, Prompt: "p1"},
		{Position: 2, Prompt: "p2"},
		{Position: 3, Prompt: "p3"},
	}

	start := time.Now()
	resolver.ResolveSlots(context.Background(), slots)

	for i, prompt := range []string{"p1", "p2", "p3"} {
		at, ok := gen.submitted[prompt]
		if !ok {
			t.Fatalf("prompt %s was never submitted", prompt)
		}
		if min := time.Duration(i) * stagger; at.Sub(start) < min {
			t.Errorf("%s submitted %v in, want at least %v", prompt, at.Sub(start), min)
		}
	}
}

func TestResolveSlots_ObjectPathsAreDisjoint(t *testing.T) {
	gen := &fakeGenerator{}
	store := newMemoryStore()
	resolver := NewResolver(gen, store, "generated", 0)

	var slots []core.ImageSlot
	for i := 1; i <= 5; i++ {
		slots = append(slots, core.ImageSlot{Position: i, Prompt: fmt.Sprintf("p%d", i)})
	}

	resolver.ResolveSlots(context.Background(), slots)
	if len(store.objects) != 5 {
		t.Errorf("store holds %d objects, want 5 distinct paths", len(store.objects))
	}
	for path := range store.objects {
		if !strings.HasPrefix(path, "generated/") {
			t.Errorf("object path %q should live under the configured prefix", path)
		}
	}
}
