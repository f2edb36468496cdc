package images

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"blogforge/internal/core"
	"blogforge/internal/logger"
)

// Generator is the image-generation side of the pipeline.
type Generator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
	Download(ctx context.Context, imageURL string) ([]byte, error)
}

// Resolver turns image slots into durable public URLs. Submissions are
// staggered to respect the upstream rate limit, then awaited together. A
// slot's failure is terminal for that slot only: it is logged and the slot
// stays unresolved.
type Resolver struct {
	gen     Generator
	store   ObjectStore
	prefix  string
	stagger time.Duration
	now     func() time.Time
}

// NewResolver creates a slot resolver. prefix is the object path prefix
// inside the bucket; stagger is the delay between slot submissions.
func NewResolver(gen Generator, store ObjectStore, prefix string, stagger time.Duration) *Resolver {
	return &Resolver{
		gen:     gen,
		store:   store,
		prefix:  prefix,
		stagger: stagger,
		now:     time.Now,
	}
}

// slotResult is the tagged outcome of one slot task. Each task writes only
// its own index of the result slice, so no synchronization is needed beyond
// the join.
type slotResult struct {
	url string
	err error
}

// ResolveSlots resolves every slot and returns a copy with ResolvedURL
// filled in where generation and upload both succeeded.
func (r *Resolver) ResolveSlots(ctx context.Context, slots []core.ImageSlot) []core.ImageSlot {
	resolved := make([]core.ImageSlot, len(slots))
	copy(resolved, slots)

	results := make([]slotResult, len(slots))
	var wg sync.WaitGroup

	for i := range slots {
		if i > 0 && r.stagger > 0 {
			select {
			case <-ctx.Done():
				results[i] = slotResult{err: ctx.Err()}
				continue
			case <-time.After(r.stagger):
			}
		}

		wg.Add(1)
		go func(idx int, slot core.ImageSlot) {
			defer wg.Done()
			url, err := r.resolveOne(ctx, slot)
			results[idx] = slotResult{url: url, err: err}
		}(i, slots[i])
	}
	wg.Wait()

	for i := range resolved {
		if results[i].err != nil {
			logger.Warn("image slot failed",
				"position", resolved[i].Position,
				"error", results[i].err.Error())
			continue
		}
		resolved[i].ResolvedURL = results[i].url
	}
	return resolved
}

// resolveOne runs the generate, download and upload chain for one slot.
func (r *Resolver) resolveOne(ctx context.Context, slot core.ImageSlot) (string, error) {
	transientURL, err := r.gen.GenerateImage(ctx, slot.Prompt)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	data, err := r.gen.Download(ctx, transientURL)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	objectPath := fmt.Sprintf("%s/%s-pos%d-%s.png",
		r.prefix,
		r.now().UTC().Format("20060102-150405"),
		slot.Position,
		uuid.NewString()[:8],
	)

	publicURL, err := r.store.Upload(ctx, objectPath, data, "image/png")
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	return publicURL, nil
}
