// Package persistence provides the relational gateway for generated posts
// and the keyword queue.
package persistence

import (
	"context"

	"blogforge/internal/core"
)

// BlogPostRepository persists the final record of a generation run.
type BlogPostRepository interface {
	// Create inserts the record and returns the generated primary key.
	Create(ctx context.Context, record *core.BlogPostRecord) (string, error)
}

// KeywordRepository manages the upstream keyword queue. One generation run
// consumes one pending (or previously failed) record and transitions it.
type KeywordRepository interface {
	// Enqueue adds a keyword record in pending status.
	Enqueue(ctx context.Context, record *core.KeywordRecord) (string, error)
	// NextPending returns the highest-priority pending or failed record,
	// or nil when the queue is empty.
	NextPending(ctx context.Context) (*core.KeywordRecord, error)
	// MarkGenerating flags the record as claimed by a running pipeline.
	MarkGenerating(ctx context.Context, id string) error
	// MarkUsed flags the record as successfully consumed.
	MarkUsed(ctx context.Context, id string) error
	// MarkFailed flags the record for later manual retry, keeping the reason.
	MarkFailed(ctx context.Context, id string, reason string) error
}
