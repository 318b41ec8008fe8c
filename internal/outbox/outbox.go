// Package outbox stages OCR job messages alongside document rows and
// publishes them to the queue after commit.
package outbox

import (
	"context"
	"time"
)

// Entry is a staged job message waiting to be published.
type Entry struct {
	ID         int64
	DocumentID int64
	Payload    []byte
	Attempts   int
	CreatedAt  time.Time
}

// Repo reads and updates staged entries.
type Repo interface {
	// PendingEntries returns unsent entries, oldest first.
	PendingEntries(ctx context.Context, limit int) ([]Entry, error)
	// MarkSent stamps an entry as published.
	MarkSent(ctx context.Context, id int64) error
	// MarkAttempt records a failed publish so retries are visible.
	MarkAttempt(ctx context.Context, id int64) error
}
