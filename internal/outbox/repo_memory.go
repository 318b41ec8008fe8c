package outbox

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo. Its Add method doubles as the staging
// hook for the in-memory document repository.
type MemoryRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries []Entry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Add stages a payload for later dispatch.
func (r *MemoryRepo) Add(documentID int64, payload []byte, createdAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.entries = append(r.entries, Entry{
		ID:         r.nextID,
		DocumentID: documentID,
		Payload:    append([]byte(nil), payload...),
		CreatedAt:  createdAt,
	})
	return nil
}

func (r *MemoryRepo) PendingEntries(_ context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Entry
	for _, entry := range r.entries {
		if len(out) == limit {
			break
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *MemoryRepo) MarkSent(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.entries {
		if entry.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *MemoryRepo) MarkAttempt(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		if r.entries[i].ID == id {
			r.entries[i].Attempts++
			return nil
		}
	}
	return nil
}

// Pending returns the number of unsent entries.
func (r *MemoryRepo) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

var _ Repo = (*MemoryRepo)(nil)
