package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"paperless-backend/internal/queue"
)

func stage(t *testing.T, repo *MemoryRepo, documentID int64) {
	t.Helper()
	payload, err := queue.EncodeJob(queue.JobMessage{
		DocumentID:    documentID,
		FileName:      "scan.png",
		StorageKey:    "documents/2026/08/31/x.png",
		FileType:      ".png",
		RequestedAt:   time.Now().UTC(),
		CorrelationID: queue.NewCorrelationID(),
	})
	if err != nil {
		t.Fatalf("encode job: %v", err)
	}
	if err := repo.Add(documentID, payload, time.Now().UTC()); err != nil {
		t.Fatalf("stage job: %v", err)
	}
}

func TestDispatchOncePublishesAndMarksSent(t *testing.T) {
	repo := NewMemoryRepo()
	client := queue.NewMemoryClient()
	stage(t, repo, 1)
	stage(t, repo, 2)

	d := &Dispatcher{Repo: repo, Queue: client, Batch: 10}
	sent, err := d.DispatchOnce(context.Background())
	if err != nil {
		t.Fatalf("DispatchOnce: %v", err)
	}
	if sent != 2 {
		t.Fatalf("expected 2 sent, got %d", sent)
	}
	if repo.Pending() != 0 {
		t.Fatalf("expected no pending entries, got %d", repo.Pending())
	}

	jobs := client.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs on queue, got %d", len(jobs))
	}
	if jobs[0].DocumentID != 1 || jobs[1].DocumentID != 2 {
		t.Fatalf("expected jobs in staging order, got %+v", jobs)
	}
}

type failingQueue struct {
	err error
}

func (f *failingQueue) SendJob(context.Context, queue.JobMessage) error { return f.err }

func (f *failingQueue) SendResult(context.Context, queue.ResultMessage) error { return f.err }

func TestDispatchOnceKeepsEntryOnPublishFailure(t *testing.T) {
	repo := NewMemoryRepo()
	stage(t, repo, 7)

	d := &Dispatcher{Repo: repo, Queue: &failingQueue{err: errors.New("broker down")}, Batch: 10}
	sent, err := d.DispatchOnce(context.Background())
	if err != nil {
		t.Fatalf("DispatchOnce: %v", err)
	}
	if sent != 0 {
		t.Fatalf("expected 0 sent, got %d", sent)
	}
	if repo.Pending() != 1 {
		t.Fatalf("expected entry to stay pending, got %d", repo.Pending())
	}

	entries, err := repo.PendingEntries(context.Background(), 10)
	if err != nil {
		t.Fatalf("PendingEntries: %v", err)
	}
	if entries[0].Attempts != 1 {
		t.Fatalf("expected 1 recorded attempt, got %d", entries[0].Attempts)
	}

	// A later tick with a working queue drains it.
	client := queue.NewMemoryClient()
	d.Queue = client
	sent, err = d.DispatchOnce(context.Background())
	if err != nil {
		t.Fatalf("DispatchOnce retry: %v", err)
	}
	if sent != 1 || repo.Pending() != 0 {
		t.Fatalf("expected retry to publish, sent=%d pending=%d", sent, repo.Pending())
	}
}

func TestDispatchOnceDropsUndecodablePayload(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Add(1, []byte("not-json"), time.Now().UTC()); err != nil {
		t.Fatalf("stage: %v", err)
	}

	client := queue.NewMemoryClient()
	d := &Dispatcher{Repo: repo, Queue: client, Batch: 10}
	sent, err := d.DispatchOnce(context.Background())
	if err != nil {
		t.Fatalf("DispatchOnce: %v", err)
	}
	if sent != 0 {
		t.Fatalf("expected 0 sent, got %d", sent)
	}
	if repo.Pending() != 0 {
		t.Fatalf("expected bad payload to be dropped, got %d pending", repo.Pending())
	}
	if len(client.Jobs()) != 0 {
		t.Fatalf("expected nothing published")
	}
}
