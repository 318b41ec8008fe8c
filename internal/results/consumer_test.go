package results

import (
	"context"
	"strings"
	"testing"
	"time"

	"paperless-backend/internal/documents"
	"paperless-backend/internal/queue"
)

func seedDocument(t *testing.T, repo *documents.MemoryRepo) documents.Document {
	t.Helper()
	doc := documents.Document{
		Title:      "scan",
		FileName:   "scan.png",
		StorageKey: "documents/2026/08/31/scan.png",
		UploadDate: time.Now().UTC(),
		FileType:   ".png",
		FileSize:   10,
	}
	err := repo.Create(context.Background(), &doc, func(int64) ([]byte, error) { return []byte("{}"), nil })
	if err != nil {
		t.Fatalf("seed document: %v", err)
	}
	return doc
}

func TestApplySuccessMarksProcessed(t *testing.T) {
	repo := documents.NewMemoryRepo(nil, nil)
	doc := seedDocument(t, repo)

	c := &Consumer{Repo: repo}
	err := c.Apply(context.Background(), queue.ResultMessage{
		DocumentID:     doc.ID,
		ProcessingType: queue.ProcessingTypeOCR,
		Success:        true,
		Text:           "recognized text",
		Confidence:     0.77,
		ProcessedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	updated, err := repo.GetByID(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !updated.IsProcessed {
		t.Fatalf("expected document marked processed")
	}
	if updated.OCRText != "recognized text" {
		t.Fatalf("expected ocr text stored, got %q", updated.OCRText)
	}
	if updated.OCRConfidence == nil || *updated.OCRConfidence != 0.77 {
		t.Fatalf("expected confidence 0.77, got %v", updated.OCRConfidence)
	}
}

func TestApplyFailureRecordsErrorMarker(t *testing.T) {
	repo := documents.NewMemoryRepo(nil, nil)
	doc := seedDocument(t, repo)

	c := &Consumer{Repo: repo}
	err := c.Apply(context.Background(), queue.ResultMessage{
		DocumentID:     doc.ID,
		ProcessingType: queue.ProcessingTypeOCR,
		Success:        false,
		ErrorMessage:   "unsupported file type: .doc",
		ProcessedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	updated, err := repo.GetByID(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.IsProcessed {
		t.Fatalf("expected document to stay unprocessed")
	}
	if !strings.HasPrefix(updated.Summary, "[ocr-error] ") {
		t.Fatalf("expected error marker in summary, got %q", updated.Summary)
	}
}

func TestApplyForDeletedDocumentIsDropped(t *testing.T) {
	repo := documents.NewMemoryRepo(nil, nil)

	c := &Consumer{Repo: repo}
	err := c.Apply(context.Background(), queue.ResultMessage{
		DocumentID: 404,
		Success:    true,
		Text:       "late result",
	})
	if err != nil {
		t.Fatalf("expected result for deleted document to be dropped, got %v", err)
	}
}

func TestRunDrainsResultQueue(t *testing.T) {
	repo := documents.NewMemoryRepo(nil, nil)
	doc := seedDocument(t, repo)

	client := queue.NewMemoryClient()
	if err := client.SendResult(context.Background(), queue.ResultMessage{
		DocumentID: doc.ID,
		Success:    true,
		Text:       "from queue",
		Confidence: 0.5,
	}); err != nil {
		t.Fatalf("seed result: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{Receiver: client, Repo: repo}
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		updated, err := repo.GetByID(context.Background(), doc.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if updated.IsProcessed {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("result was not applied in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("consumer did not stop on cancel")
	}
}
