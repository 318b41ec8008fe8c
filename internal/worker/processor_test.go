package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"paperless-backend/internal/ocr"
	"paperless-backend/internal/queue"
	localstore "paperless-backend/internal/shared/storage/object/local"
)

type fakeEngine struct {
	availableErr error
	result       ocr.Result
	extractErr   error
}

func (f *fakeEngine) Available(context.Context) error { return f.availableErr }

func (f *fakeEngine) Extract(_ context.Context, data []byte, fileType string) (ocr.Result, error) {
	if f.extractErr != nil {
		return ocr.Result{}, f.extractErr
	}
	if f.result.Text != "" {
		return f.result, nil
	}
	return ocr.Result{Text: string(data), Confidence: 1}, nil
}

func testJob(storageKey string) queue.JobMessage {
	return queue.JobMessage{
		DocumentID:    9,
		FileName:      "note.txt",
		StorageKey:    storageKey,
		FileType:      ".txt",
		RequestedAt:   time.Now().UTC(),
		CorrelationID: "corr-9",
	}
}

func saveObject(t *testing.T, store *localstore.Store, key, content string) {
	t.Helper()
	if _, err := store.Save(context.Background(), key, "text/plain", strings.NewReader(content)); err != nil {
		t.Fatalf("save object: %v", err)
	}
}

func TestProcessBuildsSuccessResult(t *testing.T) {
	store := localstore.New(t.TempDir())
	saveObject(t, store, "documents/2026/08/31/note.txt", "grocery list")

	p := &Processor{Store: store, Engine: &fakeEngine{result: ocr.Result{Text: "grocery list", Confidence: 0.88}}}
	result := p.Process(context.Background(), testJob("documents/2026/08/31/note.txt"))

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.ErrorMessage)
	}
	if result.Text != "grocery list" {
		t.Fatalf("expected extracted text, got %q", result.Text)
	}
	if result.Confidence != 0.88 {
		t.Fatalf("expected confidence 0.88, got %f", result.Confidence)
	}
	if result.DocumentID != 9 || result.CorrelationID != "corr-9" {
		t.Fatalf("expected job identity carried over, got %+v", result)
	}
	if result.ProcessingType != queue.ProcessingTypeOCR {
		t.Fatalf("expected processing type %q, got %q", queue.ProcessingTypeOCR, result.ProcessingType)
	}
}

func TestProcessMissingObjectBuildsFailureResult(t *testing.T) {
	store := localstore.New(t.TempDir())

	p := &Processor{Store: store, Engine: &fakeEngine{}}
	result := p.Process(context.Background(), testJob("documents/2026/08/31/gone.txt"))

	if result.Success {
		t.Fatalf("expected failure for missing object")
	}
	if !strings.Contains(result.ErrorMessage, "not found") {
		t.Fatalf("expected not-found error, got %q", result.ErrorMessage)
	}
}

func TestProcessEngineUnavailableBuildsFailureResult(t *testing.T) {
	store := localstore.New(t.TempDir())
	saveObject(t, store, "k.txt", "x")

	p := &Processor{Store: store, Engine: &fakeEngine{availableErr: errors.New("missing language data")}}
	result := p.Process(context.Background(), testJob("k.txt"))

	if result.Success {
		t.Fatalf("expected failure when the engine is unavailable")
	}
	if !strings.Contains(result.ErrorMessage, "unavailable") {
		t.Fatalf("expected unavailable error, got %q", result.ErrorMessage)
	}
}

func TestRunnerPublishesResultAndAcks(t *testing.T) {
	store := localstore.New(t.TempDir())
	saveObject(t, store, "k.txt", "hello worker")

	client := queue.NewMemoryClient()
	if err := client.SendJob(context.Background(), testJob("k.txt")); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	r := &Runner{
		Jobs:      client,
		Results:   client,
		Processor: &Processor{Store: store, Engine: &fakeEngine{}},
	}

	handled, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !handled {
		t.Fatalf("expected a job to be handled")
	}

	result, _, ok, err := client.ReceiveResult(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected a published result, ok=%v err=%v", ok, err)
	}
	if !result.Success || result.Text != "hello worker" {
		t.Fatalf("unexpected result %+v", result)
	}

	if _, ok := client.PopJob(); ok {
		t.Fatalf("expected job to be consumed")
	}
}

func TestHandleFinishesInFlightJobAfterShutdown(t *testing.T) {
	store := localstore.New(t.TempDir())
	saveObject(t, store, "k.txt", "almost done")

	client := queue.NewMemoryClient()

	r := &Runner{
		Jobs:      client,
		Results:   client,
		Processor: &Processor{Store: store, Engine: &fakeEngine{}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	acked := false
	r.handle(ctx, testJob("k.txt"), func(context.Context) error {
		acked = true
		return nil
	})

	result, _, ok, err := client.ReceiveResult(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected a published result, ok=%v err=%v", ok, err)
	}
	if !result.Success || result.Text != "almost done" {
		t.Fatalf("expected the job to complete despite shutdown, got %+v", result)
	}
	if !acked {
		t.Fatalf("expected the job to be acknowledged")
	}
}
