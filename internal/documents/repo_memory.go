package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"paperless-backend/internal/tags"
)

// MemoryRepo is an in-memory Repo used for tests and store-less development.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	docs   map[int64]Document
	access []AccessLog

	tagSource TagSource
	stage     Stage
}

// TagSource resolves tag IDs to tags when updating documents.
type TagSource interface {
	GetByIDs(ctx context.Context, ids []int64) ([]tags.Tag, error)
}

// Stage receives the OCR job payload staged by Create.
type Stage interface {
	Add(documentID int64, payload []byte, createdAt time.Time) error
}

func NewMemoryRepo(tagSource TagSource, stage Stage) *MemoryRepo {
	return &MemoryRepo{
		docs:      make(map[int64]Document),
		tagSource: tagSource,
		stage:     stage,
	}
}

func (r *MemoryRepo) Create(_ context.Context, doc *Document, payload PayloadFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID + 1
	body, err := payload(id)
	if err != nil {
		return err
	}
	if r.stage != nil {
		if err := r.stage.Add(id, body, doc.UploadDate); err != nil {
			return err
		}
	}

	r.nextID = id
	doc.ID = id
	r.docs[id] = *doc
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id int64) (Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) List(_ context.Context) ([]Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked(), nil
}

func (r *MemoryRepo) Search(ctx context.Context, term string) ([]Document, error) {
	if strings.TrimSpace(term) == "" {
		return r.List(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	needle := strings.ToLower(term)
	var out []Document
	for _, doc := range r.sortedLocked() {
		if matchesTerm(doc, needle) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (r *MemoryRepo) Recent(_ context.Context, count int) ([]Document, error) {
	if count <= 0 {
		count = 10
	}
	if count > 100 {
		count = 100
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.sortedLocked()
	if len(all) > count {
		all = all[:count]
	}
	return all, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id int64, title string, tagIDs []int64) (Document, error) {
	var resolved []tags.Tag
	if tagIDs != nil && r.tagSource != nil {
		var err error
		resolved, err = r.tagSource.GetByIDs(ctx, tagIDs)
		if err != nil {
			return Document{}, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	doc.Title = title
	now := time.Now().UTC()
	doc.LastModified = &now
	if tagIDs != nil {
		doc.Tags = resolved
	}
	r.docs[id] = doc
	return doc, nil
}

func (r *MemoryRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

func (r *MemoryRepo) MarkProcessed(_ context.Context, id int64, text string, confidence float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	doc.OCRText = text
	doc.OCRConfidence = &confidence
	doc.IsProcessed = true
	now := time.Now().UTC()
	doc.LastModified = &now
	r.docs[id] = doc
	return nil
}

func (r *MemoryRepo) MarkFailed(_ context.Context, id int64, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	doc.Summary = "[ocr-error] " + errorMessage
	doc.IsProcessed = false
	now := time.Now().UTC()
	doc.LastModified = &now
	r.docs[id] = doc
	return nil
}

func (r *MemoryRepo) RecordAccess(_ context.Context, entry AccessLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.AccessDate.IsZero() {
		entry.AccessDate = time.Now().UTC()
	}
	entry.ID = int64(len(r.access) + 1)
	r.access = append(r.access, entry)
	return nil
}

// AccessLogs returns recorded access entries for a document.
func (r *MemoryRepo) AccessLogs(documentID int64) []AccessLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []AccessLog
	for _, entry := range r.access {
		if entry.DocumentID == documentID {
			out = append(out, entry)
		}
	}
	return out
}

func (r *MemoryRepo) sortedLocked() []Document {
	out := make([]Document, 0, len(r.docs))
	for _, doc := range r.docs {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadDate.Equal(out[j].UploadDate) {
			return out[i].UploadDate.After(out[j].UploadDate)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func matchesTerm(doc Document, needle string) bool {
	if strings.Contains(strings.ToLower(doc.Title), needle) ||
		strings.Contains(strings.ToLower(doc.FileName), needle) ||
		strings.Contains(strings.ToLower(doc.OCRText), needle) ||
		strings.Contains(strings.ToLower(doc.Summary), needle) {
		return true
	}
	for _, tag := range doc.Tags {
		if strings.Contains(strings.ToLower(tag.Name), needle) {
			return true
		}
	}
	return false
}

var _ Repo = (*MemoryRepo)(nil)
