package documents

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"paperless-backend/internal/queue"
	"paperless-backend/internal/shared/metrics"
	"paperless-backend/internal/shared/storage/object"
	"paperless-backend/internal/shared/telemetry"
	"paperless-backend/internal/shared/util"
)

// Service contains business logic for documents.
type Service struct {
	Store object.ObjectStore
	Repo  Repo

	MaxUploadBytes    int64
	AllowedExtensions []string
}

// Upload stores the file and records the document together with its OCR job
// payload. The job is published later by the outbox dispatcher.
func (s *Service) Upload(ctx context.Context, title, fileName string, size int64, r io.Reader) (Document, error) {
	fileName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if !s.extensionAllowed(ext) {
		return Document{}, fmt.Errorf("%w: file type %q is not supported", ErrInvalidInput, ext)
	}
	if size <= 0 {
		return Document{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if s.MaxUploadBytes > 0 && size > s.MaxUploadBytes {
		return Document{}, fmt.Errorf("%w: file exceeds the %d byte limit", ErrInvalidInput, s.MaxUploadBytes)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSuffix(fileName, ext)
	}

	now := time.Now().UTC()
	storageKey := fmt.Sprintf("documents/%s/%s%s", now.Format("2006/01/02"), uuid.NewString(), ext)

	written, err := s.Store.Save(ctx, storageKey, contentTypeFor(ext), io.LimitReader(r, size))
	if err != nil {
		return Document{}, fmt.Errorf("store file: %w", err)
	}

	doc := Document{
		Title:      title,
		FileName:   fileName,
		StorageKey: storageKey,
		UploadDate: now,
		FileType:   ext,
		FileSize:   written,
	}

	err = s.Repo.Create(ctx, &doc, func(documentID int64) ([]byte, error) {
		return queue.EncodeJob(queue.JobMessage{
			DocumentID:    documentID,
			FileName:      fileName,
			StorageKey:    storageKey,
			FileType:      ext,
			RequestedAt:   now,
			CorrelationID: queue.NewCorrelationID(),
		})
	})
	if err != nil {
		// The row never existed, so only the object needs cleaning up.
		if delErr := s.Store.Delete(ctx, storageKey); delErr != nil {
			telemetry.Warn("document.orphan_object", map[string]any{"storageKey": storageKey, "error": delErr.Error()})
		}
		return Document{}, fmt.Errorf("create document: %w", err)
	}

	metrics.IncDocumentsUploaded()
	telemetry.Info("document.uploaded", map[string]any{
		"documentId": doc.ID,
		"fileName":   doc.FileName,
		"fileSize":   doc.FileSize,
	})
	return doc, nil
}

// Get returns a single document.
func (s *Service) Get(ctx context.Context, id int64) (Document, error) {
	return s.Repo.GetByID(ctx, id)
}

// List returns all documents, newest first.
func (s *Service) List(ctx context.Context) ([]Document, error) {
	return s.Repo.List(ctx)
}

// Search matches the term against titles, file names, OCR text, summaries,
// and tag names.
func (s *Service) Search(ctx context.Context, term string) ([]Document, error) {
	return s.Repo.Search(ctx, term)
}

// Recent returns the newest count documents.
func (s *Service) Recent(ctx context.Context, count int) ([]Document, error) {
	return s.Repo.Recent(ctx, count)
}

// Update changes the title and, when tagIDs is non-nil, replaces the tag set.
func (s *Service) Update(ctx context.Context, id int64, title string, tagIDs []int64) (Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Document{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	return s.Repo.Update(ctx, id, title, tagIDs)
}

// Delete removes the metadata row and best-effort deletes the stored object.
func (s *Service) Delete(ctx context.Context, id int64) error {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
		telemetry.Warn("document.object_delete_failed", map[string]any{
			"documentId": id,
			"storageKey": doc.StorageKey,
			"error":      err.Error(),
		})
	}

	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}

	metrics.IncDocumentsDeleted()
	telemetry.Info("document.deleted", map[string]any{"documentId": id})
	return nil
}

const presignExpiry = 15 * time.Minute

// SignedDownloadURL returns a presigned URL for the stored file when the
// object store supports signing, recording the access. ok is false when the
// store cannot sign or the URL could not be issued; callers should fall back
// to streaming.
func (s *Service) SignedDownloadURL(ctx context.Context, id int64, access AccessLog) (string, bool) {
	signer, ok := s.Store.(object.URLSigner)
	if !ok {
		return "", false
	}

	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return "", false
	}

	url, err := signer.PresignGet(ctx, doc.StorageKey, presignExpiry)
	if err != nil {
		telemetry.Warn("document.presign_failed", map[string]any{"documentId": id, "error": err.Error()})
		return "", false
	}

	access.DocumentID = id
	if err := s.Repo.RecordAccess(ctx, access); err != nil {
		telemetry.Warn("document.access_log_failed", map[string]any{"documentId": id, "error": err.Error()})
	}
	return url, true
}

// OpenContent returns the stored file for streaming and records the access.
func (s *Service) OpenContent(ctx context.Context, id int64, access AccessLog) (Document, io.ReadCloser, error) {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Document{}, nil, err
	}

	rc, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return Document{}, nil, fmt.Errorf("open stored file: %w", err)
	}

	access.DocumentID = id
	if err := s.Repo.RecordAccess(ctx, access); err != nil {
		telemetry.Warn("document.access_log_failed", map[string]any{"documentId": id, "error": err.Error()})
	}
	return doc, rc, nil
}

// RecordView logs a metadata view without failing the request.
func (s *Service) RecordView(ctx context.Context, id int64, userAgent, ipAddress string) {
	err := s.Repo.RecordAccess(ctx, AccessLog{
		DocumentID: id,
		UserAgent:  userAgent,
		IPAddress:  ipAddress,
		ActionType: ActionView,
	})
	if err != nil {
		telemetry.Warn("document.access_log_failed", map[string]any{"documentId": id, "error": err.Error()})
	}
}

func (s *Service) extensionAllowed(ext string) bool {
	for _, allowed := range s.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func contentTypeFor(ext string) string {
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
