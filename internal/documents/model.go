package documents

import (
	"time"

	"paperless-backend/internal/tags"
)

// Document represents a file tracked by the document management system.
// The storage key is a weak reference into the object store; no integrity
// is enforced between the two stores.
type Document struct {
	ID            int64
	Title         string
	FileName      string
	StorageKey    string
	UploadDate    time.Time
	LastModified  *time.Time
	FileType      string
	FileSize      int64
	OCRText       string
	Summary       string
	OCRConfidence *float64
	IsProcessed   bool
	IsIndexed     bool
	Tags          []tags.Tag
}

// AccessLog records a single access to a document. Rows are append-only and
// cascade-deleted with the owning document.
type AccessLog struct {
	ID         int64
	DocumentID int64
	AccessDate time.Time
	UserAgent  string
	IPAddress  string
	ActionType string
}

// Access action types.
const (
	ActionView     = "View"
	ActionDownload = "Download"
)
