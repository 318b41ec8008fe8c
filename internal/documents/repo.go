package documents

import "context"

// PayloadFunc builds the outbox payload for a freshly assigned document id.
type PayloadFunc func(documentID int64) ([]byte, error)

// Repo defines persistence operations for documents. Create stages the job
// payload atomically with the document row so a publish failure can never
// orphan a record.
type Repo interface {
	Create(ctx context.Context, doc *Document, payload PayloadFunc) error
	GetByID(ctx context.Context, id int64) (Document, error)
	List(ctx context.Context) ([]Document, error)
	Search(ctx context.Context, term string) ([]Document, error)
	Recent(ctx context.Context, count int) ([]Document, error)
	Update(ctx context.Context, id int64, title string, tagIDs []int64) (Document, error)
	Delete(ctx context.Context, id int64) error
	MarkProcessed(ctx context.Context, id int64, text string, confidence float64) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
	RecordAccess(ctx context.Context, entry AccessLog) error
}
