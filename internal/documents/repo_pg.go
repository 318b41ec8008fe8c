package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"paperless-backend/internal/tags"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, title, file_name, storage_key, upload_date, last_modified, file_type, file_size, ocr_text, summary, ocr_confidence, is_processed, is_indexed`

// Create inserts a document row and its outbox payload in one transaction.
func (r *PGRepo) Create(ctx context.Context, doc *Document, payload PayloadFunc) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const insertDoc = `
INSERT INTO documents (title, file_name, storage_key, upload_date, last_modified, file_type, file_size, is_processed, is_indexed)
VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, FALSE)
RETURNING id`

	err = tx.QueryRowContext(
		ctx,
		insertDoc,
		doc.Title,
		doc.FileName,
		doc.StorageKey,
		doc.UploadDate,
		doc.LastModified,
		doc.FileType,
		doc.FileSize,
	).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	body, err := payload(doc.ID)
	if err != nil {
		return fmt.Errorf("build job payload: %w", err)
	}

	const insertOutbox = `
INSERT INTO outbox (document_id, payload, created_at)
VALUES ($1, $2, $3)`

	if _, err := tx.ExecContext(ctx, insertOutbox, doc.ID, string(body), doc.UploadDate); err != nil {
		return fmt.Errorf("insert outbox row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByID fetches a document with its tags.
func (r *PGRepo) GetByID(ctx context.Context, id int64) (Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if err := r.loadTags(ctx, []*Document{&doc}); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// List returns all documents ordered newest-first.
func (r *PGRepo) List(ctx context.Context) ([]Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY upload_date DESC, id DESC`
	return r.queryDocuments(ctx, query)
}

// Search performs a case-insensitive substring match over title, file name,
// OCR text, summary, and tag names. An empty term returns all documents.
func (r *PGRepo) Search(ctx context.Context, term string) ([]Document, error) {
	if strings.TrimSpace(term) == "" {
		return r.List(ctx)
	}

	query := `
SELECT ` + documentColumns + `
FROM documents d
WHERE d.title ILIKE $1 ESCAPE '\'
   OR d.file_name ILIKE $1 ESCAPE '\'
   OR d.ocr_text ILIKE $1 ESCAPE '\'
   OR d.summary ILIKE $1 ESCAPE '\'
   OR EXISTS (
        SELECT 1 FROM document_tags dt
        JOIN tags t ON t.id = dt.tag_id
        WHERE dt.document_id = d.id AND t.name ILIKE $1 ESCAPE '\'
   )
ORDER BY d.upload_date DESC, d.id DESC`

	pattern := "%" + escapeLike(term) + "%"
	return r.queryDocuments(ctx, query, pattern)
}

// escapeLike neutralizes LIKE metacharacters so the term matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// Recent returns the newest count documents.
func (r *PGRepo) Recent(ctx context.Context, count int) ([]Document, error) {
	if count <= 0 {
		count = 10
	}
	if count > 100 {
		count = 100
	}
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY upload_date DESC, id DESC LIMIT $1`
	return r.queryDocuments(ctx, query, count)
}

// Update sets the title, bumps last_modified, and replaces the tag set when
// tagIDs is non-nil.
func (r *PGRepo) Update(ctx context.Context, id int64, title string, tagIDs []int64) (Document, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const update = `
UPDATE documents SET title = $1, last_modified = $2 WHERE id = $3`

	res, err := tx.ExecContext(ctx, update, title, time.Now().UTC(), id)
	if err != nil {
		return Document{}, fmt.Errorf("update document: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return Document{}, ErrNotFound
	}

	if tagIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM document_tags WHERE document_id = $1`, id); err != nil {
			return Document{}, fmt.Errorf("clear document tags: %w", err)
		}
		for _, tagID := range tagIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO document_tags (document_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				id, tagID,
			); err != nil {
				return Document{}, fmt.Errorf("attach tag %d: %w", tagID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("commit: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes a document row. Tag links and access logs cascade.
func (r *PGRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkProcessed stores the extracted text and flips is_processed.
func (r *PGRepo) MarkProcessed(ctx context.Context, id int64, text string, confidence float64) error {
	const query = `
UPDATE documents
SET ocr_text = $1, ocr_confidence = $2, is_processed = TRUE, last_modified = $3
WHERE id = $4`

	res, err := r.DB.ExecContext(ctx, query, text, confidence, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed records an error marker without flipping is_processed.
func (r *PGRepo) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	const query = `
UPDATE documents
SET summary = $1, is_processed = FALSE, last_modified = $2
WHERE id = $3`

	res, err := r.DB.ExecContext(ctx, query, "[ocr-error] "+errorMessage, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordAccess appends an access-log row.
func (r *PGRepo) RecordAccess(ctx context.Context, entry AccessLog) error {
	const query = `
INSERT INTO document_access (document_id, access_date, user_agent, ip_address, action_type)
VALUES ($1, $2, $3, $4, $5)`

	accessDate := entry.AccessDate
	if accessDate.IsZero() {
		accessDate = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx, query, entry.DocumentID, accessDate, nullString(entry.UserAgent), nullString(entry.IPAddress), entry.ActionType)
	if err != nil {
		return fmt.Errorf("record access: %w", err)
	}
	return nil
}

func (r *PGRepo) queryDocuments(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*Document, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := r.loadTags(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

// loadTags attaches tag rows to the given documents in one query.
func (r *PGRepo) loadTags(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	byID := make(map[int64]*Document, len(docs))
	placeholders := make([]string, 0, len(docs))
	args := make([]any, 0, len(docs))
	for i, doc := range docs {
		byID[doc.ID] = doc
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, doc.ID)
	}

	query := `
SELECT dt.document_id, t.id, t.name, t.description, t.color, t.created_at
FROM document_tags dt
JOIN tags t ON t.id = dt.tag_id
WHERE dt.document_id IN (` + strings.Join(placeholders, ", ") + `)
ORDER BY t.name`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var docID int64
		var tag tags.Tag
		var description sql.NullString
		if err := rows.Scan(&docID, &tag.ID, &tag.Name, &description, &tag.Color, &tag.CreatedAt); err != nil {
			return err
		}
		if description.Valid {
			tag.Description = description.String
		}
		if doc, ok := byID[docID]; ok {
			doc.Tags = append(doc.Tags, tag)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var lastModified sql.NullTime
	var ocrText, summary sql.NullString
	var confidence sql.NullFloat64
	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.FileName,
		&doc.StorageKey,
		&doc.UploadDate,
		&lastModified,
		&doc.FileType,
		&doc.FileSize,
		&ocrText,
		&summary,
		&confidence,
		&doc.IsProcessed,
		&doc.IsIndexed,
	)
	if err != nil {
		return Document{}, err
	}
	if lastModified.Valid {
		doc.LastModified = &lastModified.Time
	}
	if ocrText.Valid {
		doc.OCRText = ocrText.String
	}
	if summary.Valid {
		doc.Summary = summary.String
	}
	if confidence.Valid {
		doc.OCRConfidence = &confidence.Float64
	}
	return doc, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
