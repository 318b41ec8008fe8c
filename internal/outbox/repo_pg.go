package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) PendingEntries(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `
SELECT id, document_id, payload, attempts, created_at
FROM outbox
WHERE sent_at IS NULL
ORDER BY id
LIMIT $1`

	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		var payload string
		if err := rows.Scan(&entry.ID, &entry.DocumentID, &payload, &entry.Attempts, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Payload = []byte(payload)
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (r *PGRepo) MarkSent(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE outbox SET sent_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	return nil
}

func (r *PGRepo) MarkAttempt(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE outbox SET attempts = attempts + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark outbox attempt: %w", err)
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
