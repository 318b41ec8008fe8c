package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const tagColumns = `id, name, description, color, created_at`

func (r *PGRepo) Create(ctx context.Context, tag *Tag) error {
	const query = `
INSERT INTO tags (name, description, color, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id`

	err := r.DB.QueryRowContext(ctx, query, tag.Name, nullString(tag.Description), tag.Color, tag.CreatedAt).Scan(&tag.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("insert tag: %w", err)
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags WHERE id = $1`
	tag, err := scanTag(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tag{}, ErrNotFound
		}
		return Tag{}, err
	}
	return tag, nil
}

func (r *PGRepo) GetByIDs(ctx context.Context, ids []int64) ([]Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, id)
	}

	query := `SELECT ` + tagColumns + ` FROM tags WHERE id IN (` + strings.Join(placeholders, ", ") + `) ORDER BY name`
	return r.queryTags(ctx, query, args...)
}

func (r *PGRepo) List(ctx context.Context) ([]Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags ORDER BY name`
	return r.queryTags(ctx, query)
}

func (r *PGRepo) Update(ctx context.Context, tag Tag) (Tag, error) {
	const query = `
UPDATE tags SET name = $1, description = $2, color = $3 WHERE id = $4`

	res, err := r.DB.ExecContext(ctx, query, tag.Name, nullString(tag.Description), tag.Color, tag.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return Tag{}, ErrDuplicateName
		}
		return Tag{}, fmt.Errorf("update tag: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return Tag{}, ErrNotFound
	}
	return r.GetByID(ctx, tag.ID)
}

func (r *PGRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) queryTags(ctx context.Context, query string, args ...any) ([]Tag, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTag(row rowScanner) (Tag, error) {
	var tag Tag
	var description sql.NullString
	if err := row.Scan(&tag.ID, &tag.Name, &description, &tag.Color, &tag.CreatedAt); err != nil {
		return Tag{}, err
	}
	if description.Valid {
		tag.Description = description.String
	}
	return tag, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
