package tags

import "context"

// Repo persists tags.
type Repo interface {
	Create(ctx context.Context, tag *Tag) error
	GetByID(ctx context.Context, id int64) (Tag, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Tag, error)
	List(ctx context.Context) ([]Tag, error)
	Update(ctx context.Context, tag Tag) (Tag, error)
	Delete(ctx context.Context, id int64) error
}
