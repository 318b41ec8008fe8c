package tags

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory Repo used for tests and store-less development.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	tags   map[int64]Tag
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tags: make(map[int64]Tag)}
}

func (r *MemoryRepo) Create(_ context.Context, tag *Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.tags {
		if strings.EqualFold(existing.Name, tag.Name) {
			return ErrDuplicateName
		}
	}
	r.nextID++
	tag.ID = r.nextID
	r.tags[tag.ID] = *tag
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id int64) (Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tag, ok := r.tags[id]
	if !ok {
		return Tag{}, ErrNotFound
	}
	return tag, nil
}

func (r *MemoryRepo) GetByIDs(_ context.Context, ids []int64) ([]Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Tag
	for _, id := range ids {
		if tag, ok := r.tags[id]; ok {
			out = append(out, tag)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) List(_ context.Context) ([]Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Tag, 0, len(r.tags))
	for _, tag := range r.tags {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) Update(_ context.Context, tag Tag) (Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tags[tag.ID]
	if !ok {
		return Tag{}, ErrNotFound
	}
	for id, other := range r.tags {
		if id != tag.ID && strings.EqualFold(other.Name, tag.Name) {
			return Tag{}, ErrDuplicateName
		}
	}
	tag.CreatedAt = existing.CreatedAt
	r.tags[tag.ID] = tag
	return tag, nil
}

func (r *MemoryRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tags[id]; !ok {
		return ErrNotFound
	}
	delete(r.tags, id)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
