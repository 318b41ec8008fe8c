package tags

import "time"

// Tag labels documents for filtering and search.
type Tag struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DefaultColor is applied when a tag is created without one.
const DefaultColor = "#007bff"
