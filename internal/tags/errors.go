package tags

import "errors"

var (
	ErrNotFound      = errors.New("tag not found")
	ErrDuplicateName = errors.New("tag name already exists")
	ErrInvalidInput  = errors.New("invalid tag input")
)
