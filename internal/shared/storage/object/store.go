package object

import (
	"context"
	"io"
	"time"
)

// ObjectStore defines the contract for saving and retrieving binary objects
// under caller-chosen storage keys.
type ObjectStore interface {
	Save(ctx context.Context, storageKey string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Exists(ctx context.Context, storageKey string) (bool, error)
	Delete(ctx context.Context, storageKey string) error
}

// URLSigner is implemented by stores that can issue presigned download URLs.
type URLSigner interface {
	PresignGet(ctx context.Context, storageKey string, expires time.Duration) (string, error)
}
