// Package ocr extracts text from uploaded documents.
package ocr

import "context"

// Result holds extracted text and a confidence score between 0 and 1.
// Extractions from digital text layers report a confidence of 1.
type Result struct {
	Text       string
	Confidence float64
}

// Engine turns stored file bytes into text.
type Engine interface {
	// Available reports whether the engine can process jobs right now.
	Available(ctx context.Context) error
	// Extract pulls text from the payload. fileType is a lowercase
	// extension including the dot, such as ".pdf".
	Extract(ctx context.Context, data []byte, fileType string) (Result, error)
}
