// Package recognition wraps the third-party OCR engine behind a small
// adapter interface so the pipeline never touches engine internals.
package recognition

import "context"

// Result carries the raw recognized text and the engine's confidence
// estimate in the 0-100 range.
type Result struct {
	Text       string
	Confidence float64
}

// Engine converts image bytes into text. Implementations must be safe
// for concurrent use; the pipeline calls Recognize from worker
// goroutines.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (Result, error)
	Close() error
}
