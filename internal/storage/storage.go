// Package storage persists uploaded label images. One scan writes its
// image exactly once and the recognition step reads it exactly once.
package storage

import "context"

// StoredImage identifies a persisted image. Ref is what Read accepts;
// URL is the externally visible location recorded on the scan.
type StoredImage struct {
	Ref string
	URL string
}

// ImageStore abstracts the durable image backend.
type ImageStore interface {
	Save(ctx context.Context, filename string, data []byte) (StoredImage, error)
	Read(ctx context.Context, ref string) ([]byte, error)
}
