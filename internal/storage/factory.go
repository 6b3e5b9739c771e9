package storage

import (
	"fmt"

	"go-label-scan/internal/config"
)

// BackendType represents the available image storage backends
type BackendType string

const (
	// LocalBackend writes images to the local filesystem
	LocalBackend BackendType = "local"
	// AzureBackend keeps images in Azure Blob storage
	AzureBackend BackendType = "azure"
)

// NewImageStore creates the store selected by configuration.
func NewImageStore(cfg *config.Config) (ImageStore, error) {
	switch BackendType(cfg.StorageBackend) {
	case LocalBackend:
		return NewLocalImageStore(cfg.UploadDir)
	case AzureBackend:
		return NewAzureImageStore(cfg.AzureAccountName, cfg.AzureAccountKey, cfg.AzureContainer)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}
