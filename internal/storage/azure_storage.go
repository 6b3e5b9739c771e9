package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureImageStore keeps label images in an Azure Blob container.
type AzureImageStore struct {
	client    *azblob.Client
	container string
	baseURL   string
}

func NewAzureImageStore(accountName, accountKey, container string) (*AzureImageStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, err
	}

	return &AzureImageStore{
		client:    client,
		container: container,
		baseURL:   serviceURL,
	}, nil
}

func (s *AzureImageStore) Save(ctx context.Context, filename string, data []byte) (StoredImage, error) {
	_, err := s.client.UploadBuffer(ctx, s.container, filename, data, nil)
	if err != nil {
		return StoredImage{}, fmt.Errorf("upload blob: %w", err)
	}
	return StoredImage{
		Ref: filename,
		URL: fmt.Sprintf("%s/%s/%s", s.baseURL, s.container, filename),
	}, nil
}

func (s *AzureImageStore) Read(ctx context.Context, ref string) ([]byte, error) {
	response, err := s.client.DownloadStream(ctx, s.container, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("download blob: %w", err)
	}
	defer response.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, response.Body); err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return buf.Bytes(), nil
}
