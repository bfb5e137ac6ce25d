// Package azure keeps the persisted keys in Azure Storage, either as blobs
// or as entities of a table.
package azure

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"fintrack/internal/azauth"
	"fintrack/internal/store"
)

// blobAPI is the slice of azblob the store needs.
type blobAPI interface {
	download(ctx context.Context, container, name string) ([]byte, error)
	upload(ctx context.Context, container, name string, data []byte) error
}

// BlobStore writes one blob per key, named <key>.json.
type BlobStore struct {
	api       blobAPI
	container string
}

var _ store.KeyValueStore = (*BlobStore)(nil)

// NewBlobStore connects to serviceURL and makes sure container exists.
func NewBlobStore(ctx context.Context, serviceURL, container string) (*BlobStore, error) {
	if serviceURL == "" {
		return nil, fmt.Errorf("blob service url is required")
	}

	var client *azblob.Client
	if azauth.IsLocal(serviceURL) {
		slog.Info("using Azurite shared key credentials for blob store")
		name, key := azauth.Azurite()
		cred, err := azblob.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("create blob client with shared key: %w", err)
		}
	} else {
		cred, err := azauth.Default()
		if err != nil {
			return nil, fmt.Errorf("create default azure credential: %w", err)
		}
		client, err = azblob.NewClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("create blob client: %w", err)
		}
	}

	if _, err := client.CreateContainer(ctx, container, nil); err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("create container %s: %w", container, err)
	}

	return &BlobStore{api: &blobClient{client: client}, container: container}, nil
}

func (s *BlobStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.api.download(ctx, s.container, blobName(key))
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("download blob %s/%s: %w", s.container, blobName(key), err)
	}
	return data, true, nil
}

func (s *BlobStore) Save(ctx context.Context, key string, value []byte) error {
	if err := s.api.upload(ctx, s.container, blobName(key), value); err != nil {
		return fmt.Errorf("upload blob %s/%s: %w", s.container, blobName(key), err)
	}
	return nil
}

func blobName(key string) string {
	return key + ".json"
}

type blobClient struct {
	client *azblob.Client
}

func (c *blobClient) download(ctx context.Context, container, name string) ([]byte, error) {
	resp, err := c.client.DownloadStream(ctx, container, name, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *blobClient) upload(ctx context.Context, container, name string, data []byte) error {
	_, err := c.client.UploadBuffer(ctx, container, name, data, nil)
	return err
}
