package images

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// ObjectStore uploads image bytes to durable storage and returns a public
// URL. Uploads are upserts: writing the same path twice overwrites.
type ObjectStore interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}

// GCSStore stores images in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates an ObjectStore backed by the given bucket.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Upload writes data to the bucket at objectPath and returns the public URL.
func (s *GCSStore) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	writer := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("failed to write object %s: %w", objectPath, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", objectPath, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectPath), nil
}

// Close releases the underlying storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
