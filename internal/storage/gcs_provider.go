package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const snapshotContentType = "application/json; charset=utf-8"

// GCSProvider mirrors snapshots into a Google Cloud Storage bucket.
type GCSProvider struct {
	Client     *storage.Client
	BucketName string
	Logger     *zap.Logger
}

// NewGCSProvider creates a client and verifies the bucket is reachable.
// Credentials come from Application Default Credentials unless opts say otherwise.
func NewGCSProvider(ctx context.Context, bucketName string, logger *zap.Logger, opts ...option.ClientOption) (*GCSProvider, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	if _, err := client.Bucket(bucketName).Attrs(ctx); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close GCS client after bucket check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("failed to get GCS bucket '%s' attributes: %w", bucketName, err)
	}

	return &GCSProvider{
		Client:     client,
		BucketName: bucketName,
		Logger:     logger,
	}, nil
}

// Save uploads data to objectName in the bucket.
func (g *GCSProvider) Save(ctx context.Context, objectName string, data []byte) error {
	wc := g.Client.Bucket(g.BucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = snapshotContentType

	if _, err := wc.Write(data); err != nil {
		if closeErr := wc.Close(); closeErr != nil && g.Logger != nil {
			g.Logger.Warn("close GCS writer after write failure",
				zap.String("object", objectName), zap.Error(closeErr))
		}
		return fmt.Errorf("failed to write data to GCS object %s: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for object %s: %w", objectName, err)
	}
	return nil
}

// Close releases the underlying client.
func (g *GCSProvider) Close() error {
	if g.Client == nil {
		return nil
	}
	if err := g.Client.Close(); err != nil {
		return fmt.Errorf("close GCS client: %w", err)
	}
	return nil
}
