package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/visaport/docserve/internal/config"
)

const defaultObjectStoreTimeout = 5 * time.Second

// NewMinIOClient establishes a MinIO client using the provided configuration.
func NewMinIOClient(cfg config.MinIOConfig) (*minio.Client, error) {
	endpoint := cfg.Endpoint
	if !strings.Contains(endpoint, ":") {
		// default to MinIO API port when not supplied explicitly
		endpoint = fmt.Sprintf("%s:9000", endpoint)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return client, nil
}

// EnsureBucket ensures the target bucket exists, creating it if necessary.
func EnsureBucket(ctx context.Context, client *minio.Client, bucket, region string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultObjectStoreTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}

	if exists {
		return nil
	}

	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %q: %w", bucket, err)
	}

	return nil
}

// MinIOStore keeps uploads as objects in a single bucket, keyed by the same
// <ownerID>/<generatedName> layout the disk store uses.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOStore wraps a MinIO client as a Store.
func NewMinIOStore(client *minio.Client, bucket string) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucket}
}

// Save uploads the reader's content as an object.
func (m *MinIOStore) Save(ctx context.Context, relPath string, r io.Reader, size int64, contentType string) (int64, error) {
	rel, err := CleanRelPath(relPath)
	if err != nil {
		return 0, err
	}

	info, err := m.client.PutObject(ctx, m.bucket, rel, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return 0, fmt.Errorf("store object: %w", err)
	}
	return info.Size, nil
}

// Open returns the object's content and metadata.
func (m *MinIOStore) Open(ctx context.Context, relPath string) (io.ReadCloser, FileInfo, error) {
	rel, err := CleanRelPath(relPath)
	if err != nil {
		return nil, FileInfo{}, err
	}

	stat, err := m.client.StatObject(ctx, m.bucket, rel, minio.StatObjectOptions{})
	if err != nil {
		return nil, FileInfo{}, translateMinIOError(err)
	}

	object, err := m.client.GetObject(ctx, m.bucket, rel, minio.GetObjectOptions{})
	if err != nil {
		return nil, FileInfo{}, fmt.Errorf("fetch object: %w", err)
	}

	contentType := stat.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return object, FileInfo{
		SizeBytes:   stat.Size,
		ContentType: contentType,
		ModifiedAt:  stat.LastModified,
	}, nil
}

// Delete removes the object.
func (m *MinIOStore) Delete(ctx context.Context, relPath string) error {
	rel, err := CleanRelPath(relPath)
	if err != nil {
		return err
	}

	if _, err := m.client.StatObject(ctx, m.bucket, rel, minio.StatObjectOptions{}); err != nil {
		return translateMinIOError(err)
	}

	if err := m.client.RemoveObject(ctx, m.bucket, rel, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// Probe verifies the bucket is reachable.
func (m *MinIOStore) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultObjectStoreTimeout)
	defer cancel()

	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", m.bucket)
	}
	return nil
}

func translateMinIOError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
		return ErrNotFound
	}
	return fmt.Errorf("object store: %w", err)
}
