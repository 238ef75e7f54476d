// Package minio implements the object-store adapter against an S3-compatible
// bucket (Cloudflare R2 in production) via the MinIO client.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"image-pipeline/internal/config"
	repoImage "image-pipeline/internal/repository/image"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
)

type FileRepository struct {
	client  *minio.Client
	bucket  string
	retries retry.Strategy
}

func NewFileRepository(cfg config.StorageConfig, retries retry.Strategy) (*FileRepository, error) {
	client, err := minio.New(cfg.Endpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &FileRepository{
		client:  client,
		bucket:  cfg.Bucket,
		retries: retries,
	}, nil
}

// Exists is a metadata-only HEAD probe. Absence is not an error; it is the
// expected cache-miss signal.
func (r *FileRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.client.StatObject(ctx, r.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat %s: %v", repoImage.ErrStorageRead, key, err)
	}
	return true, nil
}

// Save uploads with an immutable cache-control directive. Writes are retried
// with the bounded strategy; a missing rendition breaks image display, so
// exhausted retries propagate as a write failure.
func (r *FileRepository) Save(ctx context.Context, key string, data []byte, contentType string) error {
	err := retry.Do(func() error {
		_, putErr := r.client.PutObject(ctx, r.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType:  contentType,
			CacheControl: "public, max-age=31536000, immutable",
		})
		return putErr
	}, r.retries)
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", repoImage.ErrStorageWrite, key, err)
	}
	return nil
}

// Get reads an object fully into memory. Payloads here are web-image-sized,
// so buffering is fine.
func (r *FileRepository) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := r.client.GetObject(ctx, r.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", repoImage.ErrStorageRead, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", repoImage.ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("%w: read %s: %v", repoImage.ErrStorageRead, key, err)
	}
	return data, nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey"
}
