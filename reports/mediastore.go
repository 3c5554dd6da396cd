package reports

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MediaStore persists the preview media of a report and returns the URL the
// client displays.
type MediaStore interface {
	Save(ctx context.Context, reportID int64, mimeType string, data []byte) (string, error)
}

// DataURLStore inlines the media as a data: URL.
type DataURLStore struct{}

func (DataURLStore) Save(_ context.Context, _ int64, mimeType string, data []byte) (string, error) {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// MinioStore uploads media to a MinIO/S3 bucket and hands out pre-signed GET
// URLs.
type MinioStore struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
}

// NewMinioStore connects to MinIO and ensures the bucket exists.
func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, ttl time.Duration) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MinioStore{client: client, bucket: bucket, ttl: ttl}, nil
}

func (m *MinioStore) Save(ctx context.Context, reportID int64, mimeType string, data []byte) (string, error) {
	key := ObjectKey(reportID, mimeType)
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: mimeType})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	url, err := m.client.PresignedGetObject(ctx, m.bucket, key, m.ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return url.String(), nil
}

// ObjectKey names the stored object of a report.
func ObjectKey(reportID int64, mimeType string) string {
	ext := ""
	if m := mimetype.Lookup(mimeType); m != nil {
		ext = m.Extension()
	}
	return fmt.Sprintf("reports/%d%s", reportID, ext)
}
