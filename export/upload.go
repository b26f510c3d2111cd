package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/api/option"
)

// Uploader mirrors exported files to a Cloud Storage bucket.
type Uploader struct {
	client *storage.Client
	bucket string
	logger *slog.Logger
}

// NewUploader creates an uploader for bucket. credentialsFile may be empty,
// in which case ambient application-default credentials apply.
func NewUploader(ctx context.Context, bucket, credentialsFile string, logger *slog.Logger) (*Uploader, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Uploader{client: client, bucket: bucket, logger: logger}, nil
}

// Upload copies the file at path into the bucket under its base name.
func (u *Uploader) Upload(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read export for upload: %w", err)
	}
	key := filepath.Base(path)

	err = retry.Do(
		func() error {
			w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
			if _, writeErr := w.Write(data); writeErr != nil {
				if closeErr := w.Close(); closeErr != nil {
					u.logger.Warn("closing writer after error failed", "error", closeErr)
				}
				return fmt.Errorf("write to storage: %w", writeErr)
			}
			if closeErr := w.Close(); closeErr != nil {
				return fmt.Errorf("close storage writer: %w", closeErr)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, retryErr error) {
			u.logger.Info("retrying upload after error", "attempt", n, "key", key, "error", retryErr)
		}),
	)
	if err != nil {
		return fmt.Errorf("upload after retries: %w", err)
	}

	u.logger.Info("uploaded export", "bucket", u.bucket, "key", key, "bytes", len(data))
	return nil
}

// Close releases the storage client.
func (u *Uploader) Close() error {
	return u.client.Close()
}
