package sink

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSConfig selects the destination bucket. When CredentialsFile is
// empty the client falls back to application default credentials.
type GCSConfig struct {
	Bucket          string `json:"bucket"`
	CredentialsFile string `json:"credentials_file"`
}

// GCSUploader writes objects to a Google Cloud Storage bucket.
type GCSUploader struct {
	client *storage.Client
	bucket string
}

func NewGCSUploader(ctx context.Context, cfg GCSConfig) (*GCSUploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &GCSUploader{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, object string, data io.Reader) error {
	w := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)

	if _, err := io.Copy(w, data); err != nil {
		w.Close()
		return fmt.Errorf("write object %q: %w", object, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize object %q: %w", object, err)
	}

	return nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}
