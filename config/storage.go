package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Archive stores uploaded source files in a GCS bucket.
type Archive struct {
	client *storage.Client
	bucket string
}

// NewArchive returns nil, nil when bucket is empty (archiving disabled).
// Prefers ADC; set GCS_CREDENTIALS_JSON to pass explicit credentials (e.g. locally).
func NewArchive(ctx context.Context, bucket string) (*Archive, error) {
	if bucket == "" {
		return nil, nil
	}
	var (
		client *storage.Client
		err    error
	)
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, err
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("gcs bucket %q not found or not accessible: %v", bucket, err)
	}
	return &Archive{client: client, bucket: bucket}, nil
}

// Put writes data under objectName and returns the gs:// URI.
func (a *Archive) Put(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	wc := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", a.bucket, objectName), nil
}

func (a *Archive) Close() error {
	if a == nil {
		return nil
	}
	return a.client.Close()
}
