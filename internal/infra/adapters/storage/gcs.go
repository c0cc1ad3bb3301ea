package storage

import (
	"context"
	"fmt"
	"strings"

	gcs "cloud.google.com/go/storage"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.MediaStore = (*GCSMediaStore)(nil)

// GCSMediaStore writes generated images into a Cloud Storage bucket and
// hands back the public object URL.
type GCSMediaStore struct {
	client  *gcs.Client
	bucket  string
	baseURL string
}

// NewGCSMediaStore connects to the bucket. publicBaseURL overrides the
// default storage.googleapis.com URL when the bucket sits behind a CDN.
func NewGCSMediaStore(ctx context.Context, bucket, publicBaseURL string) (*GCSMediaStore, error) {
	if bucket == "" {
		return nil, domain.ErrInvalidArgument
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	if publicBaseURL == "" {
		publicBaseURL = "https://storage.googleapis.com/" + bucket
	}
	return &GCSMediaStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}, nil
}

func (s *GCSMediaStore) Put(ctx context.Context, object string, data []byte, mimeType string) (string, error) {
	if object == "" || len(data) == 0 {
		return "", domain.ErrInvalidArgument
	}

	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = mimeType
	// Same object name means same plan+spot; last write winning is the
	// behavior we want for a regenerated image.
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object %s: %w", object, err)
	}
	return s.baseURL + "/" + object, nil
}

func (s *GCSMediaStore) Close() error { return s.client.Close() }
