package storage

import (
	"context"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.MediaStore = (*NoopMediaStore)(nil)

// NoopMediaStore discards the bytes and returns a fake URL, letting dev
// runs exercise the whole job pipeline without a bucket.
type NoopMediaStore struct{}

func NewNoopMediaStore() *NoopMediaStore { return &NoopMediaStore{} }

func (s *NoopMediaStore) Put(ctx context.Context, object string, data []byte, mimeType string) (string, error) {
	if object == "" || len(data) == 0 {
		return "", domain.ErrInvalidArgument
	}
	return "noop://media/" + object, nil
}
