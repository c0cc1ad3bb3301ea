package adapter

import "context"

// MediaStore persists generated image bytes and returns a stable,
// user-servable reference (URL or path).
type MediaStore interface {
	Put(ctx context.Context, object string, data []byte, mimeType string) (string, error)
}
