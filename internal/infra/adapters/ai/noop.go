package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/adapter"
)

// Compile-time assurance the noop adapters satisfy their ports
var (
	_ adapter.GuideWriter   = (*NoopGuideWriter)(nil)
	_ adapter.ImageModel    = (*NoopImageModel)(nil)
	_ adapter.PromptBuilder = (*NoopPromptBuilder)(nil)
)

// NoopGuideWriter fabricates a tiny guide for local/dev runs without any
// AI credentials.
type NoopGuideWriter struct{}

func NewNoopGuideWriter() *NoopGuideWriter { return &NoopGuideWriter{} }

func (w *NoopGuideWriter) ComposeGuide(ctx context.Context, destination string, days int, interests []string) ([]adapter.SpotDraft, error) {
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	n := days * 2
	if n < 2 {
		n = 2
	}
	if n > 8 {
		n = 8
	}
	out := make([]adapter.SpotDraft, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, adapter.SpotDraft{
			Name:        fmt.Sprintf("%s Landmark %d", destination, i+1),
			Description: fmt.Sprintf("A placeholder point of interest in %s for dev runs.", destination),
		})
	}
	return out, nil
}

// NoopImageModel returns a fixed 1x1 PNG.
type NoopImageModel struct{}

func NewNoopImageModel() *NoopImageModel { return &NoopImageModel{} }

func (m *NoopImageModel) Provider() string { return "noop" }

// tinyPNG is a valid 1x1 transparent PNG.
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func (m *NoopImageModel) Generate(ctx context.Context, prompt string) (*adapter.Image, error) {
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &adapter.Image{Data: tinyPNG, MIMEType: "image/png"}, nil
}

// NoopPromptBuilder skips tokenization entirely; used when the encoding
// asset cannot be loaded or in tests.
type NoopPromptBuilder struct{}

func NewNoopPromptBuilder() *NoopPromptBuilder { return &NoopPromptBuilder{} }

func (b *NoopPromptBuilder) BuildSpotPrompt(destination, spotName, description string) (string, int) {
	p := fmt.Sprintf(spotPromptHeader, spotName, destination)
	return p, len(p) / 4
}
