package ai

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"

	"github.com/skyfield/missionforge/pkg/domain/ai"
)

const (
	completionTimeout = 120 * time.Second
	imageTimeout      = 180 * time.Second
)

// ResilientProvider bounds every backend call with a timeout. Failed calls
// are not retried: a generation batch surfaces its error to the caller
// instead of silently burning quota on a bad prompt.
type ResilientProvider struct {
	inner ai.Provider
}

func NewResilientProvider(inner ai.Provider) *ResilientProvider {
	return &ResilientProvider{inner: inner}
}

func (p *ResilientProvider) ID() string {
	return p.inner.ID()
}

func (p *ResilientProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	t := timeout.New[*ai.CompletionResponse](timeout.Config{
		DefaultTimeout: completionTimeout,
	})
	return t.Execute(ctx, completionTimeout, func(ctx context.Context) (*ai.CompletionResponse, error) {
		return p.inner.Complete(ctx, req)
	})
}

// GenerateImage delegates to the wrapped provider when it supports image
// synthesis.
func (p *ResilientProvider) GenerateImage(ctx context.Context, req ai.ImageRequest) (*ai.Image, error) {
	imager, ok := p.inner.(ai.ImageProvider)
	if !ok {
		return nil, ai.ErrImagesUnsupported
	}
	t := timeout.New[*ai.Image](timeout.Config{
		DefaultTimeout: imageTimeout,
	})
	return t.Execute(ctx, imageTimeout, func(ctx context.Context) (*ai.Image, error) {
		return imager.GenerateImage(ctx, req)
	})
}
