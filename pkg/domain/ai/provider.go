// Package ai defines the contract between the editor and generative
// backends.
package ai

import (
	"context"
	"errors"
)

// ErrImagesUnsupported is returned when image synthesis is requested from a
// backend that only supports text.
var ErrImagesUnsupported = errors.New("ai: backend does not support image generation")

// CompletionRequest represents a prompt to the generative service.
type CompletionRequest struct {
	Prompt      string
	System      string
	Temperature float32
	MaxTokens   int
	// JSONOutput asks the backend for an application/json response so the
	// caller can schema-validate it directly.
	JSONOutput bool
}

// CompletionResponse represents the service's answer.
type CompletionResponse struct {
	Text  string
	Model string
	Usage TokenUsage
}

// TokenUsage tracks consumption per call.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Provider is the interface for all generative backends.
type Provider interface {
	ID() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// ImageRequest asks an image-capable backend to render a scene.
type ImageRequest struct {
	Prompt      string
	AspectRatio string // "16:9" for forward imagery, "1:1" for ground imagery
}

// Image is the rendered result.
type Image struct {
	MIMEType string
	Data     []byte
}

// ImageProvider is implemented by backends that can synthesize waypoint
// imagery.
type ImageProvider interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*Image, error)
}
