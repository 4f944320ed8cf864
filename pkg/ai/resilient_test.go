package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/skyfield/missionforge/pkg/domain/ai"
)

type stubProvider struct {
	resp *ai.CompletionResponse
	err  error
}

func (s *stubProvider) ID() string { return "stub" }

func (s *stubProvider) Complete(_ context.Context, _ ai.CompletionRequest) (*ai.CompletionResponse, error) {
	return s.resp, s.err
}

type stubImageProvider struct {
	stubProvider
	image *ai.Image
}

func (s *stubImageProvider) GenerateImage(_ context.Context, _ ai.ImageRequest) (*ai.Image, error) {
	return s.image, nil
}

func TestResilientProvider_PassesThroughResponse(t *testing.T) {
	inner := &stubProvider{resp: &ai.CompletionResponse{Text: "{}", Model: "stub"}}
	p := NewResilientProvider(inner)

	resp, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Text != "{}" {
		t.Errorf("Text = %q, want {}", resp.Text)
	}
	if p.ID() != "stub" {
		t.Errorf("ID() = %q, want stub", p.ID())
	}
}

func TestResilientProvider_DoesNotRetryFailures(t *testing.T) {
	calls := 0
	inner := &countingProvider{calls: &calls}
	p := NewResilientProvider(inner)

	_, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("backend called %d times, want exactly 1", calls)
	}
}

type countingProvider struct {
	calls *int
}

func (c *countingProvider) ID() string { return "counting" }

func (c *countingProvider) Complete(_ context.Context, _ ai.CompletionRequest) (*ai.CompletionResponse, error) {
	*c.calls++
	return nil, errors.New("backend unavailable")
}

func TestResilientProvider_ImageOnTextOnlyBackend(t *testing.T) {
	p := NewResilientProvider(&stubProvider{})

	_, err := p.GenerateImage(context.Background(), ai.ImageRequest{Prompt: "a house"})
	if !errors.Is(err, ai.ErrImagesUnsupported) {
		t.Errorf("error = %v, want ErrImagesUnsupported", err)
	}
}

func TestResilientProvider_ImageDelegates(t *testing.T) {
	inner := &stubImageProvider{image: &ai.Image{MIMEType: "image/png", Data: []byte{1, 2}}}
	p := NewResilientProvider(inner)

	img, err := p.GenerateImage(context.Background(), ai.ImageRequest{Prompt: "a house", AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("GenerateImage() error = %v", err)
	}
	if img.MIMEType != "image/png" || len(img.Data) != 2 {
		t.Errorf("unexpected image: %+v", img)
	}
}
