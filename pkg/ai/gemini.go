// Package ai implements generative backends for mission synthesis.
package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	genai "google.golang.org/genai"

	"github.com/skyfield/missionforge/pkg/domain"
	"github.com/skyfield/missionforge/pkg/domain/ai"
)

const (
	defaultTextModel  = "gemini-2.5-flash"
	defaultImageModel = "gemini-2.0-flash-preview-image-generation"

	// One request per second with a small burst keeps batch generation
	// under the free-tier quota.
	defaultRequestsPerSecond = 1.0
	defaultBurst             = 2
)

// GeminiProvider is a thin wrapper around the official genai client. It
// implements both text completion and waypoint image synthesis.
type GeminiProvider struct {
	cli        *genai.Client
	model      string
	imageModel string
	limiter    *rate.Limiter
}

// NewGeminiProvider creates a provider backed by the Gemini API. An empty
// model selects the default.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not configured: %w", domain.ErrAuth)
	}
	if model == "" {
		model = defaultTextModel
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{
		cli:        cli,
		model:      model,
		imageModel: defaultImageModel,
		limiter:    rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultBurst),
	}, nil
}

func (p *GeminiProvider) ID() string {
	return "gemini:" + p.model
}

// Complete sends a prompt and returns the model's answer. When the request
// asks for JSON the response MIME type is pinned to application/json so the
// caller can validate it directly.
func (p *GeminiProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{}
	if req.JSONOutput {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.Temperature > 0 {
		t := req.Temperature
		cfg.Temperature = &t
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	resp, err := p.cli.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: req.Prompt}}}},
		cfg,
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	out := &ai.CompletionResponse{
		Text:  resp.Candidates[0].Content.Parts[0].Text,
		Model: p.model,
	}
	if resp.UsageMetadata != nil {
		out.Usage = ai.TokenUsage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}

// GenerateImage synthesizes a single waypoint image from a rendering prompt.
func (p *GeminiProvider) GenerateImage(ctx context.Context, req ai.ImageRequest) (*ai.Image, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	prompt := req.Prompt
	if req.AspectRatio != "" {
		prompt = fmt.Sprintf("%s The image aspect ratio must be %s.", prompt, req.AspectRatio)
	}

	resp, err := p.cli.Models.GenerateContent(ctx, p.imageModel,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini image generate: %w", err)
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &ai.Image{
					MIMEType: part.InlineData.MIMEType,
					Data:     part.InlineData.Data,
				}, nil
			}
		}
	}
	return nil, fmt.Errorf("gemini returned no image data")
}
