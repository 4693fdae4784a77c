package image

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"outfitgen/internal/domain"
	"outfitgen/internal/providers/huggingface"
	"outfitgen/internal/retry"
)

// DefaultModel is the text-to-image model used when none is configured.
const DefaultModel = "black-forest-labs/FLUX.1-dev"

// DefaultNegativePrompt lists artefacts the model should avoid.
const DefaultNegativePrompt = "low quality, blurry, distorted, cropped body, extra limbs, deformed hands, text, watermark"

// RetryingGenerator calls a fixed model through the retry loop.
type RetryingGenerator struct {
	client         textToImageClient
	retrier        *retry.Retrier
	model          string
	negativePrompt string
}

// RetryingOptions configures a RetryingGenerator.
type RetryingOptions struct {
	Model          string
	NegativePrompt string
}

// NewRetryingGenerator wires the inference client with a retrier.
func NewRetryingGenerator(client textToImageClient, retrier *retry.Retrier, opts RetryingOptions) *RetryingGenerator {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	if retrier == nil {
		retrier = retry.New(retry.Options{Policy: retry.DefaultPolicy()})
	}
	return &RetryingGenerator{
		client:         client,
		retrier:        retrier,
		model:          model,
		negativePrompt: strings.TrimSpace(opts.NegativePrompt),
	}
}

// Model returns the configured model identifier.
func (g *RetryingGenerator) Model() string {
	return g.model
}

// Generate returns the first successful image, normalised to PNG. When every
// attempt fails the error wraps domain.ErrRetryExhausted.
func (g *RetryingGenerator) Generate(ctx context.Context, prompt string) (*Image, error) {
	if g == nil || g.client == nil {
		return nil, fmt.Errorf("%w: image generator not configured", domain.ErrConfiguration)
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: image prompt is required", domain.ErrInvalidRequest)
	}
	req := huggingface.ImageRequest{
		Model:          g.model,
		Prompt:         prompt,
		NegativePrompt: g.negativePrompt,
	}
	var result []byte
	err := g.retrier.Do(ctx, func(ctx context.Context) error {
		asset, err := g.client.TextToImage(ctx, req)
		if err != nil {
			return err
		}
		if asset == nil || len(asset.Data) == 0 {
			return fmt.Errorf("%w: %s returned no image", domain.ErrUpstreamGeneration, g.model)
		}
		// An undecodable payload counts as a failed attempt.
		data, err := EncodePNG(&Image{Data: asset.Data, Format: asset.Format})
		if err != nil {
			return fmt.Errorf("%s: %w", g.model, err)
		}
		result = data
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrRetryExhausted) {
			return nil, fmt.Errorf("image generation with %s: %w", g.model, err)
		}
		return nil, err
	}
	return &Image{Data: result, Format: PNGFormat, Model: g.model}, nil
}

var _ Generator = (*RetryingGenerator)(nil)
