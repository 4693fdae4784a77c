// Package text produces outfit descriptions with a hosted text model.
package text

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"outfitgen/internal/domain"
	"outfitgen/internal/infra"
)

// ErrMissingAPIKey indicates that the generator was configured without credentials.
var ErrMissingAPIKey = fmt.Errorf("%w: gemini api key is required", domain.ErrConfiguration)

// Generator turns a prompt into trimmed model output.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

type generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// GeminiOptions configures the Gemini API backed generator.
type GeminiOptions struct {
	APIKey     string
	HTTPClient *http.Client
	// Timeout bounds each call when HTTPClient is nil.
	Timeout time.Duration
	Logger  *infra.Logger
}

// GeminiGenerator calls generateContent on the Gemini API, including tuned
// models addressed as "tunedModels/<id>".
type GeminiGenerator struct {
	generate generateContentFunc
	logger   infra.Logger
}

// NewGeminiGenerator creates the underlying genai client once; credentials
// are never re-read per call.
func NewGeminiGenerator(ctx context.Context, opts GeminiOptions) (*GeminiGenerator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil && opts.Timeout > 0 {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create gemini client: %w", domain.ErrConfiguration, err)
	}
	return newGeminiGenerator(client.Models.GenerateContent, opts.Logger), nil
}

func newGeminiGenerator(fn generateContentFunc, logger *infra.Logger) *GeminiGenerator {
	l := infra.NopLogger()
	if logger != nil {
		l = *logger
	}
	return &GeminiGenerator{generate: fn, logger: l}
}

// Generate sends prompt to model and returns the response text without
// surrounding whitespace. Failures and empty output are errors; there is no
// retry here.
func (g *GeminiGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	if g == nil || g.generate == nil {
		return "", errors.New("gemini generator not configured")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return "", fmt.Errorf("%w: model is required", domain.ErrConfiguration)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt is required", domain.ErrInvalidRequest)
	}

	resp, err := g.generate(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: gemini %s: %w", domain.ErrUpstreamGeneration, model, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: gemini %s: empty response", domain.ErrUpstreamGeneration, model)
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", fmt.Errorf("%w: gemini %s: prompt blocked (%s)", domain.ErrUpstreamGeneration, model, fb.BlockReason)
	}
	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", fmt.Errorf("%w: gemini %s: received empty response", domain.ErrUpstreamGeneration, model)
	}
	g.logger.Debug().Str("model", model).Int("chars", len(out)).Msg("gemini: generated text")
	return out, nil
}

var _ Generator = (*GeminiGenerator)(nil)
