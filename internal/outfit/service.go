// Package outfit runs the generation pipeline: describe the outfit, render it,
// store the picture and hand back its URL.
package outfit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"outfitgen/internal/domain"
	"outfitgen/internal/infra"
	"outfitgen/internal/providers/image"
	"outfitgen/internal/providers/prompt"
	"outfitgen/internal/providers/text"
	"outfitgen/internal/storage"
)

// ImagesPath is the URL path the stored images are served under.
const ImagesPath = "/generated_images/"

// Stage names a step of the pipeline. Failed is reachable from every stage.
type Stage string

const (
	StageReceived            Stage = "received"
	StageTextComposed        Stage = "text_composed"
	StageTextGenerated       Stage = "text_generated"
	StageImagePromptComposed Stage = "image_prompt_composed"
	StageImageGenerated      Stage = "image_generated"
	StagePersisted           Stage = "persisted"
	StageResponded           Stage = "responded"
	StageFailed              Stage = "failed"
)

// StageError records the stage a request failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

type imageWriter interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// Options wires a Service.
type Options struct {
	Text      text.Generator
	TextModel string
	Images    image.Generator
	Store     imageWriter
	Naming    storage.Naming
	BaseURL   string
	Logger    *infra.Logger
}

// Service sequences the remote calls of one outfit generation.
type Service struct {
	text      text.Generator
	textModel string
	images    image.Generator
	store     imageWriter
	naming    storage.Naming
	baseURL   string
	logger    infra.Logger
}

// NewService validates the wiring.
func NewService(opts Options) (*Service, error) {
	if opts.Text == nil {
		return nil, errors.New("outfit: text generator is required")
	}
	if opts.Images == nil {
		return nil, errors.New("outfit: image generator is required")
	}
	if opts.Store == nil {
		return nil, errors.New("outfit: image store is required")
	}
	if strings.TrimSpace(opts.TextModel) == "" {
		return nil, fmt.Errorf("%w: outfit: text model is required", domain.ErrConfiguration)
	}
	naming := opts.Naming
	if naming == nil {
		naming = storage.NamingUnique{}
	}
	logger := infra.NopLogger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Service{
		text:      opts.Text,
		textModel: strings.TrimSpace(opts.TextModel),
		images:    opts.Images,
		store:     opts.Store,
		naming:    naming,
		baseURL:   strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		logger:    logger,
	}, nil
}

// Generate runs the pipeline for req. It returns either a complete result or
// a *StageError; there are no partial results.
func (s *Service) Generate(ctx context.Context, req domain.StyleRequest) (*domain.OutfitResult, error) {
	log := s.logger.With().Str("request_id", requestID(ctx)).Logger()
	stage := StageReceived
	fail := func(err error) (*domain.OutfitResult, error) {
		failedAt := stage
		stage = StageFailed
		log.Error().Err(err).Str("stage", string(stage)).Str("failed_at", string(failedAt)).Msg("outfit generation failed")
		return nil, &StageError{Stage: failedAt, Err: err}
	}
	advance := func(next Stage) {
		stage = next
		log.Debug().Str("stage", string(stage)).Msg("outfit generation advanced")
	}

	log.Info().Interface("style", req).Msg("outfit generation received")
	if err := req.Validate(); err != nil {
		return fail(err)
	}

	outfitPrompt := prompt.OutfitPrompt(req)
	advance(StageTextComposed)

	description, err := s.text.Generate(ctx, s.textModel, outfitPrompt)
	if err != nil {
		return fail(fmt.Errorf("text generation failed: %w", err))
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return fail(fmt.Errorf("%w: text generation failed: received empty response", domain.ErrUpstreamGeneration))
	}
	advance(StageTextGenerated)
	log.Info().Str("outfit_description", description).Msg("outfit description generated")

	imagePrompt := prompt.ImagePrompt(req, description)
	advance(StageImagePromptComposed)

	generated, err := s.images.Generate(ctx, imagePrompt)
	if err != nil {
		return fail(fmt.Errorf("image generation failed: %w", err))
	}
	if generated == nil || len(generated.Data) == 0 {
		return fail(fmt.Errorf("%w: image generation failed", domain.ErrUpstreamGeneration))
	}
	advance(StageImageGenerated)

	key, err := s.store.Write(ctx, s.naming.Next(), generated.Data)
	if err != nil {
		return fail(fmt.Errorf("persist image: %w", err))
	}
	advance(StagePersisted)

	result := &domain.OutfitResult{
		OutfitDescription: description,
		ImageURL:          s.ImageURL(key),
	}
	advance(StageResponded)
	log.Info().Str("image_url", result.ImageURL).Msg("outfit generation completed")
	return result, nil
}

// ImageURL returns the public URL of a stored image key.
func (s *Service) ImageURL(key string) string {
	return s.baseURL + ImagesPath + strings.TrimLeft(key, "/")
}

// FailedStage reports where err stopped the pipeline.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

type requestIDKey struct{}

// WithRequestID tags ctx so pipeline logs carry the HTTP request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}
