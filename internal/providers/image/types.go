// Package image turns an image prompt into a persisted-ready picture.
package image

import (
	"context"

	"outfitgen/internal/providers/huggingface"
)

// Image is a generated picture held in memory until the caller stores it.
type Image struct {
	Data   []byte
	Format string
	Model  string
}

// Generator is the contract implemented by image providers.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Image, error)
}

// textToImageClient is satisfied by *huggingface.Client.
type textToImageClient interface {
	TextToImage(ctx context.Context, req huggingface.ImageRequest) (*huggingface.ImageAsset, error)
}
