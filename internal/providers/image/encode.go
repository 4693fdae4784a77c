package image

import (
	"bytes"
	"fmt"
	stdimage "image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/webp"

	"outfitgen/internal/domain"
)

// PNGFormat is the media type of every image the generators return.
const PNGFormat = "image/png"

// EncodePNG re-encodes a generated picture as PNG. PNG input is returned
// untouched.
func EncodePNG(img *Image) ([]byte, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, fmt.Errorf("%w: empty image payload", domain.ErrUpstreamGeneration)
	}
	decoded, format, err := stdimage.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %w", domain.ErrUpstreamGeneration, err)
	}
	if format == "png" {
		return img.Data, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, decoded); err != nil {
		return nil, fmt.Errorf("%w: encode png: %w", domain.ErrUpstreamGeneration, err)
	}
	return buf.Bytes(), nil
}
