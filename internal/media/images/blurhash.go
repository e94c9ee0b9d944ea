package images

import (
	"fmt"
	"image"

	"github.com/bbrks/go-blurhash"
	"github.com/disintegration/imaging"
)

// blurHashSize is the target size for BlurHash computation.
// A small thumbnail produces nearly identical results in a fraction of the time.
const blurHashSize = 64

// ComputeBlurHash generates a 4x3 component BlurHash from a decoded image.
func ComputeBlurHash(img image.Image) (string, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return "", fmt.Errorf("empty image")
	}

	thumb := img
	if b.Dx() > blurHashSize || b.Dy() > blurHashSize {
		thumb = imaging.Fit(img, blurHashSize, blurHashSize, imaging.Box)
	}

	hash, err := blurhash.Encode(4, 3, thumb)
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}
