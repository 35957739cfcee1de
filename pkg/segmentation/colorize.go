package segmentation

import (
	"math/rand/v2"

	"somsegment/internal/models"
	"somsegment/pkg/palette"
)

// Colorize paints a height×width RGB image at the given bit depth where every pixel
// carries the palette color of its label. Labels must lie in [0, k).
func Colorize(height, width int, labels []int, k, bitDepth int, rng *rand.Rand) (*models.Image, error) {
	if len(labels) != height*width {
		return nil, models.NewDataError("got %d labels for a %dx%d image", len(labels), width, height)
	}

	colors, err := palette.Generate(k, bitDepth, rng)
	if err != nil {
		return nil, err
	}

	table := make([][3]uint16, k)
	for i, c := range colors {
		table[i] = palette.Scale(c, bitDepth)
	}

	out, err := models.NewImage(height, width, 3, bitDepth)
	if err != nil {
		return nil, err
	}

	for i, l := range labels {
		if l < 0 || l >= k {
			return nil, models.NewDataError("label %d at pixel %d is outside [0, %d)", l, i, k)
		}
		copy(out.Pix[i*3:i*3+3], table[l][:])
	}

	return out, nil
}
