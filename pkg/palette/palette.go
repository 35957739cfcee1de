// Package palette generates sets of visually distinct colors.
package palette

import (
	"math"
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"

	"somsegment/internal/models"
)

const (
	// MinDistance is the smallest CIEDE2000 difference allowed between two palette
	// colors, or between a palette color and black or white. go-colorful measures
	// on L in [0, 1], so this is one just noticeable difference (2.3 on L in [0, 100]).
	MinDistance = 0.023

	// minCandidates is the smallest candidate pool sampled per palette
	minCandidates = 2000

	// candidatesPerColor grows the pool with the palette size
	candidatesPerColor = 10
)

// excluded colors are treated as already taken so no cluster is painted
// plain black or white
var excluded = []colorful.Color{
	{R: 0, G: 0, B: 0},
	{R: 1, G: 1, B: 1},
}

// Generate returns k colors chosen by greedy farthest-point sampling: each pick is
// the candidate whose distance to every color chosen so far (and to black and
// white) is largest. Candidates are drawn from rng and quantized to bitDepth, so
// after scaling with Scale no two returned colors share all three channels.
func Generate(k, bitDepth int, rng *rand.Rand) ([]colorful.Color, error) {
	if k < 0 {
		return nil, &models.ConfigError{Param: "colors", Value: k, Reason: "must be non-negative"}
	}
	if bitDepth < 1 || bitDepth > models.MaxBitDepth {
		return nil, &models.ConfigError{Param: "bitDepth", Value: bitDepth, Reason: "out of range"}
	}
	if k == 0 {
		return nil, nil
	}

	levels := float64(uint32(1)<<uint(bitDepth) - 1)
	candidates := make([]colorful.Color, minCandidates+candidatesPerColor*k)
	for i := range candidates {
		candidates[i] = colorful.Color{
			R: quantize(rng.Float64(), levels),
			G: quantize(rng.Float64(), levels),
			B: quantize(rng.Float64(), levels),
		}
	}

	// nearest[i] is the distance from candidate i to the closest taken color
	nearest := make([]float64, len(candidates))
	for i, c := range candidates {
		nearest[i] = math.Inf(1)
		for _, e := range excluded {
			nearest[i] = math.Min(nearest[i], c.DistanceCIEDE2000(e))
		}
	}

	colors := make([]colorful.Color, 0, k)
	for len(colors) < k {
		best := 0
		for i := range nearest {
			if nearest[i] > nearest[best] {
				best = i
			}
		}
		if nearest[best] < MinDistance {
			return nil, models.NewDataError("cannot generate %d colors at least %.3f apart at %d-bit depth", k, MinDistance, bitDepth)
		}

		chosen := candidates[best]
		colors = append(colors, chosen)
		for i, c := range candidates {
			nearest[i] = math.Min(nearest[i], c.DistanceCIEDE2000(chosen))
		}
	}

	return colors, nil
}

// Scale converts a normalized color to integer channels in [0, 2^bitDepth - 1]
func Scale(c colorful.Color, bitDepth int) [3]uint16 {
	levels := float64(uint32(1)<<uint(bitDepth) - 1)
	return [3]uint16{
		uint16(math.Round(c.R * levels)),
		uint16(math.Round(c.G * levels)),
		uint16(math.Round(c.B * levels)),
	}
}

func quantize(v, levels float64) float64 {
	return math.Round(v*levels) / levels
}
