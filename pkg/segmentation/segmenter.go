// Package segmentation ties the pipeline together: features are extracted from an
// image, a self-organizing map is trained on them, every pixel is labeled with its
// winning neuron and the labels are painted with a distinct color each.
package segmentation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"somsegment/internal/models"
	"somsegment/pkg/cluster"
	"somsegment/pkg/features"
	"somsegment/pkg/som"
)

// Metrics holds the quality measures of a trained map
type Metrics struct {
	// QuantizationError is the mean distance between a feature vector and its
	// winning neuron. Lower is a tighter fit.
	QuantizationError float64

	// TopographicError is the fraction of feature vectors whose two closest
	// neurons are not grid neighbors. Lower means better topology preservation.
	TopographicError float64

	// TrainingTime is the wall time spent in training
	TrainingTime time.Duration
}

// Params holds every knob of a segmentation run
type Params struct {
	// SOM configures the map; its Rows and Cols are n and m
	SOM som.Params

	// ConstantBands decides how zero-variance bands are handled
	ConstantBands features.ConstantBandPolicy

	// PaletteSeed seeds color generation. Zero draws a fresh seed per run, so the
	// colors change between runs while the cluster assignment does not.
	PaletteSeed uint64

	Logger zerolog.Logger
}

// DefaultParams returns the reference configuration for an n×m map:
// sigma 1.0, learning rate 0.5, 1000 iterations and the fixed SOM seed.
func DefaultParams(n, m int) Params {
	return Params{
		SOM:           som.DefaultParams(n, m),
		ConstantBands: features.ErrorOnConstant,
		Logger:        zerolog.Nop(),
	}
}

// Result is the outcome of a segmentation run
type Result struct {
	// Image has the source height, width and bit depth and three bands
	Image *models.Image

	// Labels holds the cluster id of each pixel in row-major order
	Labels []int

	// Clusters is K, the number of distinct labels
	Clusters int

	// Winners maps each label to its neuron
	Winners []som.Coord

	// UMatrix is the normalized distance map of the trained grid
	UMatrix [][]float64

	Metrics Metrics
}

// Segment runs the pipeline on img with the reference parameters for an n×m map.
// It fails with a configuration error when n or m is below 1 and with a data error
// when the image is empty or has a constant band.
func Segment(ctx context.Context, img *models.Image, n, m int) (*models.Image, error) {
	res, err := Run(ctx, img, DefaultParams(n, m))
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

// Run segments img. Parameters are validated before any work starts; nothing
// computed by a failed run is returned.
func Run(ctx context.Context, img *models.Image, params Params) (*Result, error) {
	log := params.Logger.With().Str("component", "segmentation").Logger()

	somParams := params.SOM
	somParams.Logger = params.Logger
	if err := somParams.Validate(); err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Int("width", img.Width).
		Int("height", img.Height).
		Int("bands", img.Bands).
		Int("rows", somParams.Rows).
		Int("cols", somParams.Cols).
		Msg("segmenting image")

	data, err := features.Extract(img, params.ConstantBands)
	if err != nil {
		return nil, fmt.Errorf("failed to extract features: %w", err)
	}

	grid, err := som.New(somParams, data.Dims)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := grid.Train(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to train map: %w", err)
	}
	trainingTime := time.Since(start)

	assignment, err := cluster.Assign(grid, data)
	if err != nil {
		return nil, fmt.Errorf("failed to assign clusters: %w", err)
	}

	seed := params.PaletteSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	out, err := Colorize(img.Height, img.Width, assignment.Labels, assignment.Clusters(), img.BitDepth, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to colorize clusters: %w", err)
	}

	res := &Result{
		Image:    out,
		Labels:   assignment.Labels,
		Clusters: assignment.Clusters(),
		Winners:  assignment.Winners,
		Metrics:  Metrics{TrainingTime: trainingTime},
	}

	// The grid is trained at this point, so the measures below cannot fail
	res.Metrics.QuantizationError, _ = grid.QuantizationError(data)
	res.Metrics.TopographicError, _ = grid.TopographicError(data)
	res.UMatrix, _ = grid.DistanceMap()

	log.Info().
		Int("clusters", res.Clusters).
		Dur("trainingTime", trainingTime).
		Float64("quantizationError", res.Metrics.QuantizationError).
		Float64("topographicError", res.Metrics.TopographicError).
		Msg("segmentation finished")

	return res, nil
}
