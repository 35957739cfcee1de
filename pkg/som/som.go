// Package som implements a rectangular self-organizing map (Kohonen network) with a
// Gaussian neighborhood and Euclidean distance.
//
// A Grid is created with New, fitted with Train and then queried with Winner and the
// quality measures. Training is deterministic for a fixed Params.Seed.
package som

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"somsegment/internal/models"
	"somsegment/pkg/features"
)

// ErrNotTrained is returned when a grid is queried before Train succeeded
var ErrNotTrained = errors.New("som: grid has not been trained")

// Coord is a neuron position in the grid
type Coord struct {
	Row int
	Col int
}

// Less orders coordinates by row, then column
func (c Coord) Less(o Coord) bool {
	if c.Row != o.Row {
		return c.Row < o.Row
	}
	return c.Col < o.Col
}

// Grid is an n×m map of neurons sharing dimensionality Dims
type Grid struct {
	params Params

	rows int
	cols int
	dims int

	// weights stores neuron (r, c) at [(r*cols+c)*dims : (r*cols+c+1)*dims]
	weights []float64

	trained bool
}

// New validates the parameters and allocates an untrained grid for dims-dimensional input
func New(params Params, dims int) (*Grid, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if dims < 1 {
		return nil, &models.ConfigError{Param: "dims", Value: dims, Reason: "must be at least 1"}
	}

	return &Grid{
		params: params,
		rows:   params.Rows,
		cols:   params.Cols,
		dims:   dims,
	}, nil
}

// Rows returns n
func (g *Grid) Rows() int { return g.rows }

// Cols returns m
func (g *Grid) Cols() int { return g.cols }

// Dims returns the weight vector dimensionality
func (g *Grid) Dims() int { return g.dims }

// Trained reports whether Train completed successfully
func (g *Grid) Trained() bool { return g.trained }

// Weights returns a copy of all weights in row-major neuron order
func (g *Grid) Weights() []float64 {
	out := make([]float64, len(g.weights))
	copy(out, g.weights)
	return out
}

// Weight returns a copy of the weight vector of neuron c
func (g *Grid) Weight(c Coord) []float64 {
	out := make([]float64, g.dims)
	copy(out, g.neuron(g.weights, c.Row*g.cols+c.Col))
	return out
}

func (g *Grid) neuron(w []float64, i int) []float64 {
	return w[i*g.dims : (i+1)*g.dims]
}

// Train fits the grid to data.
//
// At iteration t one sample x is drawn, the best matching neuron c found, and every
// neuron w moved by a(t)·h(t)·(x − w) where h is a Gaussian of the grid distance to c.
// Both a and the radius decay as x0/(1 + t/(T/2)). The context is checked between
// iterations; on any error the grid keeps its previous state.
func (g *Grid) Train(ctx context.Context, data *features.Matrix) error {
	if data == nil || data.Rows < 1 {
		return models.NewDataError("training set is empty")
	}
	if data.Dims != g.dims {
		return models.NewDataError("feature dimension %d does not match grid dimension %d", data.Dims, g.dims)
	}

	log := g.params.Logger.With().Str("component", "som").Logger()
	rng := rand.New(rand.NewPCG(g.params.Seed, g.params.Seed))

	var weights []float64
	var err error
	switch g.params.Init {
	case PCAInit:
		weights, err = g.pcaWeights(data)
	default:
		weights = g.randomWeights(rng)
	}
	if err != nil {
		return err
	}

	total := g.params.Iterations
	report := total / 10
	if report < 1 {
		report = 1
	}

	h := make([]float64, g.rows*g.cols)
	diff := make([]float64, g.dims)

	for t := 0; t < total; t++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		var sample []float64
		if g.params.Order == RandomOrder {
			sample = data.Row(rng.IntN(data.Rows))
		} else {
			sample = data.Row(t % data.Rows)
		}

		winner := g.winnerIn(weights, sample)
		eta := decay(g.params.LearningRate, t, total)
		sig := decay(g.params.Sigma, t, total)

		g.neighborhood(h, winner, sig)
		for i, hi := range h {
			w := g.neuron(weights, i)
			floats.SubTo(diff, sample, w)
			floats.AddScaled(w, eta*hi, diff)
		}

		if (t+1)%report == 0 {
			log.Debug().
				Int("iteration", t+1).
				Int("total", total).
				Float64("learningRate", eta).
				Float64("sigma", sig).
				Msg("training progress")
		}
	}

	g.weights = weights
	g.trained = true

	log.Debug().
		Int("rows", g.rows).
		Int("cols", g.cols).
		Int("samples", data.Rows).
		Msg("training finished")

	return nil
}

// randomWeights draws each component in [-1, 1) and normalizes every neuron to unit length
func (g *Grid) randomWeights(rng *rand.Rand) []float64 {
	weights := make([]float64, g.rows*g.cols*g.dims)
	for i := range weights {
		weights[i] = rng.Float64()*2 - 1
	}
	for i := 0; i < g.rows*g.cols; i++ {
		w := g.neuron(weights, i)
		if norm := floats.Norm(w, 2); norm > 0 {
			floats.Scale(1/norm, w)
		}
	}
	return weights
}

// neighborhood fills h with exp(-d²/(2σ²)) for every neuron, d being the grid distance to c
func (g *Grid) neighborhood(h []float64, c Coord, sigma float64) {
	d := 2 * sigma * sigma
	for r := 0; r < g.rows; r++ {
		dr := float64(r - c.Row)
		for col := 0; col < g.cols; col++ {
			dc := float64(col - c.Col)
			h[r*g.cols+col] = math.Exp(-(dr*dr + dc*dc) / d)
		}
	}
}

// Winner returns the best matching neuron for x.
//
// Ties go to the first neuron in row-major order.
func (g *Grid) Winner(x []float64) (Coord, error) {
	if !g.trained {
		return Coord{}, ErrNotTrained
	}
	if len(x) != g.dims {
		return Coord{}, models.NewDataError("vector dimension %d does not match grid dimension %d", len(x), g.dims)
	}
	return g.winnerIn(g.weights, x), nil
}

func (g *Grid) winnerIn(weights, x []float64) Coord {
	best, bestDist := 0, math.Inf(1)
	for i := 0; i < g.rows*g.cols; i++ {
		if d := floats.Distance(x, g.neuron(weights, i), 2); d < bestDist {
			best, bestDist = i, d
		}
	}
	return Coord{Row: best / g.cols, Col: best % g.cols}
}

// bestTwo returns the first and second best matching neurons for x
func (g *Grid) bestTwo(x []float64) (first, second int) {
	first, second = -1, -1
	d1, d2 := math.Inf(1), math.Inf(1)
	for i := 0; i < g.rows*g.cols; i++ {
		d := floats.Distance(x, g.neuron(g.weights, i), 2)
		switch {
		case d < d1:
			second, d2 = first, d1
			first, d1 = i, d
		case d < d2:
			second, d2 = i, d
		}
	}
	return first, second
}
