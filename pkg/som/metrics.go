package som

import (
	"gonum.org/v1/gonum/floats"

	"somsegment/internal/models"
	"somsegment/pkg/features"
)

// QuantizationError is the mean Euclidean distance between each sample and its winner
func (g *Grid) QuantizationError(data *features.Matrix) (float64, error) {
	if !g.trained {
		return 0, ErrNotTrained
	}
	if err := g.checkDims(data); err != nil {
		return 0, err
	}
	if data.Rows == 0 {
		return 0, nil
	}

	var sum float64
	for r := 0; r < data.Rows; r++ {
		x := data.Row(r)
		c := g.winnerIn(g.weights, x)
		sum += floats.Distance(x, g.neuron(g.weights, c.Row*g.cols+c.Col), 2)
	}
	return sum / float64(data.Rows), nil
}

// TopographicError is the fraction of samples whose best and second best neurons
// are not adjacent (8-neighborhood). A single-neuron grid has no error.
func (g *Grid) TopographicError(data *features.Matrix) (float64, error) {
	if !g.trained {
		return 0, ErrNotTrained
	}
	if err := g.checkDims(data); err != nil {
		return 0, err
	}
	if g.rows*g.cols < 2 || data.Rows == 0 {
		return 0, nil
	}

	errs := 0
	for r := 0; r < data.Rows; r++ {
		first, second := g.bestTwo(data.Row(r))
		dr := abs(first/g.cols - second/g.cols)
		dc := abs(first%g.cols - second%g.cols)
		if dr > 1 || dc > 1 {
			errs++
		}
	}
	return float64(errs) / float64(data.Rows), nil
}

// DistanceMap returns the U-matrix: for each neuron the summed distance to its
// 8-neighbors, normalized so the largest entry is 1.
func (g *Grid) DistanceMap() ([][]float64, error) {
	if !g.trained {
		return nil, ErrNotTrained
	}

	out := make([][]float64, g.rows)
	var peak float64
	for r := 0; r < g.rows; r++ {
		out[r] = make([]float64, g.cols)
		for c := 0; c < g.cols; c++ {
			w := g.neuron(g.weights, r*g.cols+c)
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					nr, nc := r+dr, c+dc
					if (dr == 0 && dc == 0) || nr < 0 || nc < 0 || nr >= g.rows || nc >= g.cols {
						continue
					}
					out[r][c] += floats.Distance(w, g.neuron(g.weights, nr*g.cols+nc), 2)
				}
			}
			if out[r][c] > peak {
				peak = out[r][c]
			}
		}
	}

	if peak > 0 {
		for r := range out {
			floats.Scale(1/peak, out[r])
		}
	}
	return out, nil
}

func (g *Grid) checkDims(data *features.Matrix) error {
	if data == nil {
		return models.NewDataError("feature matrix is nil")
	}
	if data.Rows > 0 && data.Dims != g.dims {
		return models.NewDataError("feature dimension %d does not match grid dimension %d", data.Dims, g.dims)
	}
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
