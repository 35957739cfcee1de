package som

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"somsegment/internal/models"
	"somsegment/pkg/features"
)

// pcaWeights places the neurons on a regular lattice spanned by the leading
// principal components of the data. Two-dimensional grids use the first two
// components; a single row, a single column or single-band data spreads the
// neurons along the first component in row-major order.
func (g *Grid) pcaWeights(data *features.Matrix) ([]float64, error) {
	var pc stat.PC
	if ok := pc.PrincipalComponents(data.Dense(), nil); !ok {
		return nil, models.NewDataError("principal components could not be computed")
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	_, components := vecs.Dims()

	first := mat.Col(nil, 0, &vecs)
	weights := make([]float64, g.rows*g.cols*g.dims)

	if components < 2 || g.rows == 1 || g.cols == 1 {
		steps := linspace(-1, 1, g.rows*g.cols)
		for i, s := range steps {
			w := g.neuron(weights, i)
			for d := range w {
				w[d] = s * first[d]
			}
		}
		return weights, nil
	}

	second := mat.Col(nil, 1, &vecs)
	rowSteps := linspace(-1, 1, g.rows)
	colSteps := linspace(-1, 1, g.cols)
	for r, c1 := range rowSteps {
		for c, c2 := range colSteps {
			w := g.neuron(weights, r*g.cols+c)
			for d := range w {
				w[d] = c1*first[d] + c2*second[d]
			}
		}
	}

	return weights, nil
}

// linspace returns n evenly spaced values from start to stop inclusive.
// A single value is start.
func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
