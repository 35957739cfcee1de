// Package cluster labels feature vectors with dense cluster ids taken from the
// winning neurons of a trained SOM.
package cluster

import (
	"somsegment/internal/models"
	"somsegment/pkg/features"
	"somsegment/pkg/som"
)

// Assignment is the result of labeling a feature matrix
type Assignment struct {
	// Labels holds one dense cluster id in [0, len(Winners)) per feature row
	Labels []int

	// Winners lists the distinct winning neurons ordered by row, then column.
	// Label k belongs to Winners[k].
	Winners []som.Coord
}

// Clusters returns K, the number of distinct labels
func (a *Assignment) Clusters() int {
	return len(a.Winners)
}

// Sizes returns the number of rows carrying each label
func (a *Assignment) Sizes() []int {
	sizes := make([]int, len(a.Winners))
	for _, l := range a.Labels {
		sizes[l]++
	}
	return sizes
}

// Assign finds the winning neuron of every row and numbers the winners that were
// actually observed in (row, col) order. Neurons that win no row get no label.
func Assign(grid *som.Grid, data *features.Matrix) (*Assignment, error) {
	if !grid.Trained() {
		return nil, som.ErrNotTrained
	}
	if data == nil || data.Rows < 1 {
		return nil, models.NewDataError("no feature vectors to label")
	}
	if data.Dims != grid.Dims() {
		return nil, models.NewDataError("feature dimension %d does not match grid dimension %d", data.Dims, grid.Dims())
	}

	cols := grid.Cols()
	cells := grid.Rows() * cols

	winners := make([]int, data.Rows)
	seen := make([]bool, cells)
	for r := 0; r < data.Rows; r++ {
		c, err := grid.Winner(data.Row(r))
		if err != nil {
			return nil, err
		}
		i := c.Row*cols + c.Col
		winners[r] = i
		seen[i] = true
	}

	// A row-major walk over the grid visits coordinates in ascending (row, col) order
	index := make([]int, cells)
	a := &Assignment{Labels: make([]int, data.Rows)}
	for i, ok := range seen {
		if !ok {
			continue
		}
		index[i] = len(a.Winners)
		a.Winners = append(a.Winners, som.Coord{Row: i / cols, Col: i % cols})
	}

	for r, i := range winners {
		a.Labels[r] = index[i]
	}

	return a, nil
}
