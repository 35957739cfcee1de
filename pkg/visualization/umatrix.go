// Package visualization renders the distance map (U-matrix) of a trained
// self-organizing map as a grayscale image.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
)

// UMatrixViewer turns a normalized distance map into an image where every neuron
// is a square block. Bright blocks sit far from their neighbors, so bright ridges
// mark the borders between clusters.
type UMatrixViewer struct {
	// values holds the rows×cols distance map, entries in [0, 1]
	values [][]float64

	rows int
	cols int

	// cellSize is the block edge length in pixels
	cellSize int
}

// NewUMatrixViewer creates a viewer for the given distance map
func NewUMatrixViewer(values [][]float64, cellSize int) (*UMatrixViewer, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, fmt.Errorf("distance map is empty")
	}
	if cellSize < 1 {
		return nil, fmt.Errorf("cell size must be positive, got %d", cellSize)
	}

	cols := len(values[0])
	for r, row := range values {
		if len(row) != cols {
			return nil, fmt.Errorf("distance map row %d has %d columns, expected %d", r, len(row), cols)
		}
	}

	return &UMatrixViewer{
		values:   values,
		rows:     len(values),
		cols:     cols,
		cellSize: cellSize,
	}, nil
}

// Value returns the distance map entry of neuron (row, col)
func (v *UMatrixViewer) Value(row, col int) (float64, error) {
	if row < 0 || col < 0 || row >= v.rows || col >= v.cols {
		return 0, fmt.Errorf("neuron (%d,%d) is outside the %dx%d grid", row, col, v.rows, v.cols)
	}
	return v.values[row][col], nil
}

// Render draws the distance map, one cellSize×cellSize block per neuron
func (v *UMatrixViewer) Render() image.Image {
	img := image.NewGray16(image.Rect(0, 0, v.cols*v.cellSize, v.rows*v.cellSize))

	for r := 0; r < v.rows; r++ {
		for c := 0; c < v.cols; c++ {
			value := uint16(math.Max(0, math.Min(65535, v.values[r][c]*65535)))
			for y := r * v.cellSize; y < (r+1)*v.cellSize; y++ {
				for x := c * v.cellSize; x < (c+1)*v.cellSize; x++ {
					img.SetGray16(x, y, color.Gray16{Y: value})
				}
			}
		}
	}

	return img
}

// Save renders the distance map and writes it as a PNG image
func (v *UMatrixViewer) Save(filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, v.Render())
}
