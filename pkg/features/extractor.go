// Package features turns images into standardized per-pixel feature vectors.
package features

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"somsegment/internal/models"
)

// ConstantBandPolicy selects what happens to a band with zero variance
type ConstantBandPolicy int

const (
	// ErrorOnConstant fails extraction with a DataError
	ErrorOnConstant ConstantBandPolicy = iota

	// ZeroOnConstant emits 0 for every pixel of the band
	ZeroOnConstant
)

// ParsePolicy maps the config names "error" and "zero" to a policy
func ParsePolicy(name string) (ConstantBandPolicy, error) {
	switch name {
	case "", "error":
		return ErrorOnConstant, nil
	case "zero":
		return ZeroOnConstant, nil
	}
	return 0, &models.ConfigError{Param: "constantBands", Value: name, Reason: `must be "error" or "zero"`}
}

// Matrix is an R×D feature matrix stored row-major, one row per pixel
type Matrix struct {
	Data []float64
	Rows int
	Dims int
}

// Row returns row i as a sub-slice of Data
func (m *Matrix) Row(i int) []float64 {
	return m.Data[i*m.Dims : (i+1)*m.Dims]
}

// Dense wraps the matrix as a gonum Dense sharing the same storage
func (m *Matrix) Dense() *mat.Dense {
	return mat.NewDense(m.Rows, m.Dims, m.Data)
}

// Extract flattens the image to H·W rows of D bands and standardizes each band
// to zero mean and unit (population) standard deviation across all pixels.
func Extract(img *models.Image, policy ConstantBandPolicy) (*Matrix, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	rows, dims := img.Pixels(), img.Bands
	out := &Matrix{
		Data: make([]float64, rows*dims),
		Rows: rows,
		Dims: dims,
	}

	column := make([]float64, rows)
	for b := 0; b < dims; b++ {
		for r := 0; r < rows; r++ {
			column[r] = float64(img.Pix[r*dims+b])
		}

		mean, std := stat.PopMeanStdDev(column, nil)
		if std == 0 || math.IsNaN(std) || math.IsInf(std, 0) {
			if policy == ZeroOnConstant {
				// Data is already zeroed for this band
				continue
			}
			return nil, models.NewDataError("band %d has zero variance", b)
		}

		for r := 0; r < rows; r++ {
			out.Data[r*dims+b] = (column[r] - mean) / std
		}
	}

	return out, nil
}
