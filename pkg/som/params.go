package som

import (
	"math"

	"github.com/rs/zerolog"

	"somsegment/internal/models"
)

// DefaultSeed is the fixed seed used for weight initialization and sample order
const DefaultSeed uint64 = 8

// InitMethod selects how neuron weights are initialized before training
type InitMethod int

const (
	// RandomInit draws each weight vector uniformly in [-1, 1) and normalizes it to unit length
	RandomInit InitMethod = iota

	// PCAInit spreads the weights along the principal components of the data
	PCAInit
)

// SampleOrder selects which training vector is presented at each iteration
type SampleOrder int

const (
	// SequentialOrder presents vector t mod R at iteration t
	SequentialOrder SampleOrder = iota

	// RandomOrder presents a uniformly drawn vector at each iteration
	RandomOrder
)

// ParseInit maps "random" and "pca" to an InitMethod
func ParseInit(name string) (InitMethod, error) {
	switch name {
	case "", "random":
		return RandomInit, nil
	case "pca":
		return PCAInit, nil
	}
	return 0, &models.ConfigError{Param: "init", Value: name, Reason: `must be "random" or "pca"`}
}

// ParseOrder maps "sequential" and "random" to a SampleOrder
func ParseOrder(name string) (SampleOrder, error) {
	switch name {
	case "", "sequential":
		return SequentialOrder, nil
	case "random":
		return RandomOrder, nil
	}
	return 0, &models.ConfigError{Param: "order", Value: name, Reason: `must be "sequential" or "random"`}
}

// Params holds the training parameters of a rectangular, Gaussian-neighborhood SOM
type Params struct {
	// Rows and Cols are the grid dimensions (n and m)
	Rows int
	Cols int

	// Sigma is the initial neighborhood radius
	Sigma float64

	// LearningRate is the initial learning rate, in (0, 1]
	LearningRate float64

	// Iterations is the number of training steps
	Iterations int

	// Seed makes initialization and sample order reproducible
	Seed uint64

	Init  InitMethod
	Order SampleOrder

	// Logger receives training progress at debug level
	Logger zerolog.Logger
}

// DefaultParams returns the reference parameters for an n×m grid
func DefaultParams(rows, cols int) Params {
	return Params{
		Rows:         rows,
		Cols:         cols,
		Sigma:        1.0,
		LearningRate: 0.5,
		Iterations:   1000,
		Seed:         DefaultSeed,
		Init:         RandomInit,
		Order:        SequentialOrder,
		Logger:       zerolog.Nop(),
	}
}

// Validate reports the first parameter outside its valid range
func (p Params) Validate() error {
	if p.Rows < 1 {
		return &models.ConfigError{Param: "rows", Value: p.Rows, Reason: "must be at least 1"}
	}
	if p.Cols < 1 {
		return &models.ConfigError{Param: "cols", Value: p.Cols, Reason: "must be at least 1"}
	}
	if !(p.Sigma > 0) || math.IsInf(p.Sigma, 0) {
		return &models.ConfigError{Param: "sigma", Value: p.Sigma, Reason: "must be a positive finite number"}
	}
	if !(p.LearningRate > 0) || p.LearningRate > 1 {
		return &models.ConfigError{Param: "learningRate", Value: p.LearningRate, Reason: "must be in (0, 1]"}
	}
	if p.Iterations < 1 {
		return &models.ConfigError{Param: "iterations", Value: p.Iterations, Reason: "must be at least 1"}
	}
	if p.Init != RandomInit && p.Init != PCAInit {
		return &models.ConfigError{Param: "init", Value: p.Init, Reason: "unknown initialization method"}
	}
	if p.Order != SequentialOrder && p.Order != RandomOrder {
		return &models.ConfigError{Param: "order", Value: p.Order, Reason: "unknown sample order"}
	}
	return nil
}

// decay is the asymptotic schedule x0 / (1 + t/(T/2))
func decay(x0 float64, t, total int) float64 {
	return x0 / (1 + float64(t)/(float64(total)/2))
}
