package som

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"somsegment/internal/models"
	"somsegment/pkg/features"
)

// twoGroups returns the standardized features of the image [[10, 10], [200, 200]]
func twoGroups() *features.Matrix {
	return &features.Matrix{Data: []float64{-1, -1, 1, 1}, Rows: 4, Dims: 1}
}

// blobs returns three well separated 2D clusters of the given size each
func blobs(size int) *features.Matrix {
	centers := [][2]float64{{-3, -3}, {0, 3}, {3, -3}}
	rng := rand.New(rand.NewPCG(1, 2))
	m := &features.Matrix{Rows: size * len(centers), Dims: 2}
	for i := 0; i < size; i++ {
		for _, c := range centers {
			m.Data = append(m.Data, c[0]+rng.NormFloat64()*0.2, c[1]+rng.NormFloat64()*0.2)
		}
	}
	return m
}

func trainedGrid(t *testing.T, params Params, data *features.Matrix) *Grid {
	t.Helper()
	g, err := New(params, data.Dims)
	require.NoError(t, err)
	require.NoError(t, g.Train(context.Background(), data))
	return g
}

func TestNewRejectsInvalidParams(t *testing.T) {
	cases := map[string]func(p *Params){
		"zero rows":       func(p *Params) { p.Rows = 0 },
		"zero cols":       func(p *Params) { p.Cols = 0 },
		"zero sigma":      func(p *Params) { p.Sigma = 0 },
		"negative sigma":  func(p *Params) { p.Sigma = -1 },
		"nan sigma":       func(p *Params) { p.Sigma = math.NaN() },
		"zero rate":       func(p *Params) { p.LearningRate = 0 },
		"rate above one":  func(p *Params) { p.LearningRate = 1.5 },
		"zero iterations": func(p *Params) { p.Iterations = 0 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := DefaultParams(2, 2)
			mutate(&p)
			g, err := New(p, 3)
			assert.Nil(t, g)
			assert.True(t, errors.Is(err, models.ErrConfiguration), "got %v", err)
		})
	}

	_, err := New(DefaultParams(1, 1), 0)
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestTrainIsDeterministic(t *testing.T) {
	data := blobs(30)
	for _, p := range []Params{
		DefaultParams(3, 2),
		func() Params { p := DefaultParams(2, 2); p.Order = RandomOrder; return p }(),
		func() Params { p := DefaultParams(3, 3); p.Init = PCAInit; return p }(),
	} {
		a := trainedGrid(t, p, data)
		b := trainedGrid(t, p, data)
		assert.Equal(t, a.Weights(), b.Weights())
	}
}

func TestTrainSeedChangesWeights(t *testing.T) {
	data := blobs(10)
	p := DefaultParams(2, 2)
	a := trainedGrid(t, p, data)

	p.Seed = 99
	b := trainedGrid(t, p, data)
	assert.NotEqual(t, a.Weights(), b.Weights())
}

func TestTrainSeparatesTwoGroups(t *testing.T) {
	data := twoGroups()
	g := trainedGrid(t, DefaultParams(1, 2), data)

	winner := func(r int) Coord {
		c, err := g.Winner(data.Row(r))
		require.NoError(t, err)
		return c
	}
	low, high := winner(0), winner(2)
	assert.NotEqual(t, low, high)
	assert.Equal(t, low, winner(1))
	assert.Equal(t, high, winner(3))
}

func TestTrainReducesQuantizationError(t *testing.T) {
	data := blobs(40)
	p := DefaultParams(2, 2)

	short := p
	short.Iterations = 1
	before := trainedGrid(t, short, data)
	after := trainedGrid(t, p, data)

	qeBefore, err := before.QuantizationError(data)
	require.NoError(t, err)
	qeAfter, err := after.QuantizationError(data)
	require.NoError(t, err)

	assert.Less(t, qeAfter, qeBefore)
}

func TestTrainRejectsBadData(t *testing.T) {
	g, err := New(DefaultParams(2, 2), 2)
	require.NoError(t, err)

	err = g.Train(context.Background(), &features.Matrix{Rows: 0, Dims: 2})
	assert.True(t, errors.Is(err, models.ErrData))

	err = g.Train(context.Background(), twoGroups())
	assert.True(t, errors.Is(err, models.ErrData))
	assert.False(t, g.Trained())
}

func TestTrainHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, err := New(DefaultParams(2, 2), 2)
	require.NoError(t, err)

	err = g.Train(ctx, blobs(5))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, g.Trained())
	assert.Empty(t, g.Weights())

	_, err = g.QuantizationError(blobs(5))
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestWinnerTieBreakIsRowMajor(t *testing.T) {
	g, err := New(DefaultParams(2, 2), 1)
	require.NoError(t, err)

	g.trained = true
	winner := func(x float64) Coord {
		c, err := g.Winner([]float64{x})
		require.NoError(t, err)
		return c
	}

	g.weights = []float64{0.5, 0.5, 0.5, 0.5}
	assert.Equal(t, Coord{0, 0}, winner(0))

	// (0,1) and (1,0) are equally close, (0,1) comes first
	g.weights = []float64{5, 1, 1, -5}
	assert.Equal(t, Coord{0, 1}, winner(1))
	assert.Equal(t, Coord{1, 1}, winner(-4))
}

func TestWinnerRequiresTrainedGridAndMatchingDims(t *testing.T) {
	g, err := New(DefaultParams(2, 2), 1)
	require.NoError(t, err)

	_, err = g.Winner([]float64{0})
	assert.ErrorIs(t, err, ErrNotTrained)

	data := twoGroups()
	g = trainedGrid(t, DefaultParams(1, 2), data)

	_, err = g.Winner([]float64{0, 1, 2})
	assert.True(t, errors.Is(err, models.ErrData))

	_, err = g.QuantizationError(&features.Matrix{Data: []float64{1, 2}, Rows: 1, Dims: 2})
	assert.True(t, errors.Is(err, models.ErrData))
	_, err = g.TopographicError(&features.Matrix{Data: []float64{1, 2}, Rows: 1, Dims: 2})
	assert.True(t, errors.Is(err, models.ErrData))
}

func TestDecayIsMonotone(t *testing.T) {
	prev := math.Inf(1)
	for step := 0; step < 1000; step++ {
		v := decay(0.5, step, 1000)
		assert.LessOrEqual(t, v, prev)
		prev = v
	}
	assert.Equal(t, 0.5, decay(0.5, 0, 1000))
	assert.Less(t, prev, 0.5)
}

func TestNeighborhoodIsGaussian(t *testing.T) {
	g, err := New(DefaultParams(3, 3), 1)
	require.NoError(t, err)

	h := make([]float64, 9)
	g.neighborhood(h, Coord{1, 1}, 1)
	assert.Equal(t, 1.0, h[4])
	assert.InDelta(t, math.Exp(-0.5), h[1], 1e-12)
	assert.InDelta(t, math.Exp(-1), h[0], 1e-12)
}

func TestRandomWeightsAreUnitLength(t *testing.T) {
	g, err := New(DefaultParams(2, 3), 4)
	require.NoError(t, err)

	w := g.randomWeights(rand.New(rand.NewPCG(8, 8)))
	for i := 0; i < 6; i++ {
		var sq float64
		for _, v := range g.neuron(w, i) {
			sq += v * v
		}
		assert.InDelta(t, 1, sq, 1e-9)
	}
}

func TestPCAWeightsSpanFirstComponent(t *testing.T) {
	p := DefaultParams(1, 3)
	p.Init = PCAInit
	g, err := New(p, 1)
	require.NoError(t, err)

	w, err := g.pcaWeights(twoGroups())
	require.NoError(t, err)
	require.Len(t, w, 3)
	assert.InDelta(t, 1, math.Abs(w[0]), 1e-9)
	assert.InDelta(t, 0, w[1], 1e-9)
	assert.InDelta(t, -w[0], w[2], 1e-9)
}

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{-1}, linspace(-1, 1, 1))
	assert.Equal(t, []float64{-1, 1}, linspace(-1, 1, 2))
	assert.InDeltaSlice(t, []float64{-1, -0.5, 0, 0.5, 1}, linspace(-1, 1, 5), 1e-12)
}

func TestTopographicErrorSingleNeuron(t *testing.T) {
	data := blobs(5)
	g := trainedGrid(t, DefaultParams(1, 1), data)

	te, err := g.TopographicError(data)
	require.NoError(t, err)
	assert.Equal(t, 0.0, te)
}

func TestTopographicErrorRange(t *testing.T) {
	data := blobs(20)
	g := trainedGrid(t, DefaultParams(3, 3), data)

	te, err := g.TopographicError(data)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, te, 0.0)
	assert.LessOrEqual(t, te, 1.0)
}

func TestDistanceMap(t *testing.T) {
	data := blobs(20)
	g := trainedGrid(t, DefaultParams(3, 4), data)

	um, err := g.DistanceMap()
	require.NoError(t, err)
	require.Len(t, um, 3)

	var peak float64
	for _, row := range um {
		require.Len(t, row, 4)
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
			peak = math.Max(peak, v)
		}
	}
	assert.InDelta(t, 1, peak, 1e-12)
}

func TestCoordLess(t *testing.T) {
	assert.True(t, Coord{0, 4}.Less(Coord{1, 0}))
	assert.True(t, Coord{1, 0}.Less(Coord{1, 1}))
	assert.False(t, Coord{1, 1}.Less(Coord{1, 1}))
}

func TestParseInitAndOrder(t *testing.T) {
	m, err := ParseInit("pca")
	require.NoError(t, err)
	assert.Equal(t, PCAInit, m)

	o, err := ParseOrder("random")
	require.NoError(t, err)
	assert.Equal(t, RandomOrder, o)

	_, err = ParseInit("kmeans")
	assert.True(t, errors.Is(err, models.ErrConfiguration))
	_, err = ParseOrder("shuffled")
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}
