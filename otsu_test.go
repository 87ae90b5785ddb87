package segbench

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoBandGrid returns a 4x4 grid with a black left half and a white right half.
func twoBandGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := GridFromRows([][]float64{
		{0, 0, 255, 255},
		{0, 0, 255, 255},
		{0, 0, 255, 255},
		{0, 0, 255, 255},
	})
	require.NoError(t, err)
	return g
}

// spikes returns a 256 bin distribution with half of the mass at both indices.
func spikes(a, b int) []float64 {
	p := make([]float64, 256)
	p[a], p[b] = 0.5, 0.5
	return p
}

func edges256() []float64 {
	b, _ := newBinner(256, 0, 255)
	return b.edges
}

func TestOtsu_TwoBandImage(t *testing.T) {
	assert := assert.New(t)

	g := twoBandGrid(t)
	h, err := BuildHistogram(g, 2, 0, 255)
	require.NoError(t, err)
	p, err := h.Distribution()
	require.NoError(t, err)

	thr, err := OtsuThreshold(p)
	assert.NoError(err)
	assert.Equal(0, thr)

	mask := Binarize(g, float64(thr))
	gt, err := MaskFromRows([][]bool{
		{false, false, true, true},
		{false, false, true, true},
		{false, false, true, true},
		{false, false, true, true},
	})
	require.NoError(t, err)
	assert.Equal(gt, mask)

	d, err := Dice(mask, gt)
	assert.NoError(err)
	assert.Equal(1.0, d)
}

func TestOtsu_SingleOccupiedBinShouldReturnZero(t *testing.T) {
	thr, err := OtsuThreshold([]float64{0, 0, 1, 0})
	assert.NoError(t, err)
	assert.Equal(t, 0, thr)

	thr, err = OtsuThreshold([]float64{1})
	assert.NoError(t, err)
	assert.Equal(t, 0, thr)
}

func TestOtsu_TiesShouldPickTheLowestIndex(t *testing.T) {
	// Every split between the spikes separates them equally well.
	thr, err := OtsuThreshold(spikes(50, 200))
	assert.NoError(t, err)
	assert.Equal(t, 50, thr)
}

func TestOtsu_UniformDistribution(t *testing.T) {
	assert := assert.New(t)

	p := make([]float64, 256)
	for i := range p {
		p[i] = 1.0 / 256
	}
	first, err := OtsuThreshold(p)
	assert.NoError(err)
	assert.Equal(127, first)

	for i := 0; i < 10; i++ {
		thr, err := OtsuThreshold(p)
		assert.NoError(err)
		assert.Equal(first, thr)
	}
}

func TestOtsu_ThresholdShouldStayInRange(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	edges := edges256()

	for n := 0; n < 50; n++ {
		p := make([]float64, 256)
		var sum float64
		for i := range p {
			p[i] = rnd.Float64()
			sum += p[i]
		}
		for i := range p {
			p[i] /= sum
		}

		thr, err := OtsuThreshold(p)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, thr, 0)
		assert.Less(t, thr, len(p))

		v, err := OtsuThresholdFloat(p, edges)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, edges[0])
		assert.LessOrEqual(t, v, edges[len(edges)-1])
	}
}

func TestOtsu_EmptyDistribution(t *testing.T) {
	_, err := OtsuThreshold(nil)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = OtsuThresholdFloat(nil, []float64{0})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestOtsuFloat_ShouldInterpolate(t *testing.T) {
	// σ²(49) is zero while σ²(50) equals σ²(51), which moves the peak half a bin down.
	v, err := OtsuThresholdFloat(spikes(50, 200), edges256())
	assert.NoError(t, err)
	assert.InDelta(t, 49.5*255.0/256.0, v, 1e-9)
}

func TestOtsuFloat_ShouldFallBackToTheBinEdge(t *testing.T) {
	assert := assert.New(t)

	// Best split in the first bin.
	v, err := OtsuThresholdFloat([]float64{0.5, 0.5}, []float64{0, 127.5, 255})
	assert.NoError(err)
	assert.Equal(0.0, v)

	// Symmetric neighbours.
	p := make([]float64, 256)
	for i := range p {
		p[i] = 1.0 / 256
	}
	v, err = OtsuThresholdFloat(p, edges256())
	assert.NoError(err)
	assert.InDelta(127*255.0/256.0, v, 1e-9)

	// Flat variance curve.
	v, err = OtsuThresholdFloat([]float64{0, 1, 0, 0}, []float64{0, 1, 2, 3, 4})
	assert.NoError(err)
	assert.Equal(0.0, v)
}

func TestOtsuFloat_EdgesMismatch(t *testing.T) {
	_, err := OtsuThresholdFloat([]float64{0.5, 0.5}, []float64{0, 1})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
