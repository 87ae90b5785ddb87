package segbench

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomGrid(rnd *rand.Rand, w, h int) *Grid {
	g := NewGrid(w, h)
	for i := range g.Pix {
		g.Pix[i] = float64(rnd.Intn(256))
	}
	return g
}

func TestLocal_PadIndexSymmetric(t *testing.T) {
	assert := assert.New(t)

	cases := map[int]int{
		-1: 0, -2: 1, -3: 2, -4: 3, -5: 3, -8: 0,
		0: 0, 3: 3, 4: 3, 5: 2, 7: 0, 8: 0,
	}
	for i, expected := range cases {
		assert.Equal(expected, padIndex(i, 4, PadSymmetric), "index %d", i)
	}
	assert.Equal(0, padIndex(-3, 1, PadSymmetric))
	assert.Equal(0, padIndex(5, 1, PadSymmetric))
}

func TestLocal_PadIndexReflect(t *testing.T) {
	assert := assert.New(t)

	cases := map[int]int{
		-1: 1, -2: 2, -3: 3, -4: 2, -6: 0,
		0: 0, 3: 3, 4: 2, 5: 1, 6: 0, 7: 1,
	}
	for i, expected := range cases {
		assert.Equal(expected, padIndex(i, 4, PadReflect), "index %d", i)
	}
	assert.Equal(0, padIndex(-3, 1, PadReflect))
	assert.Equal(0, padIndex(2, 1, PadReflect))
}

func TestLocal_ZeroRadiusShouldThresholdAtZero(t *testing.T) {
	assert := assert.New(t)

	g, err := GridFromRows([][]float64{
		{0, 100, 0},
		{200, 0, 1},
	})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Radius = 0
	tmap, mask, err := LocalOtsu(g, cfg)
	assert.NoError(err)
	assert.Equal(make([]int, 6), tmap.Pix)
	assert.Equal([]bool{false, true, false, true, false, true}, mask.Pix)
}

// referenceThreshold builds the window histogram of a single pixel straight from the grid.
func referenceThreshold(t *testing.T, g *Grid, cfg Config, x, y int) int {
	t.Helper()
	side := 2*cfg.Radius + 1
	win := NewGrid(side, side)
	for wy := 0; wy < side; wy++ {
		for wx := 0; wx < side; wx++ {
			sx := padIndex(x+wx-cfg.Radius, g.Width, cfg.Pad)
			sy := padIndex(y+wy-cfg.Radius, g.Height, cfg.Pad)
			win.Set(wx, wy, g.At(sx, sy))
		}
	}
	h, err := BuildHistogram(win, cfg.Bins, cfg.Min, cfg.Max)
	require.NoError(t, err)
	p, err := h.Distribution()
	require.NoError(t, err)
	thr, err := OtsuThreshold(p)
	require.NoError(t, err)
	return thr
}

func TestLocal_ShouldMatchThePerWindowThreshold(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	g := randomGrid(rnd, 9, 6)

	for _, pad := range []PadMode{PadSymmetric, PadReflect} {
		cfg := DefaultConfig()
		cfg.Bins = 16
		cfg.Radius = 2
		cfg.Pad = pad

		tmap, mask, err := LocalOtsu(g, cfg)
		require.NoError(t, err)
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				thr := referenceThreshold(t, g, cfg, x, y)
				assert.Equal(t, thr, tmap.At(x, y), "%s (%d, %d)", pad, x, y)
				assert.Equal(t, g.At(x, y) > float64(thr), mask.At(x, y))
			}
		}
	}
}

func TestLocal_SlidingShouldMatchNaive(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	grids := []*Grid{
		randomGrid(rnd, 17, 11),
		randomGrid(rnd, 1, 5),
		randomGrid(rnd, 6, 1),
	}
	for _, g := range grids {
		for _, pad := range []PadMode{PadSymmetric, PadReflect} {
			// Radius 9 exceeds every grid dimension.
			for _, radius := range []int{0, 1, 3, 9} {
				cfg := DefaultConfig()
				cfg.Pad = pad
				cfg.Radius = radius

				naiveMap, naiveMask, err := LocalOtsu(g, cfg)
				require.NoError(t, err)

				cfg.Sliding = true
				slidingMap, slidingMask, err := LocalOtsu(g, cfg)
				require.NoError(t, err)

				assert.Equal(t, naiveMap, slidingMap, "%dx%d %s r=%d", g.Width, g.Height, pad, radius)
				assert.Equal(t, naiveMask, slidingMask, "%dx%d %s r=%d", g.Width, g.Height, pad, radius)
			}
		}
	}
}

func TestLocal_ResultShouldNotDependOnWorkers(t *testing.T) {
	g := randomGrid(rand.New(rand.NewSource(3)), 20, 20)

	cfg := DefaultConfig()
	cfg.Workers = 1
	expMap, expMask, err := LocalOtsu(g, cfg)
	require.NoError(t, err)

	cfg.Workers = 8
	tmap, mask, err := LocalOtsu(g, cfg)
	require.NoError(t, err)
	assert.Equal(t, expMap, tmap)
	assert.Equal(t, expMask, mask)
}

func TestLocal_EmptyWindowShouldFail(t *testing.T) {
	g, err := GridFromRows([][]float64{
		{300, 300, 300},
		{300, 300, 300},
	})
	require.NoError(t, err)

	for _, sliding := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.Radius = 1
		cfg.Sliding = sliding
		_, _, err := LocalOtsu(g, cfg)
		assert.ErrorIs(t, err, ErrDegenerateHistogram)
	}
}

func TestLocal_InvalidConfig(t *testing.T) {
	assert := assert.New(t)
	g := NewGrid(3, 3)

	cfg := DefaultConfig()
	cfg.Radius = -1
	_, _, err := LocalOtsu(g, cfg)
	assert.ErrorIs(err, ErrInvalidParameter)

	cfg = DefaultConfig()
	cfg.Pad = "wrap"
	_, _, err = LocalOtsu(g, cfg)
	assert.ErrorIs(err, ErrInvalidParameter)

	cfg = DefaultConfig()
	cfg.Bins = 0
	_, _, err = LocalOtsu(g, cfg)
	assert.ErrorIs(err, ErrInvalidParameter)
}

func TestLocal_EmptyGrid(t *testing.T) {
	tmap, mask, err := LocalOtsu(NewGrid(0, 0), DefaultConfig())
	assert.NoError(t, err)
	assert.Empty(t, tmap.Pix)
	assert.Empty(t, mask.Pix)
}

func BenchmarkLocal_Naive(b *testing.B) {
	benchmarkLocal(b, false)
}

func BenchmarkLocal_Sliding(b *testing.B) {
	benchmarkLocal(b, true)
}

func benchmarkLocal(b *testing.B, sliding bool) {
	g := randomGrid(rand.New(rand.NewSource(1)), 256, 256)
	cfg := DefaultConfig()
	cfg.Radius = 7
	cfg.Sliding = sliding

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := LocalOtsu(g, cfg); err != nil {
			b.Fatal(err)
		}
	}
}
