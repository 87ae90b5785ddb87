package segbench

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// padIndex maps a virtual index i onto [0, n) according to the padding mode.
// Offsets larger than the grid dimension keep bouncing between the borders.
func padIndex(i, n int, mode PadMode) int {
	if i >= 0 && i < n {
		return i
	}
	switch mode {
	case PadReflect:
		if n == 1 {
			return 0
		}
		period := 2 * (n - 1)
		m := i % period
		if m < 0 {
			m += period
		}
		if m >= n {
			m = period - m
		}
		return m
	default:
		period := 2 * n
		m := i % period
		if m < 0 {
			m += period
		}
		if m >= n {
			m = period - 1 - m
		}
		return m
	}
}

// paddedBins holds the histogram bin of every sample of the grid extended by radius on each side.
// Samples outside the value range are stored as -1.
type paddedBins struct {
	width  int
	height int
	bins   []int
}

func newPaddedBins(g *Grid, b *binner, radius int, mode PadMode) *paddedBins {
	pw, ph := g.Width+2*radius, g.Height+2*radius
	pb := &paddedBins{
		width:  pw,
		height: ph,
		bins:   make([]int, pw*ph),
	}
	cols := make([]int, pw)
	for x := range cols {
		cols[x] = padIndex(x-radius, g.Width, mode)
	}
	for y := 0; y < ph; y++ {
		sy := padIndex(y-radius, g.Height, mode)
		row := g.Pix[sy*g.Width : (sy+1)*g.Width]
		dst := pb.bins[y*pw : (y+1)*pw]
		for x, sx := range cols {
			dst[x] = b.index(row[sx])
		}
	}
	return pb
}

// windowState is the per worker scratch space used to threshold a single window.
type windowState struct {
	counts []int
	total  int
	p      []float64
	sigma  []float64
}

func newWindowState(bins int) *windowState {
	return &windowState{
		counts: make([]int, bins),
		p:      make([]float64, bins),
		sigma:  make([]float64, bins),
	}
}

func (w *windowState) reset() {
	for i := range w.counts {
		w.counts[i] = 0
	}
	w.total = 0
}

func (w *windowState) add(bin int) {
	if bin >= 0 {
		w.counts[bin]++
		w.total++
	}
}

func (w *windowState) remove(bin int) {
	if bin >= 0 {
		w.counts[bin]--
		w.total--
	}
}

func (w *windowState) threshold() (int, bool) {
	if w.total == 0 {
		return 0, false
	}
	normalize(w.p, w.counts, w.total)
	betweenClassVariance(w.p, w.sigma)
	return argmax(w.sigma), true
}

// LocalOtsu computes an Otsu threshold for every pixel over the (2*Radius+1)² window
// centered on it and returns the per pixel thresholds together with the mask
// of the pixels strictly greater than their own threshold.
func LocalOtsu(g *Grid, cfg Config) (*ThresholdMap, *Mask, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	b, err := newBinner(cfg.Bins, cfg.Min, cfg.Max)
	if err != nil {
		return nil, nil, err
	}
	if g.Empty() {
		return NewThresholdMap(0, 0), NewMask(0, 0), nil
	}

	pb := newPaddedBins(g, b, cfg.Radius, cfg.Pad)
	tmap := NewThresholdMap(g.Width, g.Height)
	mask := NewMask(g.Width, g.Height)

	row := naiveRow
	if cfg.Sliding {
		row = slidingRow
	}

	var eg errgroup.Group
	eg.SetLimit(cfg.workers())
	for y := 0; y < g.Height; y++ {
		y := y
		eg.Go(func() error {
			ws := newWindowState(cfg.Bins)
			if err := row(pb, cfg.Radius, y, ws, tmap.Pix[y*g.Width:(y+1)*g.Width]); err != nil {
				return err
			}
			src := g.Pix[y*g.Width : (y+1)*g.Width]
			dst := mask.Pix[y*g.Width : (y+1)*g.Width]
			for x, v := range src {
				dst[x] = v > float64(tmap.Pix[y*g.Width+x])
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return tmap, mask, nil
}

// rowFn fills the thresholds of output row y.
type rowFn func(pb *paddedBins, radius, y int, ws *windowState, out []int) error

// naiveRow rebuilds the window histogram from scratch for every pixel.
func naiveRow(pb *paddedBins, radius, y int, ws *windowState, out []int) error {
	side := 2*radius + 1
	for x := range out {
		ws.reset()
		for wy := y; wy < y+side; wy++ {
			line := pb.bins[wy*pb.width+x : wy*pb.width+x+side]
			for _, bin := range line {
				ws.add(bin)
			}
		}
		t, ok := ws.threshold()
		if !ok {
			return fmt.Errorf("window at (%d, %d) has no samples in range: %w", x, y, ErrDegenerateHistogram)
		}
		out[x] = t
	}
	return nil
}

// slidingRow builds the first window of the row once and then moves it right
// by dropping the leftmost column and adding the new rightmost one.
func slidingRow(pb *paddedBins, radius, y int, ws *windowState, out []int) error {
	side := 2*radius + 1
	ws.reset()
	for wy := y; wy < y+side; wy++ {
		for wx := 0; wx < side; wx++ {
			ws.add(pb.bins[wy*pb.width+wx])
		}
	}
	for x := range out {
		if x > 0 {
			for wy := y; wy < y+side; wy++ {
				ws.remove(pb.bins[wy*pb.width+x-1])
				ws.add(pb.bins[wy*pb.width+x+side-1])
			}
		}
		t, ok := ws.threshold()
		if !ok {
			return fmt.Errorf("window at (%d, %d) has no samples in range: %w", x, y, ErrDegenerateHistogram)
		}
		out[x] = t
	}
	return nil
}
