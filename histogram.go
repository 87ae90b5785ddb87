package segbench

import (
	"fmt"
	"math"
)

// Histogram holds the sample counts of a grid over equally sized bins.
// Edges has len(Counts)+1 elements; bin i covers [Edges[i], Edges[i+1])
// and the last bin is closed on the right.
type Histogram struct {
	Counts []int
	Edges  []float64
	total  int
}

// binner maps sample values onto histogram bin indices.
type binner struct {
	bins  int
	lo    float64
	hi    float64
	norm  float64
	edges []float64
}

func newBinner(bins int, lo, hi float64) (*binner, error) {
	if bins < 1 {
		return nil, fmt.Errorf("bin count must be at least 1, got %d: %w", bins, ErrInvalidParameter)
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) || hi <= lo {
		return nil, fmt.Errorf("value range [%v, %v] is not valid: %w", lo, hi, ErrInvalidParameter)
	}
	step := (hi - lo) / float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = lo + float64(i)*step
	}
	edges[bins] = hi

	return &binner{
		bins:  bins,
		lo:    lo,
		hi:    hi,
		norm:  float64(bins) / (hi - lo),
		edges: edges,
	}, nil
}

// index returns the bin of v, or -1 when v falls outside the value range.
func (b *binner) index(v float64) int {
	if !(v >= b.lo && v <= b.hi) {
		return -1
	}
	i := int((v - b.lo) * b.norm)
	if i >= b.bins {
		i = b.bins - 1
	}
	// The scaled index can be off by one around the edges because of rounding.
	if i > 0 && v < b.edges[i] {
		i--
	} else if i < b.bins-1 && v >= b.edges[i+1] {
		i++
	}
	return i
}

// BuildHistogram counts the grid samples into bins equally sized bins spanning [lo, hi].
// Samples outside the range (and NaN samples) are not counted.
// An empty grid produces a histogram of zero counts.
func BuildHistogram(g *Grid, bins int, lo, hi float64) (*Histogram, error) {
	b, err := newBinner(bins, lo, hi)
	if err != nil {
		return nil, err
	}
	h := &Histogram{
		Counts: make([]int, bins),
		Edges:  b.edges,
	}
	if g == nil {
		return h, nil
	}
	for _, v := range g.Pix {
		if i := b.index(v); i >= 0 {
			h.Counts[i]++
			h.total++
		}
	}
	return h, nil
}

// Total returns the number of counted samples.
func (h *Histogram) Total() int {
	return h.total
}

// BinWidth returns the width of a single bin.
func (h *Histogram) BinWidth() float64 {
	return h.Edges[1] - h.Edges[0]
}

// Distribution normalizes the counts into probabilities summing to one.
func (h *Histogram) Distribution() ([]float64, error) {
	if h.total == 0 {
		return nil, ErrDegenerateHistogram
	}
	p := make([]float64, len(h.Counts))
	normalize(p, h.Counts, h.total)
	return p, nil
}

func normalize(dst []float64, counts []int, total int) {
	t := float64(total)
	for i, c := range counts {
		dst[i] = float64(c) / t
	}
}
