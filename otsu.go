package segbench

import (
	"fmt"
	"math"
)

// varianceEpsilon keeps the between-class variance finite when one class is empty.
const varianceEpsilon = 1e-12

// betweenClassVariance writes σ²(k) for every candidate split k of the distribution p into dst.
// dst must have the same length as p.
func betweenClassVariance(p, dst []float64) {
	var muT float64
	for i, v := range p {
		muT += float64(i) * v
	}

	var P, mu float64
	for k, v := range p {
		P += v
		mu += float64(k) * v
		d := muT*P - mu
		dst[k] = d * d / (P*(1-P) + varianceEpsilon)
	}
}

// argmax returns the lowest index holding the maximum value.
func argmax(v []float64) int {
	var best int
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

// OtsuThreshold returns the histogram bin index maximizing the between-class
// variance of the distribution p. On ties the lowest index wins.
// When all the mass sits in a single bin every split has zero variance and 0 is returned.
func OtsuThreshold(p []float64) (int, error) {
	if len(p) == 0 {
		return 0, fmt.Errorf("empty distribution: %w", ErrInvalidParameter)
	}
	sigma := make([]float64, len(p))
	betweenClassVariance(p, sigma)

	return argmax(sigma), nil
}

// OtsuThresholdFloat returns the Otsu threshold in intensity space, refined below
// bin resolution by fitting a parabola through the variances around the best split.
// The edges must be the bin edges of the histogram p was derived from.
func OtsuThresholdFloat(p []float64, edges []float64) (float64, error) {
	if len(p) == 0 {
		return 0, fmt.Errorf("empty distribution: %w", ErrInvalidParameter)
	}
	if len(edges) != len(p)+1 {
		return 0, fmt.Errorf("got %d bin edges for %d bins: %w", len(edges), len(p), ErrShapeMismatch)
	}
	sigma := make([]float64, len(p))
	betweenClassVariance(p, sigma)
	t := argmax(sigma)

	width := edges[1] - edges[0]
	pos := float64(t)
	if t > 0 && t < len(sigma)-1 {
		left, center, right := sigma[t-1], sigma[t], sigma[t+1]
		curvature := right - 2*center + left
		if right != left && curvature != 0 && !math.IsNaN(curvature) && !math.IsInf(curvature, 0) {
			pos += 0.5 * (right - left) / curvature
		}
	}

	v := edges[0] + pos*width
	lo, hi := edges[0], edges[len(edges)-1]
	if v < lo {
		v = lo
	} else if v > hi {
		v = hi
	}
	return v, nil
}
