package segbench

// Binarize returns the mask of the samples strictly greater than the threshold.
func Binarize(g *Grid, threshold float64) *Mask {
	m := NewMask(g.Width, g.Height)
	for i, v := range g.Pix {
		m.Pix[i] = v > threshold
	}
	return m
}
