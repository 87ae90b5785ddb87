package segbench

import "fmt"

// Grid is a two dimensional array of intensity samples stored in row-major order.
// The samples are either depth limited integral values (e.g. 0..255) or normalized values.
type Grid struct {
	Width  int
	Height int
	Pix    []float64
}

// NewGrid allocates a zero filled grid of the given size.
func NewGrid(width, height int) *Grid {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Grid{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// GridFromRows builds a grid from a slice of equally sized rows.
func GridFromRows(rows [][]float64) (*Grid, error) {
	if len(rows) == 0 {
		return NewGrid(0, 0), nil
	}
	g := NewGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != g.Width {
			return nil, fmt.Errorf("row %d has %d samples, expected %d: %w", y, len(row), g.Width, ErrShapeMismatch)
		}
		copy(g.Pix[y*g.Width:], row)
	}
	return g, nil
}

// At returns the sample at column x and row y.
func (g *Grid) At(x, y int) float64 {
	return g.Pix[y*g.Width+x]
}

// Set stores the sample at column x and row y.
func (g *Grid) Set(x, y int, v float64) {
	g.Pix[y*g.Width+x] = v
}

// Empty reports whether the grid holds no samples.
func (g *Grid) Empty() bool {
	return g == nil || g.Width == 0 || g.Height == 0
}

// Mask is a boolean grid with the same layout as Grid.
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask allocates an all-false mask.
func NewMask(width, height int) *Mask {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]bool, width*height),
	}
}

// MaskFromRows builds a mask from a slice of equally sized rows.
func MaskFromRows(rows [][]bool) (*Mask, error) {
	if len(rows) == 0 {
		return NewMask(0, 0), nil
	}
	m := NewMask(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != m.Width {
			return nil, fmt.Errorf("row %d has %d cells, expected %d: %w", y, len(row), m.Width, ErrShapeMismatch)
		}
		copy(m.Pix[y*m.Width:], row)
	}
	return m, nil
}

// At returns the mask bit at column x and row y.
func (m *Mask) At(x, y int) bool {
	return m.Pix[y*m.Width+x]
}

// Set stores the mask bit at column x and row y.
func (m *Mask) Set(x, y int, v bool) {
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of true cells.
func (m *Mask) Count() int {
	var n int
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// SameShape reports whether both masks have identical dimensions.
func (m *Mask) SameShape(o *Mask) bool {
	return m.Width == o.Width && m.Height == o.Height
}

// ThresholdMap holds one histogram bin index per pixel, as produced by the local Otsu method.
type ThresholdMap struct {
	Width  int
	Height int
	Pix    []int
}

// NewThresholdMap allocates a zero filled threshold map.
func NewThresholdMap(width, height int) *ThresholdMap {
	return &ThresholdMap{
		Width:  width,
		Height: height,
		Pix:    make([]int, width*height),
	}
}

// At returns the threshold at column x and row y.
func (t *ThresholdMap) At(x, y int) int {
	return t.Pix[y*t.Width+x]
}
