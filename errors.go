package segbench

import "errors"

var (
	// ErrShapeMismatch is returned when two grids or masks are compared with different dimensions.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrDegenerateHistogram is returned when a histogram with zero total count
	// is normalized or thresholded.
	ErrDegenerateHistogram = errors.New("degenerate histogram: zero total count")

	// ErrInvalidParameter is returned for out of range configuration values.
	ErrInvalidParameter = errors.New("invalid parameter")
)
