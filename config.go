package segbench

import (
	"fmt"
	"math"
	"runtime"
)

// PadMode defines how the local Otsu window is extended past the grid borders.
type PadMode string

const (
	// PadSymmetric mirrors including the border sample: index -1 maps to 0, -2 to 1.
	PadSymmetric PadMode = "symmetric"
	// PadReflect mirrors excluding the border sample: index -1 maps to 1, -2 to 2.
	PadReflect PadMode = "reflect"
)

// Config holds every numeric parameter used by the thresholding methods.
type Config struct {
	// Bins is the number of histogram bins.
	Bins int
	// Min and Max define the histogram value range. Samples outside it are ignored.
	Min float64
	Max float64
	// Radius is the local Otsu window radius. The window side is 2*Radius+1.
	Radius int
	// Pad selects the border extension of the local windows.
	Pad PadMode
	// Sliding enables the incremental column histogram for the local method.
	Sliding bool
	// Workers is the number of goroutines the local method spreads rows over.
	Workers int
}

// DefaultConfig returns the configuration used for 8-bit grayscale images.
func DefaultConfig() Config {
	return Config{
		Bins:    256,
		Min:     0,
		Max:     255,
		Radius:  3,
		Pad:     PadSymmetric,
		Workers: runtime.NumCPU(),
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.Bins < 1 {
		return fmt.Errorf("bins must be at least 1, got %d: %w", c.Bins, ErrInvalidParameter)
	}
	if math.IsNaN(c.Min) || math.IsNaN(c.Max) || math.IsInf(c.Min, 0) || math.IsInf(c.Max, 0) || c.Max <= c.Min {
		return fmt.Errorf("value range [%v, %v] is not valid: %w", c.Min, c.Max, ErrInvalidParameter)
	}
	if c.Radius < 0 {
		return fmt.Errorf("radius must not be negative, got %d: %w", c.Radius, ErrInvalidParameter)
	}
	switch c.Pad {
	case PadSymmetric, PadReflect:
	default:
		return fmt.Errorf("unsupported pad mode %q: %w", c.Pad, ErrInvalidParameter)
	}
	return nil
}

// ParsePadMode converts a flag value into a PadMode.
func ParsePadMode(s string) (PadMode, error) {
	switch PadMode(s) {
	case PadSymmetric, PadReflect:
		return PadMode(s), nil
	}
	return "", fmt.Errorf("unsupported pad mode %q: %w", s, ErrInvalidParameter)
}

func (c Config) workers() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}
