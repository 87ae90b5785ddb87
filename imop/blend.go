// Package imop implements the Porter-Duff composition operations and the
// separable blend modes used to draw segmentation masks over their source image.
//
// It is mainly used to build the visual comparison panels, where the agreement
// between a predicted mask and the ground truth is tinted over the input image.
package imop

import (
	"fmt"

	"github.com/esimov/segbench/utils"
)

const (
	Normal   = "normal"
	Darken   = "darken"
	Lighten  = "lighten"
	Multiply = "multiply"
	Screen   = "screen"
	Overlay  = "overlay"
)

var blendModes = []string{Normal, Darken, Lighten, Multiply, Screen, Overlay}

// Blend holds the currently active blend mode.
type Blend struct {
	Mode string
}

// NewBlend initializes a new Blend using the normal mode.
func NewBlend() *Blend {
	return &Blend{Mode: Normal}
}

// Set activates one of the supported blend modes.
func (b *Blend) Set(mode string) error {
	if !utils.Contains(blendModes, mode) {
		return fmt.Errorf("unsupported blend mode: %q", mode)
	}
	b.Mode = mode
	return nil
}

// Get returns the currently active blend mode.
func (b *Blend) Get() string {
	return b.Mode
}

// Apply mixes the normalized backdrop channel cb with the source channel cs.
func (b *Blend) Apply(cb, cs float64) float64 {
	switch b.Mode {
	case Darken:
		return utils.Min(cb, cs)
	case Lighten:
		return utils.Max(cb, cs)
	case Multiply:
		return cb * cs
	case Screen:
		return cb + cs - cb*cs
	case Overlay:
		// Overlay is hard light with the layers swapped.
		if cb <= 0.5 {
			return 2 * cb * cs
		}
		return 1 - 2*(1-cb)*(1-cs)
	}
	return cs
}
