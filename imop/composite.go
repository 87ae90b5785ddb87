package imop

import (
	"fmt"
	"image"
	"image/color"

	"github.com/esimov/segbench/utils"
)

const (
	Clear   = "clear"
	Copy    = "copy"
	Dst     = "dst"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
)

var compositeOps = []string{Clear, Copy, Dst, SrcOver, DstOver, SrcIn, DstIn, SrcOut, DstOut, SrcAtop, DstAtop, Xor}

// Composite holds the currently active composition operation.
type Composite struct {
	Op string
}

// NewComposite initializes a composite with the source-over operation.
func NewComposite() *Composite {
	return &Composite{Op: SrcOver}
}

// Set activates one of the supported composition operations.
func (c *Composite) Set(op string) error {
	if !utils.Contains(compositeOps, op) {
		return fmt.Errorf("unsupported composite operation: %q", op)
	}
	c.Op = op
	return nil
}

// Get returns the currently active composition operation.
func (c *Composite) Get() string {
	return c.Op
}

// factors returns the Porter-Duff fractions Fa and Fb of the source and the backdrop.
func (c *Composite) factors(as, ab float64) (float64, float64) {
	switch c.Op {
	case Clear:
		return 0, 0
	case Copy:
		return 1, 0
	case Dst:
		return 0, 1
	case DstOver:
		return 1 - ab, 1
	case SrcIn:
		return ab, 0
	case DstIn:
		return 0, as
	case SrcOut:
		return 1 - ab, 0
	case DstOut:
		return 0, 1 - as
	case SrcAtop:
		return ab, 1 - as
	case DstAtop:
		return 1 - ab, as
	case Xor:
		return 1 - ab, 1 - as
	}
	return 1, 1 - as
}

// Draw composites src over dst and returns the result as a new image with the bounds of dst.
// When blend is not nil the source colors are first mixed with the backdrop.
func (c *Composite) Draw(src, dst *image.NRGBA, blend *Blend) *image.NRGBA {
	b := dst.Bounds()
	out := image.NewNRGBA(b)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cb := dst.NRGBAAt(x, y)
			var cs color.NRGBA
			if (image.Point{X: x, Y: y}).In(src.Bounds()) {
				cs = src.NRGBAAt(x, y)
			}

			as, ab := float64(cs.A)/255, float64(cb.A)/255
			s := [3]float64{float64(cs.R) / 255, float64(cs.G) / 255, float64(cs.B) / 255}
			d := [3]float64{float64(cb.R) / 255, float64(cb.G) / 255, float64(cb.B) / 255}

			if blend != nil {
				for i := range s {
					s[i] = (1-ab)*s[i] + ab*blend.Apply(d[i], s[i])
				}
			}

			fa, fb := c.factors(as, ab)
			ao := as*fa + ab*fb
			if ao <= 0 {
				out.SetNRGBA(x, y, color.NRGBA{})
				continue
			}
			var px [3]uint8
			for i := range px {
				co := (as*fa*s[i] + ab*fb*d[i]) / ao
				px[i] = uint8(utils.Clamp(co, 0, 1)*255 + 0.5)
			}
			out.SetNRGBA(x, y, color.NRGBA{
				R: px[0],
				G: px[1],
				B: px[2],
				A: uint8(utils.Clamp(ao, 0, 1)*255 + 0.5),
			})
		}
	}
	return out
}
