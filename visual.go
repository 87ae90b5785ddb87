package segbench

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/esimov/segbench/imop"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// panelCols is the maximum number of tiles per panel row.
	panelCols = 3
	// panelGap is the spacing around the tiles in pixels.
	panelGap = 4
	// labelHeight is the height reserved above every tile for its title.
	labelHeight = 16
	// maxPanelSide limits the size of the saved panel.
	maxPanelSide = 4096
)

// Colors used to show the agreement between a predicted mask and the ground truth.
var (
	TruePositiveColor  = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	FalsePositiveColor = color.NRGBA{R: 0xe5, G: 0x39, B: 0x35, A: 0xff}
	FalseNegativeColor = color.NRGBA{R: 0x1e, G: 0x88, B: 0xe5, A: 0xff}
)

// AgreementImage colors every pixel by how the predicted mask agrees with the ground truth.
// Pixels both masks leave empty are transparent.
func AgreementImage(pred, gt *Mask) (*image.NRGBA, error) {
	if !pred.SameShape(gt) {
		return nil, fmt.Errorf("predicted mask is %dx%d, ground truth is %dx%d: %w",
			pred.Width, pred.Height, gt.Width, gt.Height, ErrShapeMismatch)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, pred.Width, pred.Height))
	for i, p := range pred.Pix {
		var c color.NRGBA
		switch g := gt.Pix[i]; {
		case p && g:
			c = TruePositiveColor
		case p:
			c = FalsePositiveColor
		case g:
			c = FalseNegativeColor
		default:
			continue
		}
		x, y := i%pred.Width, i/pred.Width
		dst.SetNRGBA(x, y, c)
	}
	return dst, nil
}

// tile is a titled image of the panel.
type tile struct {
	title string
	img   image.Image
}

// Panel lays out the input image, the ground truth and the agreement overlay of every
// prediction in a grid of at most three columns.
func Panel(g *Grid, gt *Mask, preds []Prediction) (*image.NRGBA, error) {
	base := imaging.Clone(GridImage(g))

	comp := imop.NewComposite()
	blend := imop.NewBlend()
	if err := blend.Set(imop.Screen); err != nil {
		return nil, err
	}

	tiles := []tile{
		{title: "Original", img: base},
		{title: "Ground Truth", img: MaskImage(gt)},
	}
	for _, p := range preds {
		overlay, err := AgreementImage(p.Mask, gt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Method, err)
		}
		tiles = append(tiles, tile{
			title: p.Method.String(),
			img:   comp.Draw(overlay, base, blend),
		})
	}

	cols := len(tiles)
	if cols > panelCols {
		cols = panelCols
	}
	rows := (len(tiles) + cols - 1) / cols
	cellW, cellH := g.Width+panelGap, g.Height+labelHeight+panelGap

	panel := imaging.New(cols*cellW+panelGap, rows*cellH+panelGap, color.White)
	for i, t := range tiles {
		x := panelGap + (i%cols)*cellW
		y := panelGap + (i/cols)*cellH
		drawLabel(panel, t.title, x, y+labelHeight-4)
		panel = imaging.Paste(panel, t.img, image.Pt(x, y+labelHeight))
	}

	if b := panel.Bounds(); b.Dx() > maxPanelSide || b.Dy() > maxPanelSide {
		panel = imaging.Fit(panel, maxPanelSide, maxPanelSide, imaging.NearestNeighbor)
	}
	return panel, nil
}

// WritePanel renders the comparison panel and saves it, the format is chosen by the file extension.
func WritePanel(dst string, g *Grid, gt *Mask, preds []Prediction) error {
	panel, err := Panel(g, gt, preds)
	if err != nil {
		return err
	}
	if err := imaging.Save(panel, dst); err != nil {
		return fmt.Errorf("unable to save the comparison panel: %w", err)
	}
	return nil
}

// drawLabel writes the text with its baseline starting at (x, y).
func drawLabel(dst draw.Image, text string, x, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
