package segbench

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Luminance weights of ITU-R BT.709, the ones scikit-image uses for rgb2gray.
const (
	lumR = 0.2125
	lumG = 0.7154
	lumB = 0.0721
)

// decodeImg decodes an image file to type image.Image.
func decodeImg(src string) (image.Image, error) {
	img, err := imaging.Open(src)
	if err != nil {
		return nil, fmt.Errorf("could not decode the image file %s: %w", filepath.Base(src), err)
	}
	return img, nil
}

// LoadGrid decodes the image file and converts it into an intensity grid on the 0..255 scale.
func LoadGrid(src string) (*Grid, error) {
	img, err := decodeImg(src)
	if err != nil {
		return nil, err
	}
	return GridFromImage(img), nil
}

// LoadMask decodes a ground truth image and returns the mask of the pixels
// whose intensity is greater than the threshold.
func LoadMask(src string, threshold float64) (*Mask, error) {
	g, err := LoadGrid(src)
	if err != nil {
		return nil, err
	}
	return Binarize(g, threshold), nil
}

// GridFromImage converts any image type to an intensity grid with min-point at (0, 0).
// Color images are reduced to their luminance, 16-bit samples are rescaled onto 0..255.
func GridFromImage(img image.Image) *Grid {
	b := img.Bounds()
	dx, dy := b.Dx(), b.Dy()
	g := NewGrid(dx, dy)

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < dy; y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			di := y * dx
			for x := 0; x < dx; x++ {
				g.Pix[di+x] = float64(src.Pix[si+x])
			}
		}
	case *image.Gray16:
		for y := 0; y < dy; y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			di := y * dx
			for x := 0; x < dx; x++ {
				v := uint16(src.Pix[si+2*x])<<8 | uint16(src.Pix[si+2*x+1])
				g.Pix[di+x] = float64(v) / 257
			}
		}
	case *image.YCbCr:
		// The luma plane already is the gray level.
		for y := 0; y < dy; y++ {
			di := y * dx
			for x := 0; x < dx; x++ {
				g.Pix[di+x] = float64(src.Y[src.YOffset(b.Min.X+x, b.Min.Y+y)])
			}
		}
	default:
		for y := 0; y < dy; y++ {
			di := y * dx
			for x := 0; x < dx; x++ {
				r, gr, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				g.Pix[di+x] = (lumR*float64(r) + lumG*float64(gr) + lumB*float64(bl)) / 257
			}
		}
	}
	return g
}

// GridImage renders the grid as an 8-bit grayscale image, clamping the samples to 0..255.
func GridImage(g *Grid) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for i, v := range g.Pix {
		switch {
		case v <= 0:
			dst.Pix[i] = 0
		case v >= 255:
			dst.Pix[i] = 255
		default:
			dst.Pix[i] = uint8(v + 0.5)
		}
	}
	return dst
}

// MaskImage renders the mask as a black and white image.
func MaskImage(m *Mask) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		if v {
			dst.Pix[i] = 0xff
		}
	}
	return dst
}

// SaveMask writes the mask as a black and white image. The format is chosen by the file extension.
func SaveMask(dst string, m *Mask) error {
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("unable to create the destination file: %w", err)
	}
	if err := encodeImg(f, filepath.Ext(dst), MaskImage(m)); err != nil {
		f.Close()
		os.Remove(dst)
		return err
	}
	return f.Close()
}

// encodeImg encodes an image to a destination of type io.Writer.
func encodeImg(w io.Writer, ext string, img image.Image) error {
	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(w, img)
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return errors.New("unsupported image format")
	}
}
