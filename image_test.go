package segbench

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func TestImage_GridFromImage(t *testing.T) {
	rect := image.Rect(-1, -1, 7, 5)
	shade := func(x, y int) uint8 { return uint8(20*(x+1) + 7*(y+1)) }

	gray := image.NewGray(rect)
	gray16 := image.NewGray16(rect)
	nrgba := image.NewNRGBA(rect)
	ycbcr := image.NewYCbCr(rect, image.YCbCrSubsampleRatio420)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			v := shade(x, y)
			gray.SetGray(x, y, color.Gray{Y: v})
			gray16.SetGray16(x, y, color.Gray16{Y: uint16(v) * 257})
			nrgba.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 0xff})
			ycbcr.Y[ycbcr.YOffset(x, y)] = v
		}
	}
	for i := range ycbcr.Cb {
		ycbcr.Cb[i], ycbcr.Cr[i] = 128, 128
	}

	testCases := []struct {
		name string
		img  image.Image
	}{
		{name: "Gray", img: gray},
		{name: "Gray16", img: gray16},
		{name: "NRGBA", img: nrgba},
		{name: "YCbCr-420", img: ycbcr},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := GridFromImage(tc.img)
			require.Equal(t, rect.Dx(), g.Width)
			require.Equal(t, rect.Dy(), g.Height)
			for y := 0; y < g.Height; y++ {
				for x := 0; x < g.Width; x++ {
					expected := float64(shade(x+rect.Min.X, y+rect.Min.Y))
					assert.InDelta(t, expected, g.At(x, y), 1e-6, "(%d, %d)", x, y)
				}
			}
		})
	}
}

func TestImage_ColorShouldUseLuminance(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0xff, A: 0xff})
	img.SetNRGBA(1, 0, color.NRGBA{G: 0xff, A: 0xff})
	img.SetNRGBA(2, 0, color.NRGBA{B: 0xff, A: 0xff})

	g := GridFromImage(img)
	assert.InDelta(t, 0.2125*255, g.Pix[0], 1e-9)
	assert.InDelta(t, 0.7154*255, g.Pix[1], 1e-9)
	assert.InDelta(t, 0.0721*255, g.Pix[2], 1e-9)
}

func TestImage_LoadGrid16BitTiff(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 2))
	img.SetGray16(1, 0, color.Gray16{Y: 0xffff})
	img.SetGray16(0, 1, color.Gray16{Y: 100 * 257})

	path := filepath.Join(t.TempDir(), "t01.tif")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, tiff.Encode(f, img, nil))
	require.NoError(t, f.Close())

	g, err := LoadGrid(path)
	assert.NoError(t, err)
	assert.Equal(t, []float64{0, 255, 100, 0}, g.Pix)
}

func TestImage_LoadGridShouldFailOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t01.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))

	_, err := LoadGrid(path)
	assert.Error(t, err)

	_, err = LoadMask(filepath.Join(t.TempDir(), "missing.png"), 0)
	assert.Error(t, err)
}

func TestImage_GridImageShouldClamp(t *testing.T) {
	g, err := GridFromRows([][]float64{{-4, 0.4, 127.5, 300}})
	require.NoError(t, err)

	img := GridImage(g)
	assert.Equal(t, []uint8{0, 0, 128, 255}, img.Pix)
}

func TestImage_SaveMask(t *testing.T) {
	m, err := MaskFromRows([][]bool{
		{true, false, false},
		{false, true, true},
	})
	require.NoError(t, err)

	dir := t.TempDir()
	for _, ext := range []string{".png", ".tif", ".bmp"} {
		path := filepath.Join(dir, "mask"+ext)
		require.NoError(t, SaveMask(path, m), ext)

		loaded, err := LoadMask(path, 127)
		assert.NoError(t, err)
		assert.Equal(t, m, loaded, ext)
	}

	err = SaveMask(filepath.Join(dir, "mask.gif"), m)
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "mask.gif"))
}
