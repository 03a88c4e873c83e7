package postprocess

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func square(size int, r image.Rectangle, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

var red = color.NRGBA{R: 220, G: 40, B: 30, A: 255}

func near(a, b color.NRGBA) bool {
	d := func(x, y uint8) bool { return x-y <= 2 || y-x <= 2 }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

func TestDownsample(t *testing.T) {
	img := square(64, image.Rect(0, 0, 64, 64), red)
	out := Downsample(img, 16)
	assert.Check(t, is.Equal(out.Bounds(), image.Rect(0, 0, 16, 16)))
	assert.Check(t, near(out.NRGBAAt(8, 8), red), "%v", out.NRGBAAt(8, 8))

	small := square(8, image.Rect(0, 0, 8, 8), red)
	assert.Check(t, Downsample(small, 16) == small)
}

func TestDownsampleKeepsEdgeColor(t *testing.T) {
	// Half transparent black, half red: edge pixels must not darken.
	img := square(64, image.Rect(0, 0, 32, 64), red)
	out := Downsample(img, 16)
	for y := 0; y < 16; y++ {
		c := out.NRGBAAt(8, y)
		if c.A > 64 {
			assert.Check(t, c.R > 200, "row %d: %v", y, c)
		}
	}
	edge := out.NRGBAAt(7, 8)
	assert.Check(t, edge.A > 0 && edge.R > 180, "edge: %v", edge)
}

func TestOpaqueBounds(t *testing.T) {
	img := square(32, image.Rect(4, 10, 12, 14), red)
	r, ok := OpaqueBounds(img)
	assert.Check(t, ok)
	assert.Check(t, is.Equal(r, image.Rect(4, 10, 12, 14)))

	_, ok = OpaqueBounds(image.NewNRGBA(image.Rect(0, 0, 4, 4)))
	assert.Check(t, !ok)
}

func TestCropAndCenter(t *testing.T) {
	img := square(100, image.Rect(0, 0, 20, 10), red)
	out := CropAndCenter(img, 64, 0.5)
	assert.Check(t, is.Equal(out.Bounds(), image.Rect(0, 0, 64, 64)))

	r, ok := OpaqueBounds(out)
	assert.Assert(t, ok)
	assert.Check(t, is.Equal(r, image.Rect(16, 24, 48, 40)))

	empty := CropAndCenter(image.NewNRGBA(image.Rect(0, 0, 10, 10)), 8, 0.9)
	assert.Check(t, is.Equal(empty.Bounds().Dx(), 8))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("WebP")
	assert.NilError(t, err)
	assert.Check(t, is.Equal(f, FormatWebP))
	assert.Check(t, is.Equal(FormatTGA.Ext(), ".tga"))

	_, err = ParseFormat("png")
	assert.Check(t, is.ErrorContains(err, "unknown preview format"))
}

func TestEncode(t *testing.T) {
	img := square(8, image.Rect(2, 2, 6, 6), red)

	var buf bytes.Buffer
	assert.NilError(t, Encode(&buf, img, FormatWebP))
	decoded, err := nativewebp.Decode(bytes.NewReader(buf.Bytes()))
	assert.NilError(t, err)
	assert.Check(t, is.Equal(decoded.Bounds(), img.Bounds()))

	buf.Reset()
	assert.NilError(t, Encode(&buf, img, FormatTGA))
	decoded, err = tga.Decode(bytes.NewReader(buf.Bytes()))
	assert.NilError(t, err)
	assert.Check(t, is.Equal(decoded.Bounds(), img.Bounds()))
	r, g, b, a := decoded.At(3, 3).RGBA()
	assert.Check(t, is.DeepEqual([]uint32{r >> 8, g >> 8, b >> 8, a >> 8}, []uint32{220, 40, 30, 255}))

	assert.Check(t, Encode(&buf, img, Format("bmp")) != nil)
}
