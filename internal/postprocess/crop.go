package postprocess

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// CropAndCenter crops img to its non-transparent pixels, scales the crop so
// its longer side is fillRatio of size, and centers it on a transparent
// size×size canvas.
func CropAndCenter(img *image.NRGBA, size int, fillRatio float64) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, size, size))
	box, ok := OpaqueBounds(img)
	if !ok {
		return canvas
	}

	maxDim := float64(size) * fillRatio
	scale := maxDim / math.Max(float64(box.Dx()), float64(box.Dy()))
	w := max(int(float64(box.Dx())*scale+0.5), 1)
	h := max(int(float64(box.Dy())*scale+0.5), 1)

	off := image.Pt((size-w)/2, (size-h)/2)
	dst := image.Rectangle{Min: off, Max: off.Add(image.Pt(w, h))}
	draw.CatmullRom.Scale(canvas, dst, img, box, draw.Src, nil)
	return canvas
}

// OpaqueBounds returns the smallest rectangle holding every pixel with
// non-zero alpha. ok is false for a fully transparent image.
func OpaqueBounds(img *image.NRGBA) (r image.Rectangle, ok bool) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := b.Min.X; x < b.Max.X; x++ {
			if row[(x-b.Min.X)*4+3] == 0 {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}
