package raster

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RasterizeTriangle fills one screen-space triangle with a flat-shaded
// color. Vertices are (x, y) in pixels with y down and z growing toward the
// viewer. Pixels behind what is already in the z-buffer are left untouched.
//
// This is the hot path: no allocations inside the pixel loop.
func RasterizeTriangle(fb *FrameBuffer, p0, p1, p2 mgl64.Vec3, base color.NRGBA, lc *LightConfig) {
	x0, y0, z0 := p0[0], p0[1], p0[2]
	x1, y1, z1 := p1[0], p1[1], p1[2]
	x2, y2, z2 := p2[0], p2[1], p2[2]

	// Face normal in a y-up frame for lighting
	e1 := mgl64.Vec3{x1 - x0, y0 - y1, z1 - z0}
	e2 := mgl64.Vec3{x2 - x0, y0 - y2, z2 - z0}
	n := e1.Cross(e2)
	if n.Len() < 1e-8 {
		return
	}
	c := lc.Apply(base, lc.ComputeShade(n.Normalize()))

	minX := int(math.Max(math.Floor(math.Min(math.Min(x0, x1), x2)), 0))
	maxX := int(math.Min(math.Ceil(math.Max(math.Max(x0, x1), x2)), float64(fb.Width-1)))
	minY := int(math.Max(math.Floor(math.Min(math.Min(y0, y1), y2)), 0))
	maxY := int(math.Min(math.Ceil(math.Max(math.Max(y0, y1), y2)), float64(fb.Height-1)))
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}
			fb.ZBuf[zIdx] = z

			px := zIdx * 4
			fb.Color[px] = c.R
			fb.Color[px+1] = c.G
			fb.Color[px+2] = c.B
			fb.Color[px+3] = c.A
		}
	}
}
