package raster

import (
	"image"
	"image/color"
	"math"

	"dbpf-mlod-renderer/internal/dbpf"
	"dbpf-mlod-renderer/internal/mathutil"

	"github.com/go-gl/mathgl/mgl64"
)

// Palette is cycled per mesh so the parts of a resource stay
// distinguishable in untextured previews.
var Palette = []color.NRGBA{
	{R: 170, G: 172, B: 182, A: 255},
	{R: 196, G: 150, B: 110, A: 255},
	{R: 110, G: 150, B: 190, A: 255},
	{R: 150, G: 185, B: 120, A: 255},
	{R: 190, G: 120, B: 150, A: 255},
}

// Options control a preview render.
type Options struct {
	Size        int        // output edge length in pixels, before supersampling
	Supersample int        // render at Size*Supersample; 0 means 1
	View        mgl64.Mat3 // model-to-view rotation; zero value means ViewThreeQuarter
	Margin      int        // border in output pixels
}

func (o Options) renderSize() int {
	ss := o.Supersample
	if ss < 1 {
		ss = 1
	}
	return o.Size * ss
}

// Render rasterizes every mesh of res into a square NRGBA image of
// Size*Supersample pixels. The model is centered and scaled so its
// projected bounds fill the frame minus the margin. An empty resource
// renders a fully transparent image.
func Render(res dbpf.MeshResource, opts Options) *image.NRGBA {
	renderSize := opts.renderSize()
	fb := NewFrameBuffer(renderSize, renderSize)

	view := opts.View
	if view == (mgl64.Mat3{}) {
		view = mathutil.ViewThreeQuarter
	}

	// Rotate once; bounds come from the rotated positions.
	rotated := make([][]mgl64.Vec3, len(res.Meshes))
	box := mathutil.EmptyBox()
	total := 0
	for i, m := range res.Meshes {
		pts := make([]mgl64.Vec3, len(m.Geometry.Vertices))
		for j, v := range m.Geometry.Vertices {
			p := view.Mul3x1(mathutil.Widen(v.Position))
			pts[j] = p
			box.Extend(p)
		}
		rotated[i] = pts
		total += len(pts)
	}
	if total == 0 {
		return fb.Image()
	}

	center := box.Center()
	extent := box.Size()
	span := math.Max(extent.X(), extent.Y())
	if span < 1e-6 {
		span = 1e-6
	}
	margin := opts.Margin * (renderSize / max(opts.Size, 1))
	scale := float64(renderSize-2*margin) / span
	half := float64(renderSize) / 2

	lc := DefaultLightConfig()
	for i, m := range res.Meshes {
		pts := rotated[i]
		screen := make([]mgl64.Vec3, len(pts))
		for j, p := range pts {
			d := p.Sub(center)
			screen[j] = mgl64.Vec3{half + d.X()*scale, half - d.Y()*scale, d.Z() * scale}
		}

		base := Palette[i%len(Palette)]
		idx := m.Geometry.Indices
		for t := 0; t+2 < len(idx); t += 3 {
			a, b, c := int(idx[t]), int(idx[t+1]), int(idx[t+2])
			if a >= len(screen) || b >= len(screen) || c >= len(screen) {
				continue
			}
			RasterizeTriangle(fb, screen[a], screen[b], screen[c], base, &lc)
		}
	}

	return fb.Image()
}
