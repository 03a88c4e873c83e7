package raster

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// LightConfig holds precomputed lighting parameters. Directions are in view
// space: +X right, +Y up, +Z toward the viewer.
type LightConfig struct {
	LightDir  mgl64.Vec3
	RimDir    mgl64.Vec3
	ViewDir   mgl64.Vec3
	HalfMain  mgl64.Vec3 // Blinn-Phong half-vector of LightDir and ViewDir
	Ambient   float64
	Hemi      float64
	Direct    float64
	Rim       float64
	SpecInt   float64
	SpecPow   float64
	Exposure  float64
	SRGBGamma float64
	InvGamma  float64
}

// DefaultLightConfig is a key light from the upper right front with a cool
// rim from behind on the left.
func DefaultLightConfig() LightConfig {
	lightDir := mgl64.Vec3{0.45, 0.65, 0.6}.Normalize()
	rimDir := mgl64.Vec3{-0.5, 0.4, -0.65}.Normalize()
	viewDir := mgl64.Vec3{0, 0, 1}

	return LightConfig{
		LightDir:  lightDir,
		RimDir:    rimDir,
		ViewDir:   viewDir,
		HalfMain:  lightDir.Add(viewDir).Normalize(),
		Ambient:   0.35,
		Hemi:      0.40,
		Direct:    1.20,
		Rim:       0.45,
		SpecInt:   0.35,
		SpecPow:   16.0,
		Exposure:  1.0,
		SRGBGamma: 2.2,
		InvGamma:  1.0 / 2.2,
	}
}

// ComputeShade returns the combined lighting scalar for a unit face normal.
// Faces are lit from both sides; MLOD meshes are not guaranteed to be closed.
func (lc *LightConfig) ComputeShade(normal mgl64.Vec3) float64 {
	if normal.Dot(lc.ViewDir) < 0 {
		normal = normal.Mul(-1)
	}

	ndlMain := math.Abs(normal.Dot(lc.LightDir))
	ndlRim := math.Abs(normal.Dot(lc.RimDir))

	// Hemisphere fill: brighter for up-facing surfaces
	hemi := normal.Y()*0.5 + 0.5

	ndh := math.Max(normal.Dot(lc.HalfMain), 0)
	spec := math.Pow(ndh, lc.SpecPow) * lc.SpecInt

	return lc.Ambient + hemi*lc.Hemi + ndlMain*lc.Direct + ndlRim*lc.Rim + spec
}

// Apply lights an sRGB base color: decode to linear, scale by shade and
// exposure, ACES tone map, encode back to sRGB.
func (lc *LightConfig) Apply(base color.NRGBA, shade float64) color.NRGBA {
	k := shade * lc.Exposure
	ch := func(c uint8) uint8 {
		lin := ACESTonemap(srgbToLinear[c] * k)
		return clamp255(math.Pow(lin, lc.InvGamma) * 255)
	}
	return color.NRGBA{R: ch(base.R), G: ch(base.G), B: ch(base.B), A: base.A}
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
