package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// ViewThreeQuarter is the default preview angle: yaw -35°, pitch 20°, the
// model turned toward the viewer and tipped slightly forward. Meshes are
// Y-up; the viewer looks down -Z.
var ViewThreeQuarter = ViewFromAngles(-35, 20)

// ViewFromAngles builds a preview rotation from yaw (about Y) and pitch
// (about X) in degrees. Yaw is applied first.
func ViewFromAngles(yawDeg, pitchDeg float64) mgl64.Mat3 {
	return mgl64.Rotate3DX(mgl64.DegToRad(pitchDeg)).Mul3(mgl64.Rotate3DY(mgl64.DegToRad(yawDeg)))
}

// Widen converts a decoded float32 vector for float64 projection.
func Widen(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

// Box is an axis-aligned bounding box. The zero value is not empty; start
// from EmptyBox.
type Box struct {
	Min, Max mgl64.Vec3
}

func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{Min: mgl64.Vec3{inf, inf, inf}, Max: mgl64.Vec3{-inf, -inf, -inf}}
}

// Extend grows b to include p.
func (b *Box) Extend(p mgl64.Vec3) {
	for k := range p {
		b.Min[k] = math.Min(b.Min[k], p[k])
		b.Max[k] = math.Max(b.Max[k], p[k])
	}
}

func (b Box) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b Box) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}
