package dbpf

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ReadGeometry decodes the vertex and index buffers a mesh descriptor refers to.
// Indices are kept as decoded even when they point past the vertex buffer;
// use Validate to reject those.
func ReadGeometry(buf []byte, listing *ChunkListing, d MeshDescriptor) (Geometry, error) {
	vchunk, err := listing.Entry(d.VertexBufferIndex)
	if err != nil {
		return Geometry{}, errors.Wrap(err, "vertex buffer")
	}
	ichunk, err := listing.Entry(d.IndexBufferIndex)
	if err != nil {
		return Geometry{}, errors.Wrap(err, "index buffer")
	}

	vertices, err := readVertices(buf, listing.Start(vchunk), int(d.VertexCount))
	if err != nil {
		return Geometry{}, err
	}
	indices, err := readIndices(buf, listing.Start(ichunk), 3*int(d.PrimitiveCount))
	if err != nil {
		return Geometry{}, err
	}
	return Geometry{Vertices: vertices, Indices: indices}, nil
}

// Validate checks that every index refers to a decoded vertex.
func (g Geometry) Validate() error {
	for i, idx := range g.Indices {
		if int64(idx) >= int64(len(g.Vertices)) {
			return errors.Wrapf(ErrMalformed, "index %d refers to vertex %d of %d", i, idx, len(g.Vertices))
		}
	}
	return nil
}

func readVbufHeader(buf []byte, start int) (VbufHeader, error) {
	rec, err := decodeAt(buf, start, vbufHeaderLayout)
	if err != nil {
		return VbufHeader{}, errors.Wrap(err, "VBUF header")
	}
	h := VbufHeader{
		Tag:           rec.Str("tag"),
		Version:       rec.Uint32("version"),
		Flags:         rec.Uint32("flags"),
		SwizzleInfoID: rec.Uint32("swizzleInfoId"),
	}
	if h.Tag != "VBUF" {
		return VbufHeader{}, errors.Wrapf(ErrFormat, "VBUF header tag %q", h.Tag)
	}
	if h.Version != VbufVersion {
		return VbufHeader{}, errors.Wrapf(ErrUnsupported, "VBUF header version %#x", h.Version)
	}
	return h, nil
}

func readIbufHeader(buf []byte, start int) (IbufHeader, error) {
	rec, err := decodeAt(buf, start, ibufHeaderLayout)
	if err != nil {
		return IbufHeader{}, errors.Wrap(err, "IBUF header")
	}
	h := IbufHeader{
		Tag:              rec.Str("tag"),
		Version:          rec.Uint32("version"),
		Flags:            rec.Uint32("flags"),
		DisplayListUsage: rec.Uint32("displayListUsage"),
	}
	if h.Tag != "IBUF" {
		return IbufHeader{}, errors.Wrapf(ErrFormat, "IBUF tag %q", h.Tag)
	}
	return h, nil
}

func readVertices(buf []byte, start, count int) ([]Vertex, error) {
	if _, err := readVbufHeader(buf, start); err != nil {
		return nil, err
	}
	data, err := span(buf, start+vbufHeaderLayout.Size(), count*VertexStride)
	if err != nil {
		return nil, errors.Wrapf(err, "%d vertices", count)
	}

	vertices := make([]Vertex, count)
	for i := range vertices {
		vertices[i] = DecodeVertex(data[i*VertexStride:])
	}
	return vertices, nil
}

// DecodeVertex unpacks the position, normal and UV of one 28-byte vertex.
//
//	0  x, y, z, w  int16; position = xyz / w, w 0 means 32768
//	8  b0..b3      uint8; normal = (b2, b1, b0) - 128 over 255 - b3
//	12 u, v        int16 / 32767
//	16 blend indices, blend weights, tangent (not decoded)
func DecodeVertex(b []byte) Vertex {
	_ = b[15]

	w := float32(int16(byteOrder.Uint16(b[6:])))
	if w == 0 {
		w = positionDivisor
	}
	pos := mgl32.Vec3{
		float32(int16(byteOrder.Uint16(b[0:]))) / w,
		float32(int16(byteOrder.Uint16(b[2:]))) / w,
		float32(int16(byteOrder.Uint16(b[4:]))) / w,
	}

	scale := float32(255 - int(b[11]))
	if scale == 0 {
		scale = 128
	}
	normal := mgl32.Vec3{
		(float32(b[10]) - 128) / scale,
		(float32(b[9]) - 128) / scale,
		(float32(b[8]) - 128) / scale,
	}

	uv := mgl32.Vec2{
		float32(int16(byteOrder.Uint16(b[12:]))) / uvDivisor,
		float32(int16(byteOrder.Uint16(b[14:]))) / uvDivisor,
	}

	return Vertex{Position: pos, Normal: normal, UV: uv}
}

func readIndices(buf []byte, start, count int) ([]uint32, error) {
	if _, err := readIbufHeader(buf, start); err != nil {
		return nil, err
	}
	data, err := span(buf, start+ibufHeaderLayout.Size(), count*2)
	if err != nil {
		return nil, errors.Wrapf(err, "%d indices", count)
	}

	deltas := make([]int16, count)
	for i := range deltas {
		deltas[i] = int16(byteOrder.Uint16(data[i*2:]))
	}
	return DecodeIndexDeltas(deltas)
}

// DecodeIndexDeltas rebuilds absolute indices from a delta stream: each
// index is the running sum of all deltas up to and including its own,
// starting from zero.
func DecodeIndexDeltas(deltas []int16) ([]uint32, error) {
	indices := make([]uint32, len(deltas))
	var acc int64
	for i, d := range deltas {
		acc += int64(d)
		if acc < 0 {
			return nil, errors.Wrapf(ErrMalformed, "index %d decodes to %d", i, acc)
		}
		indices[i] = uint32(acc)
	}
	return indices, nil
}

// Bounds returns the axis-aligned box around all vertex positions.
func (g Geometry) Bounds() Bounds {
	if len(g.Vertices) == 0 {
		return Bounds{}
	}
	inf := math32.Inf(1)
	b := Bounds{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
	for _, v := range g.Vertices {
		for k := 0; k < 3; k++ {
			b.Min[k] = math32.Min(b.Min[k], v.Position[k])
			b.Max[k] = math32.Max(b.Max[k], v.Position[k])
		}
	}
	return b
}
