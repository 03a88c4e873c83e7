package dbpf

import (
	"testing"

	"dbpf-mlod-renderer/internal/layout"

	"gotest.tools/v3/assert"
)

// Helpers that assemble synthetic packages with the same layouts the
// readers use.

type synthVertex struct {
	pos    [3]int16
	w      int16
	normal [4]uint8
	uv     [2]int16
}

type synthMesh struct {
	vertices []synthVertex
	deltas   []int16
	// high bits OR-ed into the buffer references
	refFlags uint32
}

type synthResource struct {
	typ         uint32
	instance    uint32
	meshes      []synthMesh
	trailing    int // extra bytes per mesh record beyond the fixed prefix
	mlodTag     string
	mlodVersion uint32
	vbufTag     string
	vbufVersion uint32
}

type synthPackage struct {
	magic        string
	major        uint32
	indexVersion uint32
	indexFlags   uint32
	resources    []synthResource
}

func newSynthPackage(resources ...synthResource) synthPackage {
	return synthPackage{
		magic:        Magic,
		major:        MajorVersion,
		indexVersion: IndexVersion,
		resources:    resources,
	}
}

func newSynthResource(instance uint32, meshes ...synthMesh) synthResource {
	return synthResource{
		typ:         MeshListType,
		instance:    instance,
		meshes:      meshes,
		mlodTag:     "MLOD",
		mlodVersion: MlodVersion,
		vbufTag:     "VBUF",
		vbufVersion: VbufVersion,
	}
}

// triangleMesh is three vertices and one triangle with indices 0, 1, 2.
func triangleMesh() synthMesh {
	return synthMesh{
		vertices: []synthVertex{
			{pos: [3]int16{0, 0, 0}, w: 1, normal: [4]uint8{128, 128, 255, 0}},
			{pos: [3]int16{1, 0, 0}, w: 1, normal: [4]uint8{128, 128, 255, 0}, uv: [2]int16{32767, 0}},
			{pos: [3]int16{0, 1, 0}, w: 1, normal: [4]uint8{128, 128, 255, 0}, uv: [2]int16{0, 32767}},
		},
		deltas: []int16{0, 1, 1},
	}
}

func encode(t testing.TB, l *layout.Layout, rec layout.Record) []byte {
	t.Helper()
	out := make([]byte, l.Size())
	_, err := layout.Encode(rec, out, l, byteOrder)
	assert.NilError(t, err)
	return out
}

func putU32(v uint32) []byte {
	return byteOrder.AppendUint32(nil, v)
}

func (v synthVertex) bytes() []byte {
	b := make([]byte, VertexStride)
	for k := 0; k < 3; k++ {
		byteOrder.PutUint16(b[k*2:], uint16(v.pos[k]))
	}
	byteOrder.PutUint16(b[6:], uint16(v.w))
	copy(b[8:12], v.normal[:])
	byteOrder.PutUint16(b[12:], uint16(v.uv[0]))
	byteOrder.PutUint16(b[14:], uint16(v.uv[1]))
	return b
}

// resourceBytes lays out one resource: chunk header, info blocks, listing,
// then the MLOD chunk followed by a VBUF and IBUF chunk per mesh.
func (r synthResource) resourceBytes(t testing.TB) []byte {
	t.Helper()

	var chunks [][]byte
	mlod := encode(t, mlodHeaderLayout, layout.Record{
		"tag":       r.mlodTag,
		"version":   r.mlodVersion,
		"meshCount": uint32(len(r.meshes)),
	})
	for i, m := range r.meshes {
		vbuf := uint32(1 + 2*i)
		ibuf := uint32(2 + 2*i)
		desc := encode(t, meshLayout, layout.Record{
			"structSize":        uint32(meshLayout.Size() - 4 + r.trailing),
			"nameId":            uint32(0x1000 + i),
			"materialIndex":     uint32(0),
			"vertexFormatIndex": uint32(0),
			"vertexBufferIndex": vbuf | m.refFlags,
			"indexBufferIndex":  ibuf | m.refFlags,
			"flags":             uint32(3),
			"streamOffset":      uint32(0),
			"startVertex":       uint32(0),
			"startIndex":        uint32(0),
			"minVertexIndex":    uint32(0),
			"vertexCount":       uint32(len(m.vertices)),
			"primitiveCount":    uint32(len(m.deltas) / 3),
			"bounds": layout.Record{
				"min": []float32{0, 0, 0},
				"max": []float32{1, 1, 0},
			},
			"mirrorPlane": []float32{0, 0, 0, 0},
		})
		mlod = append(mlod, desc...)
		if r.trailing > 0 {
			mlod = append(mlod, make([]byte, r.trailing)...)
		}
	}
	chunks = append(chunks, mlod)

	for _, m := range r.meshes {
		vb := encode(t, vbufHeaderLayout, layout.Record{
			"tag":           r.vbufTag,
			"version":       r.vbufVersion,
			"flags":         uint32(0),
			"swizzleInfoId": uint32(0),
		})
		for _, v := range m.vertices {
			vb = append(vb, v.bytes()...)
		}
		ib := encode(t, ibufHeaderLayout, layout.Record{
			"tag":              "IBUF",
			"version":          uint32(0x100),
			"flags":            uint32(0),
			"displayListUsage": uint32(0),
		})
		for _, d := range m.deltas {
			ib = byteOrder.AppendUint16(ib, uint16(d))
		}
		chunks = append(chunks, vb, ib)
	}

	n := uint32(len(chunks))
	out := encode(t, chunkHeaderLayout, layout.Record{
		"version":          uint32(3),
		"publicChunkCount": n,
		"reserved":         uint32(0),
		"externalCount":    uint32(0),
		"internalCount":    n,
	})
	out = append(out, make([]byte, int(n)*chunkInfoSize)...)

	pos := len(out) + int(n)*listingEntryLayout.Size()
	for _, c := range chunks {
		out = append(out, encode(t, listingEntryLayout, layout.Record{
			"position": uint32(pos),
			"size":     uint32(len(c)),
		})...)
		pos += len(c)
	}
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func (p synthPackage) bytes(t testing.TB) []byte {
	t.Helper()

	indexPos := headerLayout.Size()
	dataStart := indexPos + 4 + len(p.resources)*indexLayout.Size()

	var index, data []byte
	index = append(index, putU32(p.indexFlags)...)
	for _, r := range p.resources {
		res := r.resourceBytes(t)
		index = append(index, encode(t, indexLayout, layout.Record{
			"resourceType":  r.typ,
			"resourceGroup": uint32(0),
			"instanceHi":    uint32(0),
			"instanceLo":    r.instance,
			"chunkOffset":   uint32(dataStart + len(data)),
			"fileSize":      uint32(len(res)) | 0x80000000,
			"memSize":       uint32(len(res)),
			"compressed":    uint16(0),
			"reserved":      uint16(0),
		})...)
		data = append(data, res...)
	}

	out := encode(t, headerLayout, layout.Record{
		"magic":         p.magic,
		"major":         p.major,
		"minor":         uint32(0),
		"unknown1":      make([]uint8, 24),
		"indexCount":    uint32(len(p.resources)),
		"unknown2":      make([]uint8, 4),
		"indexSize":     uint32(len(index)),
		"unknown3":      make([]uint8, 12),
		"indexVersion":  p.indexVersion,
		"indexPosition": uint32(indexPos),
		"unknown4":      make([]uint8, 28),
	})
	out = append(out, index...)
	return append(out, data...)
}
