package dbpf

import (
	"dbpf-mlod-renderer/internal/layout"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ReadMlod decodes the MLOD header and mesh descriptors of a listing.
//
// Mesh records carry their own length: the leading structSize word of the
// first record gives the stride (structSize + 4) of every record, which may
// be longer than the fixed prefix decoded here.
func ReadMlod(buf []byte, listing *ChunkListing) (MlodHeader, []MeshDescriptor, error) {
	entry, err := listing.FindMeshChunk()
	if err != nil {
		return MlodHeader{}, nil, err
	}

	start := listing.Start(entry)
	rec, err := decodeAt(buf, start, mlodHeaderLayout)
	if err != nil {
		return MlodHeader{}, nil, errors.Wrap(err, "MLOD header")
	}
	hdr := MlodHeader{
		Tag:       rec.Str("tag"),
		Version:   rec.Uint32("version"),
		MeshCount: rec.Uint32("meshCount"),
	}
	if hdr.Tag != "MLOD" {
		return MlodHeader{}, nil, errors.Wrapf(ErrFormat, "MLOD tag %q", hdr.Tag)
	}
	if hdr.Version != MlodVersion {
		return MlodHeader{}, nil, errors.Wrapf(ErrUnsupported, "MLOD version %d", hdr.Version)
	}

	if hdr.MeshCount == 0 {
		return hdr, nil, nil
	}

	listStart := start + mlodHeaderLayout.Size()
	sizeWord, err := span(buf, listStart, 4)
	if err != nil {
		return MlodHeader{}, nil, errors.Wrap(err, "mesh record size")
	}
	stride := int(byteOrder.Uint32(sizeWord)) + 4
	if stride < meshLayout.Size() {
		return MlodHeader{}, nil, errors.Wrapf(ErrMalformed, "mesh record size %d below %d-byte prefix", stride, meshLayout.Size())
	}
	if _, err := span(buf, listStart, int(hdr.MeshCount)*stride); err != nil {
		return MlodHeader{}, nil, errors.Wrapf(err, "%d mesh records", hdr.MeshCount)
	}

	meshes := make([]MeshDescriptor, hdr.MeshCount)
	for i := range meshes {
		rec, err := decodeAt(buf, listStart+i*stride, meshLayout)
		if err != nil {
			return MlodHeader{}, nil, errors.Wrapf(err, "mesh %d", i)
		}
		meshes[i] = meshDescriptor(rec)
	}
	return hdr, meshes, nil
}

func meshDescriptor(rec layout.Record) MeshDescriptor {
	bounds := rec.Sub("bounds")
	return MeshDescriptor{
		StructSize:        rec.Uint32("structSize"),
		NameID:            rec.Uint32("nameId"),
		MaterialIndex:     rec.Uint32("materialIndex"),
		VertexFormatIndex: rec.Uint32("vertexFormatIndex"),
		// the high bits mark the reference as private
		VertexBufferIndex: rec.Uint32("vertexBufferIndex") & bufferIndexMask,
		IndexBufferIndex:  rec.Uint32("indexBufferIndex") & bufferIndexMask,
		Flags:             rec.Uint32("flags"),
		StreamOffset:      rec.Uint32("streamOffset"),
		StartVertex:       rec.Uint32("startVertex"),
		StartIndex:        rec.Uint32("startIndex"),
		MinVertexIndex:    rec.Uint32("minVertexIndex"),
		VertexCount:       rec.Uint32("vertexCount"),
		PrimitiveCount:    rec.Uint32("primitiveCount"),
		Bounds: Bounds{
			Min: vec3(bounds.Float32s("min")),
			Max: vec3(bounds.Float32s("max")),
		},
		MirrorPlane: vec4(rec.Float32s("mirrorPlane")),
	}
}

func vec3(f []float32) mgl32.Vec3 {
	return mgl32.Vec3{f[0], f[1], f[2]}
}

func vec4(f []float32) mgl32.Vec4 {
	return mgl32.Vec4{f[0], f[1], f[2], f[3]}
}
