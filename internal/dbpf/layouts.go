package dbpf

import (
	"dbpf-mlod-renderer/internal/layout"

	"github.com/pkg/errors"
)

// Wire layouts. Field names are used as record keys by the readers below.
var (
	headerLayout = layout.MustMake(
		layout.Str("magic", 4),
		layout.Uint32("major"),
		layout.Uint32("minor"),
		layout.Uint8("unknown1").Times(24),
		layout.Uint32("indexCount"),
		layout.Uint8("unknown2").Times(4),
		layout.Uint32("indexSize"),
		layout.Uint8("unknown3").Times(12),
		layout.Uint32("indexVersion"),
		layout.Uint32("indexPosition"),
		layout.Uint8("unknown4").Times(28),
	)

	indexLayout = layout.MustMake(
		layout.Uint32("resourceType"),
		layout.Uint32("resourceGroup"),
		layout.Uint32("instanceHi"),
		layout.Uint32("instanceLo"),
		layout.Uint32("chunkOffset"),
		layout.Uint32("fileSize"),
		layout.Uint32("memSize"),
		layout.Uint16("compressed"),
		layout.Uint16("reserved"),
	)

	chunkHeaderLayout = layout.MustMake(
		layout.Uint32("version"),
		layout.Uint32("publicChunkCount"),
		layout.Uint32("reserved"),
		layout.Uint32("externalCount"),
		layout.Uint32("internalCount"),
	)

	listingEntryLayout = layout.MustMake(
		layout.Uint32("position"),
		layout.Uint32("size"),
	)

	tagLayout = layout.MustMake(
		layout.Str("tag", 4),
	)

	mlodHeaderLayout = layout.MustMake(
		layout.Str("tag", 4),
		layout.Uint32("version"),
		layout.Uint32("meshCount"),
	)

	meshBoundsLayout = layout.MustMake(
		layout.Float32("min").Times(3),
		layout.Float32("max").Times(3),
	)

	// Fixed prefix only; the true record length is structSize+4.
	meshLayout = layout.MustMake(
		layout.Uint32("structSize"),
		layout.Uint32("nameId"),
		layout.Uint32("materialIndex"),
		layout.Uint32("vertexFormatIndex"),
		layout.Uint32("vertexBufferIndex"),
		layout.Uint32("indexBufferIndex"),
		layout.Uint32("flags"),
		layout.Uint32("streamOffset"),
		layout.Uint32("startVertex"),
		layout.Uint32("startIndex"),
		layout.Uint32("minVertexIndex"),
		layout.Uint32("vertexCount"),
		layout.Uint32("primitiveCount"),
		layout.Sub("bounds", meshBoundsLayout),
		layout.Float32("mirrorPlane").Times(4),
	)

	vbufHeaderLayout = layout.MustMake(
		layout.Str("tag", 4),
		layout.Uint32("version"),
		layout.Uint32("flags"),
		layout.Uint32("swizzleInfoId"),
	)

	ibufHeaderLayout = layout.MustMake(
		layout.Str("tag", 4),
		layout.Uint32("version"),
		layout.Uint32("flags"),
		layout.Uint32("displayListUsage"),
	)
)

// span returns buf[off:off+n] or ErrBounds.
func span(buf []byte, off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off > len(buf) || n > len(buf)-off {
		return nil, errors.Wrapf(ErrBounds, "range %d+%d exceeds %d-byte buffer", off, n, len(buf))
	}
	return buf[off : off+n], nil
}

// decodeAt decodes one l-shaped record at absolute offset off.
func decodeAt(buf []byte, off int, l *layout.Layout) (layout.Record, error) {
	b, err := span(buf, off, l.Size())
	if err != nil {
		return nil, err
	}
	return layout.Decode(b, l, byteOrder)
}
