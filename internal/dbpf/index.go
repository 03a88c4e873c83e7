package dbpf

import (
	"github.com/pkg/errors"
)

// ReadIndex decodes the resource index described by h.
//
// The index starts with a bitflags word. Set bits move shared fields into an
// index header and shorten every record; only the all-zero form is decoded.
func ReadIndex(buf []byte, h Header) ([]IndexEntry, error) {
	pos := int(h.IndexPosition)
	flags, err := span(buf, pos, 4)
	if err != nil {
		return nil, errors.Wrap(err, "index flags")
	}
	if bits := byteOrder.Uint32(flags); bits != 0 {
		return nil, errors.Wrapf(ErrUnsupported, "index compression (flags %#x)", bits)
	}

	start := pos + 4
	stride := indexLayout.Size()
	if _, err := span(buf, start, int(h.IndexCount)*stride); err != nil {
		return nil, errors.Wrapf(err, "index table of %d entries", h.IndexCount)
	}

	entries := make([]IndexEntry, h.IndexCount)
	for i := range entries {
		rec, err := decodeAt(buf, start+i*stride, indexLayout)
		if err != nil {
			return nil, errors.Wrapf(err, "index entry %d", i)
		}
		entries[i] = IndexEntry{
			ResourceType:  rec.Uint32("resourceType"),
			ResourceGroup: rec.Uint32("resourceGroup"),
			InstanceHi:    rec.Uint32("instanceHi"),
			InstanceLo:    rec.Uint32("instanceLo"),
			ChunkOffset:   rec.Uint32("chunkOffset"),
			// bit 31 is a flag, not part of the size
			FileSize:   rec.Uint32("fileSize") & fileSizeMask,
			MemSize:    rec.Uint32("memSize"),
			Compressed: rec.Uint16("compressed"),
			Reserved:   rec.Uint16("reserved"),
		}
	}
	return entries, nil
}
