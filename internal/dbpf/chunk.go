package dbpf

import (
	"github.com/pkg/errors"
)

// ReadChunkListing decodes the chunk header and internal chunk table of the
// resource whose data starts at chunkOffset, and tags every entry by peeking
// its first four bytes.
func ReadChunkListing(buf []byte, chunkOffset int) (*ChunkListing, error) {
	rec, err := decodeAt(buf, chunkOffset, chunkHeaderLayout)
	if err != nil {
		return nil, errors.Wrap(err, "chunk header")
	}
	hdr := ChunkHeader{
		Version:          rec.Uint32("version"),
		PublicChunkCount: rec.Uint32("publicChunkCount"),
		Reserved:         rec.Uint32("reserved"),
		ExternalCount:    rec.Uint32("externalCount"),
		InternalCount:    rec.Uint32("internalCount"),
	}

	infoSize := (int(hdr.InternalCount) + int(hdr.ExternalCount)) * chunkInfoSize
	listingStart := chunkOffset + chunkHeaderLayout.Size() + infoSize
	stride := listingEntryLayout.Size()
	if _, err := span(buf, listingStart, int(hdr.InternalCount)*stride); err != nil {
		return nil, errors.Wrapf(err, "chunk listing of %d entries", hdr.InternalCount)
	}

	listing := &ChunkListing{
		Offset:  chunkOffset,
		Header:  hdr,
		Entries: make([]ChunkEntry, hdr.InternalCount),
	}
	for i := range listing.Entries {
		rec, err := decodeAt(buf, listingStart+i*stride, listingEntryLayout)
		if err != nil {
			return nil, errors.Wrapf(err, "chunk listing entry %d", i)
		}
		e := ChunkEntry{
			Position: rec.Uint32("position"),
			Size:     rec.Uint32("size"),
		}

		start := listing.Start(e)
		if _, err := span(buf, start, int(e.Size)); err != nil {
			return nil, errors.Wrapf(err, "chunk %d", i)
		}
		tag, err := decodeAt(buf, start, tagLayout)
		if err != nil {
			return nil, errors.Wrapf(err, "chunk %d tag", i)
		}
		e.Tag = tag.Str("tag")
		e.Kind = ClassifyTag(e.Tag)
		listing.Entries[i] = e
	}
	return listing, nil
}

// FindMeshChunk returns the MLOD entry of the listing.
func (l *ChunkListing) FindMeshChunk() (ChunkEntry, error) {
	for _, e := range l.Entries {
		if e.Kind == ChunkMLOD {
			return e, nil
		}
	}
	return ChunkEntry{}, errors.Wrap(ErrMalformed, "no MLOD chunk in listing")
}

// Entry returns the i-th internal chunk.
func (l *ChunkListing) Entry(i uint32) (ChunkEntry, error) {
	if int64(i) >= int64(len(l.Entries)) {
		return ChunkEntry{}, errors.Wrapf(ErrMalformed, "chunk reference %d, listing has %d", i, len(l.Entries))
	}
	return l.Entries[i], nil
}
