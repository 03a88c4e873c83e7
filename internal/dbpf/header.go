package dbpf

import (
	"github.com/pkg/errors"
)

// ReadHeader decodes and validates the package header at offset 0.
func ReadHeader(buf []byte) (Header, error) {
	rec, err := decodeAt(buf, 0, headerLayout)
	if err != nil {
		return Header{}, errors.Wrap(err, "package header")
	}

	h := Header{
		Magic:         rec.Str("magic"),
		Major:         rec.Uint32("major"),
		Minor:         rec.Uint32("minor"),
		IndexCount:    rec.Uint32("indexCount"),
		IndexSize:     rec.Uint32("indexSize"),
		IndexVersion:  rec.Uint32("indexVersion"),
		IndexPosition: rec.Uint32("indexPosition"),
	}

	switch {
	case h.Magic == MagicEncrypted:
		return Header{}, errors.Wrap(ErrUnsupported, "encrypted package")
	case h.Magic != Magic:
		return Header{}, errors.Wrapf(ErrFormat, "magic %q", h.Magic)
	case h.Major != MajorVersion || h.Minor != MinorVersion:
		return Header{}, errors.Wrapf(ErrFormat, "package version %d.%d", h.Major, h.Minor)
	case h.IndexVersion != IndexVersion:
		return Header{}, errors.Wrapf(ErrFormat, "index version %d", h.IndexVersion)
	case h.IndexCount == 0:
		return Header{}, errors.Wrap(ErrFormat, "package is empty")
	}
	return h, nil
}
