package postprocess

import (
	"image"
	"io"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
)

// Format is a preview image encoding.
type Format string

const (
	FormatWebP Format = "webp"
	FormatTGA  Format = "tga"
)

// ParseFormat accepts "webp" or "tga" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatWebP, FormatTGA:
		return f, nil
	}
	return "", errors.Errorf("unknown preview format %q", s)
}

// Ext is the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Encode writes img to w. WebP output is lossless.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatWebP:
		return errors.Wrap(nativewebp.Encode(w, img, nil), "webp encode")
	case FormatTGA:
		return errors.Wrap(tga.Encode(w, img), "tga encode")
	}
	return errors.Errorf("unknown preview format %q", string(f))
}
