package layout

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// Decode reads one record described by l from the start of buf.
//
// Fields with a count of 1 decode to a scalar (uint8 ... float32, string or
// Record); larger counts decode to a slice of that type. The cursor advances
// by exactly l.Size() bytes, so a neighbouring record is decoded by passing
// buf[l.Size():] without copying.
func Decode(buf []byte, l *Layout, order binary.ByteOrder) (Record, error) {
	if len(buf) < l.size {
		return nil, errors.Wrapf(ErrShortBuffer, "need %d bytes, have %d", l.size, len(buf))
	}
	return decodeRecord(buf, l, order)
}

func decodeRecord(buf []byte, l *Layout, order binary.ByteOrder) (Record, error) {
	rec := make(Record, len(l.fields))
	off := 0
	for _, f := range l.fields {
		v, err := decodeField(buf[off:], f, order)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", f.Name)
		}
		rec[f.Name] = v
		off += f.Size()
	}
	return rec, nil
}

func decodeField(b []byte, f Field, order binary.ByteOrder) (any, error) {
	switch f.Kind {
	case U8:
		return readScalars(b, f.Count, 1, func(p []byte) uint8 { return p[0] }), nil
	case U16:
		return readScalars(b, f.Count, 2, order.Uint16), nil
	case U32:
		return readScalars(b, f.Count, 4, order.Uint32), nil
	case I8:
		return readScalars(b, f.Count, 1, func(p []byte) int8 { return int8(p[0]) }), nil
	case I16:
		return readScalars(b, f.Count, 2, func(p []byte) int16 { return int16(order.Uint16(p)) }), nil
	case I32:
		return readScalars(b, f.Count, 4, func(p []byte) int32 { return int32(order.Uint32(p)) }), nil
	case F32:
		return readScalars(b, f.Count, 4, func(p []byte) float32 { return math.Float32frombits(order.Uint32(p)) }), nil
	case String:
		return decodeString(b[:f.Count])
	case Nested:
		size := f.Layout.Size()
		if f.Count == 1 {
			return decodeRecord(b, f.Layout, order)
		}
		recs := make([]Record, f.Count)
		for i := range recs {
			r, err := decodeRecord(b[i*size:], f.Layout, order)
			if err != nil {
				return nil, errors.Wrapf(err, "element %d", i)
			}
			recs[i] = r
		}
		return recs, nil
	}
	return nil, errors.Errorf("layout: unknown kind %v", f.Kind)
}

func readScalars[T any](b []byte, count, size int, read func([]byte) T) any {
	if count == 1 {
		return read(b)
	}
	out := make([]T, count)
	for i := range out {
		out[i] = read(b[i*size:])
	}
	return out
}

// decodeString maps ISO-8859-1 bytes up to the first NUL to a Go string.
func decodeString(raw []byte) (string, error) {
	if n := bytes.IndexByte(raw, 0); n >= 0 {
		raw = raw[:n]
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(s), nil
}

// Encode writes rec into the start of buf using l and returns the number of
// bytes written, which is always l.Size() on success. Every field of l must
// be present in rec with the type and length Decode would produce.
func Encode(rec Record, buf []byte, l *Layout, order binary.ByteOrder) (int, error) {
	if len(buf) < l.size {
		return 0, errors.Wrapf(ErrShortBuffer, "need %d bytes, have %d", l.size, len(buf))
	}
	if err := encodeRecord(rec, buf, l, order); err != nil {
		return 0, err
	}
	return l.size, nil
}

func encodeRecord(rec Record, buf []byte, l *Layout, order binary.ByteOrder) error {
	off := 0
	for _, f := range l.fields {
		v, ok := rec[f.Name]
		if !ok {
			return errors.Wrapf(ErrShape, "missing field %q", f.Name)
		}
		if err := encodeField(v, buf[off:], f, order); err != nil {
			return errors.Wrapf(err, "field %q", f.Name)
		}
		off += f.Size()
	}
	return nil
}

func encodeField(v any, b []byte, f Field, order binary.ByteOrder) error {
	switch f.Kind {
	case U8:
		return writeScalars(v, b, f.Count, 1, func(p []byte, x uint8) { p[0] = x })
	case U16:
		return writeScalars(v, b, f.Count, 2, order.PutUint16)
	case U32:
		return writeScalars(v, b, f.Count, 4, order.PutUint32)
	case I8:
		return writeScalars(v, b, f.Count, 1, func(p []byte, x int8) { p[0] = uint8(x) })
	case I16:
		return writeScalars(v, b, f.Count, 2, func(p []byte, x int16) { order.PutUint16(p, uint16(x)) })
	case I32:
		return writeScalars(v, b, f.Count, 4, func(p []byte, x int32) { order.PutUint32(p, uint32(x)) })
	case F32:
		return writeScalars(v, b, f.Count, 4, func(p []byte, x float32) { order.PutUint32(p, math.Float32bits(x)) })
	case String:
		s, ok := v.(string)
		if !ok {
			return errors.Wrapf(ErrShape, "want string, got %T", v)
		}
		return encodeString(s, b[:f.Count])
	case Nested:
		size := f.Layout.Size()
		if f.Count == 1 {
			r, ok := v.(Record)
			if !ok {
				return errors.Wrapf(ErrShape, "want Record, got %T", v)
			}
			return encodeRecord(r, b, f.Layout, order)
		}
		rs, ok := v.([]Record)
		if !ok || len(rs) != f.Count {
			return errors.Wrapf(ErrShape, "want %d records, got %T", f.Count, v)
		}
		for i, r := range rs {
			if err := encodeRecord(r, b[i*size:], f.Layout, order); err != nil {
				return errors.Wrapf(err, "element %d", i)
			}
		}
		return nil
	}
	return errors.Errorf("layout: unknown kind %v", f.Kind)
}

func writeScalars[T any](v any, b []byte, count, size int, put func([]byte, T)) error {
	if count == 1 {
		x, ok := v.(T)
		if !ok {
			var zero T
			return errors.Wrapf(ErrShape, "want %T, got %T", zero, v)
		}
		put(b, x)
		return nil
	}
	xs, ok := v.([]T)
	if !ok || len(xs) != count {
		var zero []T
		return errors.Wrapf(ErrShape, "want %T of length %d, got %T", zero, count, v)
	}
	for i, x := range xs {
		put(b[i*size:], x)
	}
	return nil
}

// encodeString writes s as ISO-8859-1 and zero-fills the rest of dst.
func encodeString(s string, dst []byte) error {
	raw, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return errors.Wrapf(ErrShape, "string %q is not ISO-8859-1", s)
	}
	if len(raw) > len(dst) {
		return errors.Wrapf(ErrShape, "string %q longer than %d bytes", s, len(dst))
	}
	if bytes.IndexByte(raw, 0) >= 0 {
		return errors.Wrapf(ErrShape, "string %q contains NUL", s)
	}
	n := copy(dst, raw)
	clear(dst[n:])
	return nil
}
