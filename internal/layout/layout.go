// Package layout describes fixed binary records as ordered lists of named,
// typed fields and decodes/encodes them against byte buffers.
//
// A Layout carries no byte order and no state: the same value is reused to
// decode any number of records, and the byte order is chosen per call.
package layout

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies the wire type of a field.
type Kind int

const (
	U8 Kind = iota
	U16
	U32
	I8
	I16
	I32
	F32
	String
	Nested
)

var kindNames = [...]string{
	U8:     "u8",
	U16:    "u16",
	U32:    "u32",
	I8:     "i8",
	I16:    "i16",
	I32:    "i32",
	F32:    "f32",
	String: "string",
	Nested: "layout",
}

// scalar widths in bytes; String and Nested are sized per field
var kindSizes = [...]int{
	U8:  1,
	U16: 2,
	U32: 4,
	I8:  1,
	I16: 2,
	I32: 4,
	F32: 4,
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

var (
	// ErrMalformedLayout is returned by Make for layouts that cannot be sized.
	ErrMalformedLayout = errors.New("layout: malformed layout")
	// ErrShortBuffer is returned when a buffer is smaller than the layout.
	ErrShortBuffer = errors.New("layout: buffer too short")
	// ErrShape is returned by Encode when a value does not match the layout.
	ErrShape = errors.New("layout: value does not match layout")
)

// Field is one named entry of a Layout.
//
// Count is the repeat count for scalar and nested fields and the byte width
// for String fields.
type Field struct {
	Name   string
	Kind   Kind
	Count  int
	Layout *Layout
}

func Uint8(name string) Field   { return Field{Name: name, Kind: U8, Count: 1} }
func Uint16(name string) Field  { return Field{Name: name, Kind: U16, Count: 1} }
func Uint32(name string) Field  { return Field{Name: name, Kind: U32, Count: 1} }
func Int8(name string) Field    { return Field{Name: name, Kind: I8, Count: 1} }
func Int16(name string) Field   { return Field{Name: name, Kind: I16, Count: 1} }
func Int32(name string) Field   { return Field{Name: name, Kind: I32, Count: 1} }
func Float32(name string) Field { return Field{Name: name, Kind: F32, Count: 1} }

// Str is a fixed-width byte string. Decoding stops at the first NUL but
// always consumes width bytes.
func Str(name string, width int) Field {
	return Field{Name: name, Kind: String, Count: width}
}

// Sub embeds another layout.
func Sub(name string, l *Layout) Field {
	return Field{Name: name, Kind: Nested, Count: 1, Layout: l}
}

// Times returns f repeated n times. For strings use the width argument of
// Str instead.
func (f Field) Times(n int) Field {
	f.Count = n
	return f
}

// Size is the number of bytes the field occupies.
func (f Field) Size() int {
	switch f.Kind {
	case String:
		return f.Count
	case Nested:
		return f.Layout.Size() * f.Count
	default:
		return kindSizes[f.Kind] * f.Count
	}
}

// Layout is an immutable, ordered record description.
type Layout struct {
	fields  []Field
	offsets map[string]int
	size    int
}

// Make builds a layout from fields in wire order.
func Make(fields ...Field) (*Layout, error) {
	if len(fields) == 0 {
		return nil, errors.Wrap(ErrMalformedLayout, "no fields")
	}

	l := &Layout{
		fields:  make([]Field, len(fields)),
		offsets: make(map[string]int, len(fields)),
	}
	copy(l.fields, fields)

	for _, f := range l.fields {
		if f.Name == "" {
			return nil, errors.Wrap(ErrMalformedLayout, "unnamed field")
		}
		if _, dup := l.offsets[f.Name]; dup {
			return nil, errors.Wrapf(ErrMalformedLayout, "duplicate field %q", f.Name)
		}
		if f.Kind < U8 || f.Kind > Nested {
			return nil, errors.Wrapf(ErrMalformedLayout, "field %q: unknown kind %d", f.Name, int(f.Kind))
		}
		if f.Count < 1 {
			return nil, errors.Wrapf(ErrMalformedLayout, "field %q: count %d", f.Name, f.Count)
		}
		if f.Kind == Nested && f.Layout == nil {
			return nil, errors.Wrapf(ErrMalformedLayout, "field %q: nil sub-layout", f.Name)
		}
		l.offsets[f.Name] = l.size
		l.size += f.Size()
	}
	return l, nil
}

// MustMake is like Make but panics on error. It is meant for package-level
// layout variables.
func MustMake(fields ...Field) *Layout {
	l, err := Make(fields...)
	if err != nil {
		panic(err)
	}
	return l
}

// Size returns the total encoded size in bytes.
func (l *Layout) Size() int {
	return l.size
}

// Fields returns a copy of the field list.
func (l *Layout) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)
	return out
}

// Offset returns the byte offset of the named field.
func (l *Layout) Offset(name string) (int, bool) {
	off, ok := l.offsets[name]
	return off, ok
}
