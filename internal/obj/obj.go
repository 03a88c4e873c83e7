// Package obj writes decoded mesh geometry as Wavefront OBJ text.
package obj

import (
	"bufio"
	"io"
	"strconv"

	"dbpf-mlod-renderer/internal/dbpf"

	"github.com/pkg/errors"
)

// Write emits the v, vt and vn lines of g followed by its faces. Face
// indices are 1-based and shifted by indexOffset, the number of vertices
// already written to the same file.
func Write(w io.Writer, g dbpf.Geometry, indexOffset int) error {
	bw := bufio.NewWriter(w)
	writeGeometry(bw, g, indexOffset)
	return errors.Wrap(bw.Flush(), "obj: write")
}

// WriteResource emits every mesh of res as its own "o meshN" object.
// Vertex numbering continues across meshes.
func WriteResource(w io.Writer, res dbpf.MeshResource) error {
	bw := bufio.NewWriter(w)
	offset := 0
	for i, m := range res.Meshes {
		bw.WriteString("o mesh")
		bw.WriteString(strconv.Itoa(i))
		bw.WriteByte('\n')
		writeGeometry(bw, m.Geometry, offset)
		offset += len(m.Geometry.Vertices)
	}
	return errors.Wrap(bw.Flush(), "obj: write")
}

// bufio.Writer keeps the first error and reports it from Flush.
func writeGeometry(bw *bufio.Writer, g dbpf.Geometry, indexOffset int) {
	var scratch []byte
	line := func(prefix string, vals ...float32) {
		scratch = append(scratch[:0], prefix...)
		for _, v := range vals {
			scratch = append(scratch, ' ')
			scratch = strconv.AppendFloat(scratch, float64(v), 'g', -1, 32)
		}
		scratch = append(scratch, '\n')
		bw.Write(scratch)
	}

	for _, v := range g.Vertices {
		line("v", v.Position[0], v.Position[1], v.Position[2])
	}
	for _, v := range g.Vertices {
		line("vt", v.UV[0], v.UV[1])
	}
	for _, v := range g.Vertices {
		line("vn", v.Normal[0], v.Normal[1], v.Normal[2])
	}

	for i := 0; i+2 < len(g.Indices); i += 3 {
		scratch = append(scratch[:0], 'f')
		for _, idx := range g.Indices[i : i+3] {
			n := int64(idx) + 1 + int64(indexOffset)
			scratch = append(scratch, ' ')
			for k := 0; k < 3; k++ {
				if k > 0 {
					scratch = append(scratch, '/')
				}
				scratch = strconv.AppendInt(scratch, n, 10)
			}
		}
		scratch = append(scratch, '\n')
		bw.Write(scratch)
	}
}
