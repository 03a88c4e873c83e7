package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dbpf-mlod-renderer/internal/dbpf"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	buf, err := os.ReadFile(filepath.Join("..", "..", "internal", "batch", "testdata", name))
	assert.NilError(t, err)
	return buf
}

func TestInspect(t *testing.T) {
	var out bytes.Buffer
	assert.NilError(t, inspect(&out, readTestdata(t, "models.package"), false))
	text := out.String()

	assert.Check(t, is.Contains(text, "Header: DBPF 2.0, index v3, 3 entries at 96"))
	assert.Check(t, is.Contains(text, "type=01d10f34 group=00000000 instance=0000000000000001"))
	assert.Check(t, is.Contains(text, "type=00b2d882"))
	assert.Check(t, is.Contains(text, "MLOD v515, 1 meshes"))
	assert.Check(t, is.Contains(text, "MLOD v515, 2 meshes"))
	assert.Check(t, is.Contains(text, "decoded:  verts=8 tris=12"))
	assert.Check(t, is.Contains(text, `"VBUF" VBUF`))
}

func TestInspectReportsBrokenResource(t *testing.T) {
	var out bytes.Buffer
	assert.NilError(t, inspect(&out, readTestdata(t, "partial.package"), false))
	assert.Check(t, is.Contains(out.String(), "geometry: VBUF header"))
}

func TestInspectRejectsEncrypted(t *testing.T) {
	var out bytes.Buffer
	err := inspect(&out, readTestdata(t, "encrypted.package"), false)
	assert.Check(t, errors.Is(err, dbpf.ErrUnsupported), "got %v", err)
}
