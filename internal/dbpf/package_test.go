package dbpf

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestReadPackageMeshes(t *testing.T) {
	buf := newSynthPackage(newSynthResource(42, triangleMesh())).bytes(t)

	res, err := ReadPackageMeshes(buf)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(res, 1))

	r := res[0]
	assert.Check(t, is.Equal(r.Entry.Instance(), uint64(42)))
	assert.Check(t, is.Equal(r.Header.MeshCount, uint32(1)))
	assert.Assert(t, is.Len(r.Meshes, 1))

	g := r.Meshes[0].Geometry
	assert.Check(t, is.Len(g.Vertices, 3))
	assert.Check(t, is.DeepEqual(g.Indices, []uint32{0, 1, 2}))
	assert.Check(t, is.Equal(r.Meshes[0].Descriptor.NameID, uint32(0x1000)))
}

func TestReadPackageMeshesEmptyMeshList(t *testing.T) {
	buf := newSynthPackage(newSynthResource(1)).bytes(t)

	res, err := ReadPackageMeshes(buf)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(res, 1))
	assert.Check(t, is.Len(res[0].Meshes, 0))
}

func TestDecodeFiltersOtherTypes(t *testing.T) {
	other := newSynthResource(2, triangleMesh())
	other.typ = 0x034AEECB
	// would fail to decode if it were not skipped
	other.mlodTag = "XXXX"

	buf := newSynthPackage(newSynthResource(1, triangleMesh()), other, newSynthResource(3)).bytes(t)

	res, err := ReadPackageMeshes(buf)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(res, 2))
	assert.Check(t, is.Equal(res[0].Entry.Instance(), uint64(1)))
	assert.Check(t, is.Equal(res[1].Entry.Instance(), uint64(3)))
}

func TestDecodeParallelKeepsOrder(t *testing.T) {
	var resources []synthResource
	for i := 0; i < 9; i++ {
		meshes := make([]synthMesh, i%3+1)
		for j := range meshes {
			meshes[j] = triangleMesh()
		}
		resources = append(resources, newSynthResource(uint32(100+i), meshes...))
	}
	buf := newSynthPackage(resources...).bytes(t)

	logger, _ := logtest.NewNullLogger()
	d := Decoder{Workers: 4, Log: logrus.NewEntry(logger)}
	res, err := d.Decode(buf)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(res, 9))
	for i, r := range res {
		assert.Check(t, is.Equal(r.Entry.Instance(), uint64(100+i)))
		assert.Check(t, is.Len(r.Meshes, i%3+1))
	}

	seq, err := ReadPackageMeshes(buf)
	assert.NilError(t, err)
	assert.Check(t, is.DeepEqual(res, seq))
}

func brokenPackage(t *testing.T) []byte {
	bad := newSynthResource(2, triangleMesh())
	bad.vbufVersion = 0x102
	return newSynthPackage(newSynthResource(1, triangleMesh()), bad, newSynthResource(3, triangleMesh())).bytes(t)
}

func TestDecodeFirstErrorAborts(t *testing.T) {
	buf := brokenPackage(t)

	for _, workers := range []int{0, 3} {
		d := Decoder{Workers: workers}
		res, err := d.Decode(buf)
		assert.Check(t, is.Len(res, 0))
		assert.Check(t, errors.Is(err, ErrUnsupported), "got %v", err)

		var rerr *ResourceError
		assert.Assert(t, errors.As(err, &rerr))
		assert.Check(t, is.Equal(rerr.Entry.Instance(), uint64(2)))
		assert.Check(t, is.ErrorContains(err, "resource 01d10f34:00000000:0000000000000002"))
	}
}

func TestDecodeSkipBroken(t *testing.T) {
	buf := brokenPackage(t)

	for _, workers := range []int{1, 2} {
		logger, hook := logtest.NewNullLogger()
		d := Decoder{Workers: workers, SkipBroken: true, Log: logrus.NewEntry(logger)}

		res, err := d.Decode(buf)
		assert.Assert(t, is.Len(res, 2))
		assert.Check(t, is.Equal(res[0].Entry.Instance(), uint64(1)))
		assert.Check(t, is.Equal(res[1].Entry.Instance(), uint64(3)))

		var skipped ResourceErrors
		assert.Assert(t, errors.As(err, &skipped))
		assert.Assert(t, is.Len(skipped, 1))
		assert.Check(t, is.Equal(skipped[0].Entry.Instance(), uint64(2)))
		assert.Check(t, errors.Is(err, ErrUnsupported), "got %v", err)

		entry := hook.LastEntry()
		assert.Assert(t, entry != nil)
		assert.Check(t, is.Equal(entry.Level, logrus.WarnLevel))
		assert.Check(t, is.Equal(entry.Data["instance"], uint64(2)))
	}
}

func TestDecodeSkipBrokenKeepsHeaderErrors(t *testing.T) {
	p := newSynthPackage(newSynthResource(1, triangleMesh()))
	p.magic = "DBPX"

	d := Decoder{SkipBroken: true}
	_, err := d.Decode(p.bytes(t))
	assert.Check(t, errors.Is(err, ErrFormat), "got %v", err)

	var skipped ResourceErrors
	assert.Check(t, !errors.As(err, &skipped))
}

func outOfRangePackage(t *testing.T) []byte {
	bad := newSynthResource(2, triangleMesh())
	// 0, 1, 3: the last index is past the three vertices
	bad.meshes[0].deltas = []int16{0, 1, 2}
	return newSynthPackage(newSynthResource(1, triangleMesh()), bad).bytes(t)
}

func TestDecodeKeepsOutOfRangeIndices(t *testing.T) {
	res, err := ReadPackageMeshes(outOfRangePackage(t))
	assert.NilError(t, err)
	assert.Assert(t, is.Len(res, 2))

	g := res[1].Meshes[0].Geometry
	assert.Check(t, is.DeepEqual(g.Indices, []uint32{0, 1, 3}))
	assert.Check(t, errors.Is(g.Validate(), ErrMalformed))
}

func TestDecodeStrict(t *testing.T) {
	buf := outOfRangePackage(t)

	d := Decoder{Strict: true}
	res, err := d.Decode(buf)
	assert.Check(t, is.Len(res, 0))
	assert.Check(t, errors.Is(err, ErrMalformed), "got %v", err)
	assert.Check(t, is.ErrorContains(err, "mesh 0: index 2 refers to vertex 3 of 3"))

	logger, _ := logtest.NewNullLogger()
	d = Decoder{Strict: true, SkipBroken: true, Workers: 2, Log: logrus.NewEntry(logger)}
	res, err = d.Decode(buf)
	assert.Assert(t, is.Len(res, 1))
	assert.Check(t, is.Equal(res[0].Entry.Instance(), uint64(1)))
	var skipped ResourceErrors
	assert.Assert(t, errors.As(err, &skipped))
	assert.Check(t, is.Equal(skipped[0].Entry.Instance(), uint64(2)))
}
