package dbpf

import (
	"github.com/pkg/errors"
	"github.com/remeh/sizedwaitgroup"
	"github.com/sirupsen/logrus"
)

// ReadPackageMeshes decodes every MLOD resource of a package held in buf.
// The first error of any kind aborts the whole call.
func ReadPackageMeshes(buf []byte) ([]MeshResource, error) {
	var d Decoder
	return d.Decode(buf)
}

// Decoder decodes packages. The zero value decodes sequentially and stops
// at the first error.
type Decoder struct {
	// Workers > 1 decodes up to that many resources concurrently. Results
	// keep index order.
	Workers int
	// SkipBroken leaves out resources whose chunk or mesh data fails to
	// decode instead of failing the call. Header and index errors still
	// abort.
	SkipBroken bool
	// Strict rejects meshes with indices past their vertex buffer. Such
	// resources then fail or are skipped like any other broken resource.
	Strict bool
	// Log receives per-resource debug output and skip warnings. Nil uses
	// the logrus standard logger.
	Log *logrus.Entry
}

func (d *Decoder) logger() *logrus.Entry {
	if d.Log != nil {
		return d.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// Decode reads the header and index of buf and decodes each MLOD resource.
//
// With SkipBroken set, a call in which some resources failed returns the
// decoded resources together with a ResourceErrors value.
func (d *Decoder) Decode(buf []byte) ([]MeshResource, error) {
	hdr, err := ReadHeader(buf)
	if err != nil {
		return nil, err
	}
	entries, err := ReadIndex(buf, hdr)
	if err != nil {
		return nil, err
	}

	var meshEntries []IndexEntry
	for _, e := range entries {
		if e.ResourceType == MeshListType {
			meshEntries = append(meshEntries, e)
		}
	}

	log := d.logger()
	log.WithFields(logrus.Fields{
		"resources": len(entries),
		"meshLists": len(meshEntries),
	}).Debug("read package index")

	results := make([]MeshResource, len(meshEntries))
	errs := make([]error, len(meshEntries))

	if d.Workers > 1 {
		swg := sizedwaitgroup.New(d.Workers)
		for i := range meshEntries {
			swg.Add()
			go func(i int) {
				defer swg.Done()
				results[i], errs[i] = d.decodeResource(buf, meshEntries[i])
			}(i)
		}
		swg.Wait()
	} else {
		for i := range meshEntries {
			results[i], errs[i] = d.decodeResource(buf, meshEntries[i])
			if errs[i] != nil && !d.SkipBroken {
				break
			}
		}
	}

	resources := make([]MeshResource, 0, len(meshEntries))
	var failed ResourceErrors
	for i, e := range meshEntries {
		entryLog := log.WithField("instance", e.Instance())
		if errs[i] != nil {
			rerr := &ResourceError{Entry: e, Err: errs[i]}
			if !d.SkipBroken {
				return nil, rerr
			}
			entryLog.WithError(errs[i]).Warn("skipping mesh resource")
			failed = append(failed, rerr)
			continue
		}
		entryLog.WithField("meshes", len(results[i].Meshes)).Debug("decoded mesh resource")
		resources = append(resources, results[i])
	}

	if len(failed) > 0 {
		return resources, failed
	}
	return resources, nil
}

func (d *Decoder) decodeResource(buf []byte, e IndexEntry) (MeshResource, error) {
	res, err := ReadMeshResource(buf, e)
	if err != nil || !d.Strict {
		return res, err
	}
	for i, m := range res.Meshes {
		if err := m.Geometry.Validate(); err != nil {
			return MeshResource{}, errors.Wrapf(err, "mesh %d", i)
		}
	}
	return res, nil
}

// ReadMeshResource decodes one MLOD resource: chunk listing, mesh
// descriptors, then the geometry of every mesh.
func ReadMeshResource(buf []byte, e IndexEntry) (MeshResource, error) {
	listing, err := ReadChunkListing(buf, int(e.ChunkOffset))
	if err != nil {
		return MeshResource{}, err
	}
	hdr, descriptors, err := ReadMlod(buf, listing)
	if err != nil {
		return MeshResource{}, err
	}

	res := MeshResource{
		Entry:  e,
		Header: hdr,
		Meshes: make([]Mesh, len(descriptors)),
	}
	for i, desc := range descriptors {
		geom, err := ReadGeometry(buf, listing, desc)
		if err != nil {
			return MeshResource{}, errors.Wrapf(err, "mesh %d", i)
		}
		res.Meshes[i] = Mesh{Descriptor: desc, Geometry: geom}
	}
	return res, nil
}
