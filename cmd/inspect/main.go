package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"dbpf-mlod-renderer/internal/dbpf"

	"github.com/sirupsen/logrus"
)

func main() {
	all := flag.Bool("all", false, "List chunk tables of non-mesh resources too")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: inspect [-all] <file.package>")
		os.Exit(2)
	}

	buf, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		logrus.WithError(err).Fatal("read package")
	}
	if err := inspect(os.Stdout, buf, *all); err != nil {
		logrus.WithError(err).Fatal("inspect failed")
	}
}

// inspect prints the header, the index table and, per mesh resource, its
// chunk listing, mesh descriptors and geometry stats. Resource level errors
// are printed inline so one broken resource does not hide the rest.
func inspect(w io.Writer, buf []byte, all bool) error {
	h, err := dbpf.ReadHeader(buf)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Header: %s %d.%d, index v%d, %d entries at %d (%d bytes)\n",
		h.Magic, h.Major, h.Minor, h.IndexVersion, h.IndexCount, h.IndexPosition, h.IndexSize)

	entries, err := dbpf.ReadIndex(buf, h)
	if err != nil {
		return err
	}

	for i, e := range entries {
		fmt.Fprintf(w, "  [%d] type=%08x group=%08x instance=%016x offset=%d size=%d mem=%d\n",
			i, e.ResourceType, e.ResourceGroup, e.Instance(), e.ChunkOffset, e.FileSize, e.MemSize)
		if e.ResourceType != dbpf.MeshListType && !all {
			continue
		}

		listing, err := dbpf.ReadChunkListing(buf, int(e.ChunkOffset))
		if err != nil {
			fmt.Fprintf(w, "    chunks: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "    chunks: v%d public=%d internal=%d external=%d\n",
			listing.Header.Version, listing.Header.PublicChunkCount,
			listing.Header.InternalCount, listing.Header.ExternalCount)
		for j, c := range listing.Entries {
			fmt.Fprintf(w, "      (%d) %-4q %-7s pos=%d size=%d\n", j, c.Tag, c.Kind, c.Position, c.Size)
		}

		if e.ResourceType != dbpf.MeshListType {
			continue
		}
		inspectMeshes(w, buf, listing)
	}
	return nil
}

func inspectMeshes(w io.Writer, buf []byte, listing *dbpf.ChunkListing) {
	hdr, meshes, err := dbpf.ReadMlod(buf, listing)
	if err != nil {
		fmt.Fprintf(w, "    MLOD: %v\n", err)
		return
	}
	fmt.Fprintf(w, "    MLOD v%d, %d meshes\n", hdr.Version, hdr.MeshCount)

	for k, d := range meshes {
		fmt.Fprintf(w, "      Mesh[%d]: name=%08x material=%d vrtf=%d vbuf=%d ibuf=%d prim=%d flags=%06x\n",
			k, d.NameID, d.MaterialIndex, d.VertexFormatIndex, d.VertexBufferIndex, d.IndexBufferIndex,
			d.PrimitiveType(), d.MeshFlags())
		fmt.Fprintf(w, "        declared: verts=%d prims=%d bounds=%v..%v\n",
			d.VertexCount, d.PrimitiveCount, d.Bounds.Min, d.Bounds.Max)

		g, err := dbpf.ReadGeometry(buf, listing, d)
		if err != nil {
			fmt.Fprintf(w, "        geometry: %v\n", err)
			continue
		}
		b := g.Bounds()
		fmt.Fprintf(w, "        decoded:  verts=%d tris=%d bounds=%v..%v\n",
			len(g.Vertices), g.TriangleCount(), b.Min, b.Max)
		if err := g.Validate(); err != nil {
			fmt.Fprintf(w, "        warning:  %v\n", err)
		}
	}
}
