package dbpf

import (
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	Magic          = "DBPF"
	MagicEncrypted = "DBPP"

	MajorVersion = 2
	MinorVersion = 0
	// IndexVersion 3 is the only index record format decoded here.
	IndexVersion = 3

	// MeshListType is the resource type of MLOD resources.
	MeshListType uint32 = 0x01D10F34

	MlodVersion = 515
	VbufVersion = 0x00000101

	// VertexStride is the size of one packed vertex in a VBUF chunk.
	VertexStride = 28

	fileSizeMask    = 0x7FFFFFFF
	bufferIndexMask = 0x0FFFFFFF

	// chunk info blocks (u64 + u32 + u32) precede the chunk listing
	chunkInfoSize = 16

	positionDivisor = 32768
	uvDivisor       = 32767
)

// The container is little-endian throughout.
var byteOrder = binary.LittleEndian

// Header is the fixed 96-byte package header.
type Header struct {
	Magic         string
	Major         uint32
	Minor         uint32
	IndexCount    uint32
	IndexSize     uint32 // bytes; informational
	IndexVersion  uint32
	IndexPosition uint32
}

// IndexEntry describes one resource in the package.
type IndexEntry struct {
	ResourceType  uint32
	ResourceGroup uint32
	InstanceHi    uint32
	InstanceLo    uint32
	ChunkOffset   uint32 // absolute file offset of the resource data
	FileSize      uint32 // bit 31 already cleared
	MemSize       uint32
	Compressed    uint16
	Reserved      uint16
}

// Instance returns the 64-bit instance id.
func (e IndexEntry) Instance() uint64 {
	return uint64(e.InstanceHi)<<32 | uint64(e.InstanceLo)
}

type ChunkHeader struct {
	Version          uint32
	PublicChunkCount uint32
	Reserved         uint32
	ExternalCount    uint32
	InternalCount    uint32
}

// ChunkKind classifies a chunk by its four-byte tag.
type ChunkKind int

const (
	ChunkUnknown ChunkKind = iota
	ChunkMLOD
	ChunkVBUF
	ChunkIBUF
	ChunkVRTF
	ChunkMATD
	ChunkGEOM
	ChunkSKIN
)

var chunkKinds = map[string]ChunkKind{
	"MLOD": ChunkMLOD,
	"VBUF": ChunkVBUF,
	"IBUF": ChunkIBUF,
	"VRTF": ChunkVRTF,
	"MATD": ChunkMATD,
	"GEOM": ChunkGEOM,
	"SKIN": ChunkSKIN,
}

// ClassifyTag maps a chunk tag to its kind.
func ClassifyTag(tag string) ChunkKind {
	if k, ok := chunkKinds[tag]; ok {
		return k
	}
	return ChunkUnknown
}

func (k ChunkKind) String() string {
	for tag, kind := range chunkKinds {
		if kind == k {
			return tag
		}
	}
	return "unknown"
}

// ChunkEntry is one internal chunk. Position is relative to the resource's
// chunk offset.
type ChunkEntry struct {
	Position uint32
	Size     uint32
	Tag      string
	Kind     ChunkKind
}

// ChunkListing is the decoded chunk table of one resource.
type ChunkListing struct {
	Offset  int // absolute offset the entry positions are relative to
	Header  ChunkHeader
	Entries []ChunkEntry
}

// Start returns the absolute file offset of e.
func (l *ChunkListing) Start(e ChunkEntry) int {
	return l.Offset + int(e.Position)
}

type MlodHeader struct {
	Tag       string
	Version   uint32
	MeshCount uint32
}

type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// MeshDescriptor is the fixed prefix of one MLOD mesh record.
type MeshDescriptor struct {
	StructSize        uint32
	NameID            uint32
	MaterialIndex     uint32
	VertexFormatIndex uint32
	VertexBufferIndex uint32 // private bits cleared
	IndexBufferIndex  uint32 // private bits cleared
	Flags             uint32
	StreamOffset      uint32
	StartVertex       uint32
	StartIndex        uint32
	MinVertexIndex    uint32
	VertexCount       uint32
	PrimitiveCount    uint32
	Bounds            Bounds
	MirrorPlane       mgl32.Vec4
}

// PrimitiveType is the low byte of the flags word.
func (d MeshDescriptor) PrimitiveType() uint8 {
	return uint8(d.Flags)
}

// MeshFlags is the flags word without the primitive type.
func (d MeshDescriptor) MeshFlags() uint32 {
	return d.Flags >> 8
}

type VbufHeader struct {
	Tag           string
	Version       uint32
	Flags         uint32
	SwizzleInfoID uint32
}

type IbufHeader struct {
	Tag              string
	Version          uint32
	Flags            uint32
	DisplayListUsage uint32
}

// Vertex is one decoded vertex.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// Geometry is the decoded vertex and triangle data of one mesh.
// len(Indices) is a multiple of three.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint32
}

// TriangleCount returns len(Indices) / 3.
func (g Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

type Mesh struct {
	Descriptor MeshDescriptor
	Geometry   Geometry
}

// MeshResource is one decoded MLOD resource.
type MeshResource struct {
	Entry  IndexEntry
	Header MlodHeader
	Meshes []Mesh
}
