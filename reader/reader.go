package reader

import (
	"encoding/binary"
	"math"

	"github.com/terraputix/omfiles-go/backend"
	"github.com/terraputix/omfiles-go/internal/errors"
	"github.com/terraputix/omfiles-go/om"
)

// File is the top-level reader façade of spec section 4.6: it opens a
// backend, reads the magic/version, and dispatches to the v3
// trailer-anchored path or the legacy v1/v2 synthesis path.
type File struct {
	be     backend.ReadBackend
	legacy bool
}

// Open validates the backend's header and returns a File ready to walk
// its variable tree. Per spec section 9, a version-1 or -2 file is
// read via a synthesized v3-shaped root array record; the synthesis is
// never written back.
func Open(be backend.ReadBackend) (*File, error) {
	size, err := be.Size()
	if err != nil {
		return nil, err
	}
	if size < om.MinFileSize {
		return nil, errors.New(errors.KindFileTooSmall, "file has %d bytes, want at least %d", size, om.MinFileSize)
	}

	head, err := be.GetBytes(0, 3)
	if err != nil {
		return nil, err
	}
	version, err := om.PeekVersion(head.Data)
	if err != nil {
		return nil, err
	}

	switch version {
	case om.VersionLegacyV1, om.VersionLegacyV2:
		return &File{be: be, legacy: true}, nil
	case om.VersionV3:
		return &File{be: be, legacy: false}, nil
	default:
		return nil, errors.New(errors.KindNotAnOmFile, "unknown version byte %d", version)
	}
}

// Root returns the file's root variable node: the trailer-anchored
// record for a v3 file, or the single synthesized array for a legacy
// file.
func (f *File) Root() (*Node, error) {
	if f.legacy {
		headerBytes, err := f.be.GetBytes(0, om.LegacyHeaderSize)
		if err != nil {
			return nil, err
		}
		header, err := om.ParseLegacyHeader(headerBytes.Data)
		if err != nil {
			return nil, err
		}
		v := header.AsVariable()
		grid, err := om.NewChunkGrid(v.Dimensions, v.ChunkShape)
		if err != nil {
			return nil, err
		}
		// K raw u64 relative end-offsets, one per chunk, no sentinel
		// stored (entry 0 is synthesized as the data region start).
		v.LUTSize = int64(grid.TotalChunks()) * 8
		return &Node{f: f, kind: om.RecordKindArray, array: v}, nil
	}

	size, err := f.be.Size()
	if err != nil {
		return nil, err
	}
	trailerBytes, err := f.be.GetBytes(size-om.TrailerSize, om.TrailerSize)
	if err != nil {
		return nil, err
	}
	trailer, err := om.DecodeTrailer(trailerBytes.Data)
	if err != nil {
		return nil, err
	}

	rootBytes, err := f.be.GetBytes(trailer.RootOffset, trailer.RootSize)
	if err != nil {
		return nil, err
	}
	return f.decodeNode(rootBytes.Data)
}

func (f *File) decodeNode(data []byte) (*Node, error) {
	kind, err := om.PeekRecordKind(data)
	if err != nil {
		return nil, err
	}
	if kind == om.RecordKindArray {
		v, err := om.DecodeArrayRecord(data)
		if err != nil {
			return nil, err
		}
		return &Node{f: f, kind: kind, array: v}, nil
	}
	v, err := om.DecodeScalarRecord(data)
	if err != nil {
		return nil, err
	}
	return &Node{f: f, kind: kind, scalar: v}, nil
}

// Node is one variable record reached while walking the file's
// variable tree: either a scalar or a numeric array.
type Node struct {
	f      *File
	kind   om.RecordKind
	scalar *om.ScalarVariable
	array  *om.ArrayVariable
}

// Name returns the variable's name.
func (n *Node) Name() string {
	if n.kind == om.RecordKindArray {
		return n.array.Name
	}
	return n.scalar.Name
}

// IsArray reports whether the node is a numeric array rather than a
// scalar.
func (n *Node) IsArray() bool { return n.kind == om.RecordKindArray }

// Scalar returns the node's scalar variable, or an invalid-data-type
// error if the node is a numeric array.
func (n *Node) Scalar() (*om.ScalarVariable, error) {
	if n.kind != om.RecordKindScalar {
		return nil, errors.New(errors.KindInvalidDataType, "node %q is a numeric array, not scalar", n.Name())
	}
	return n.scalar, nil
}

// Array returns the node's array variable, or an invalid-data-type
// error if the node is a scalar.
func (n *Node) Array() (*om.ArrayVariable, error) {
	if n.kind != om.RecordKindArray {
		return nil, errors.New(errors.KindInvalidDataType, "node %q is scalar, not a numeric array", n.Name())
	}
	return n.array, nil
}

func (n *Node) children() []om.Child {
	if n.kind == om.RecordKindArray {
		return n.array.Children
	}
	return n.scalar.Children
}

// NumChildren returns how many child variables this node has.
func (n *Node) NumChildren() int { return len(n.children()) }

// Child decodes and returns the i'th child variable.
func (n *Node) Child(i int) (*Node, error) {
	cs := n.children()
	if i < 0 || i >= len(cs) {
		return nil, errors.New(errors.KindDimensionOutOfBounds, "child index %d out of range (%d children)", i, len(cs))
	}
	c := cs[i]
	b, err := n.f.be.GetBytes(c.Offset, c.Size)
	if err != nil {
		return nil, err
	}
	return n.f.decodeNode(b.Data)
}

// ReadInt32/ReadFloat64 and friends below decode a scalar node's raw
// bytes into a native Go value, validating the node's on-disk type
// against the caller's expectation before touching the bytes (spec
// section 9: "a type-tag mismatch... must be reported as
// invalid-data-type before any I/O").

func (n *Node) checkScalarType(want om.DataType) error {
	if n.kind != om.RecordKindScalar {
		return errors.New(errors.KindInvalidDataType, "node %q is a numeric array, not scalar", n.Name())
	}
	if n.scalar.DataType != want {
		return errors.New(errors.KindInvalidDataType, "node %q has type %d, want %d", n.Name(), n.scalar.DataType, want)
	}
	return nil
}

// ReadInt32 decodes a DataTypeInt32 scalar node.
func (n *Node) ReadInt32() (int32, error) {
	if err := n.checkScalarType(om.DataTypeInt32); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(n.scalar.Raw)), nil
}

// ReadFloat64 decodes a DataTypeFloat64 scalar node.
func (n *Node) ReadFloat64() (float64, error) {
	if err := n.checkScalarType(om.DataTypeFloat64); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(n.scalar.Raw)), nil
}

// ReadFloat32 decodes a DataTypeFloat32 scalar node.
func (n *Node) ReadFloat32() (float32, error) {
	if err := n.checkScalarType(om.DataTypeFloat32); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(n.scalar.Raw)), nil
}

// ReadString decodes a DataTypeString scalar node.
func (n *Node) ReadString() (string, error) {
	if err := n.checkScalarType(om.DataTypeString); err != nil {
		return "", err
	}
	return string(n.scalar.Raw), nil
}

// ReadArray runs the full read-planner algorithm of spec section 4.4
// over the array node: it enumerates the chunks intersecting
// [readOffset, readOffset+readCount), coalesces LUT and chunk-data
// fetches under limits, decodes each chunk, and deposits the read
// rectangle into a freshly allocated cube of shape cubeShape at
// cubeOffset. Positions of the output cube the read rectangle never
// touches are left as NaN.
func (n *Node) ReadArray(readOffset, readCount, cubeOffset, cubeShape []uint64, limits IOLimits) ([]float64, error) {
	v, err := n.Array()
	if err != nil {
		return nil, err
	}
	grid, err := om.NewChunkGrid(v.Dimensions, v.ChunkShape)
	if err != nil {
		return nil, err
	}

	output := make([]float64, om.ElementCount(cubeShape))
	for i := range output {
		output[i] = math.NaN()
	}

	chunks, err := PlanChunks(grid, readOffset, readCount)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return output, nil
	}

	total := grid.TotalChunks()
	indexReads, err := PlanIndexReads(v, total, chunks, limits)
	if err != nil {
		return nil, err
	}

	fetched := make([]FetchedIndexRead, len(indexReads))
	for i, ir := range indexReads {
		b, err := n.f.be.GetBytes(ir.Lo, ir.Hi-ir.Lo)
		if err != nil {
			return nil, err
		}
		fetched[i] = FetchedIndexRead{IndexRead: ir, Data: b.Data}
	}

	chunkByteRange, err := ResolveChunkOffsets(v, total, fetched, chunks)
	if err != nil {
		return nil, err
	}

	dataReads := PlanDataReads(chunks, chunkByteRange, limits)
	chunksByIndex := make(map[uint64]ChunkInfo, len(chunks))
	for _, c := range chunks {
		chunksByIndex[c.Index] = c
	}

	for _, dr := range dataReads {
		b, err := n.f.be.GetBytes(dr.Lo, dr.Hi-dr.Lo)
		if err != nil {
			return nil, err
		}
		for _, idx := range dr.Chunks {
			rng := chunkByteRange[idx]
			payload := b.Data[rng[0]-dr.Lo : rng[1]-dr.Lo]
			if err := CopyChunkIntoOutput(v, chunksByIndex[idx], payload, readOffset, readCount, cubeOffset, output, cubeShape); err != nil {
				return nil, err
			}
		}
	}

	return output, nil
}

// ReadFullArray reads the array's entire extent into a cube of the
// same shape.
func (n *Node) ReadFullArray(limits IOLimits) ([]float64, error) {
	v, err := n.Array()
	if err != nil {
		return nil, err
	}
	offset := make([]uint64, len(v.Dimensions))
	return n.ReadArray(offset, v.Dimensions, offset, v.Dimensions, limits)
}
