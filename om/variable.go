package om

import "github.com/terraputix/omfiles-go/codec"

// Child is one entry in a variable record's children list: the
// {offset,size} pair needed to locate another variable record in the
// file (spec section 6's "[child_offset:u64, child_size:u64]" fields).
// A child's name is carried inside the record it points to, not here.
type Child struct {
	Offset int64
	Size   int64
}

// ScalarVariable is a self-describing scalar attribute: a name plus an
// inline value of one of the non-array DataType kinds.
type ScalarVariable struct {
	Name     string
	DataType DataType
	// Raw holds the scalar's native little-endian bytes (UTF-8 for
	// DataTypeString).
	Raw      []byte
	Children []Child
}

// ArrayVariable is a self-describing numeric array: the chunk grid,
// scale/offset, compression family, and the {offset,size} of its LUT.
type ArrayVariable struct {
	Name        string
	Compression codec.Family
	DataType    DataType
	ScaleFactor float64
	AddOffset   float64
	Dimensions  []uint64
	ChunkShape  []uint64

	LUTOffset int64
	LUTSize   int64

	// LUTGroupSize is L, the number of LUT entries compressed together
	// per stored LUT chunk (production value 256; configurable for
	// tests per spec section 3).
	LUTGroupSize int

	// LUTLegacyRaw is true only for the synthesized variable of a
	// legacy v1/v2 file, whose LUT is K raw, uncompressed, relative
	// cumulative end-offsets rather than K+1 absolute, LUT-chunk
	// grouped offsets (spec section 9).
	LUTLegacyRaw bool

	Children []Child
}

// NumDimensions returns the array's rank.
func (v *ArrayVariable) NumDimensions() int { return len(v.Dimensions) }
