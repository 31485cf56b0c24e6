package om

import (
	"encoding/binary"
	"math"

	"github.com/terraputix/omfiles-go/codec"
	"github.com/terraputix/omfiles-go/internal/errors"
)

const (
	Magic1 = 0x4F // 'O'
	Magic2 = 0x4D // 'M'

	VersionLegacyV1 = 1
	VersionLegacyV2 = 2
	VersionV3       = 3

	// HeaderSizeV3 is the on-disk size of the v3 header: the 3-byte
	// magic+version, nothing else. Larger metadata lives in variable
	// records reached through the trailer.
	HeaderSizeV3 = 3

	// LegacyHeaderSize is the fixed 40-byte legacy v1/v2 header size,
	// ported from original_source/src/om/header.rs::OmHeader::LENGTH.
	LegacyHeaderSize = 40

	// MinFileSize is the smallest a file of any version could possibly
	// be: no valid header variant plus a trailer or chunk-offset table
	// fits in fewer bytes than a bare legacy header. A reader checks
	// this before even looking at the magic bytes, so that a short,
	// arbitrary buffer is reported as file-too-small rather than
	// not-an-om-file.
	MinFileSize = LegacyHeaderSize
)

// PeekVersion reads just enough of a byte slice to discriminate which
// header variant a file uses, per spec section 3's "Header variants".
// It returns a not-an-om-file error if the magic bytes don't match, and
// a file-too-small error if fewer than 3 bytes are available.
func PeekVersion(b []byte) (version uint8, err error) {
	if len(b) < 3 {
		return 0, errors.New(errors.KindFileTooSmall, "need at least 3 bytes, got %d", len(b))
	}
	if b[0] != Magic1 || b[1] != Magic2 {
		return 0, errors.New(errors.KindNotAnOmFile, "bad magic bytes %02x %02x", b[0], b[1])
	}
	return b[2], nil
}

// LegacyHeader is the synthesized in-memory form of a v1/v2 header: a
// single implicit 2-D array variable whose LUT immediately follows the
// header and whose chunk payloads follow the LUT (spec section 9).
type LegacyHeader struct {
	Version     uint8
	Compression codec.Family
	ScaleFactor float32
	Dim0, Dim1  uint64
	Chunk0      uint64
	Chunk1      uint64
}

// ParseLegacyHeader decodes the 40-byte legacy header. Per spec section
// 9's open question, a version-1 file's compression byte is ignored and
// forced to int16-delta-pfor, matching the original implementation's
// single-codec assumption for that version.
func ParseLegacyHeader(b []byte) (*LegacyHeader, error) {
	if len(b) != LegacyHeaderSize {
		return nil, errors.New(errors.KindFileTooSmall, "legacy header needs %d bytes, got %d", LegacyHeaderSize, len(b))
	}
	if b[0] != Magic1 || b[1] != Magic2 {
		return nil, errors.New(errors.KindNotAnOmFile, "bad magic bytes %02x %02x", b[0], b[1])
	}

	version := b[2]
	if version != VersionLegacyV1 && version != VersionLegacyV2 {
		return nil, errors.New(errors.KindNotAnOmFile, "not a legacy header: version %d", version)
	}

	var family codec.Family
	if version == VersionLegacyV1 {
		family = codec.FamilyInt16DeltaPFor
	} else {
		f, err := codec.ParseFamily(b[3])
		if err != nil {
			return nil, err
		}
		family = f
	}

	scale := math.Float32frombits(binary.LittleEndian.Uint32(b[4:8]))
	dim0 := binary.LittleEndian.Uint64(b[8:16])
	dim1 := binary.LittleEndian.Uint64(b[16:24])
	chunk0 := binary.LittleEndian.Uint64(b[24:32])
	chunk1 := binary.LittleEndian.Uint64(b[32:40])

	return &LegacyHeader{
		Version:     version,
		Compression: family,
		ScaleFactor: scale,
		Dim0:        dim0,
		Dim1:        dim1,
		Chunk0:      chunk0,
		Chunk1:      chunk1,
	}, nil
}

// AsVariable synthesizes the single implicit array variable a legacy
// file contains: named "data", LUT starting immediately after the fixed
// header, offsets everywhere else derived from the legacy dims.
func (h *LegacyHeader) AsVariable() *ArrayVariable {
	return &ArrayVariable{
		Name:        "data",
		Compression: h.Compression,
		DataType:    DataTypeFloat32,
		ScaleFactor: float64(h.ScaleFactor),
		AddOffset:   0,
		Dimensions:  []uint64{h.Dim0, h.Dim1},
		ChunkShape:  []uint64{h.Chunk0, h.Chunk1},
		LUTOffset:   LegacyHeaderSize,
		// Legacy LUT entries are K raw, uncompressed u64 cumulative
		// end-offsets relative to the data region (no sentinel, no
		// grouping/compression) rather than v3's K+1 absolute, grouped
		// offsets, so the shared LUT reader needs both flags below to
		// treat this array specially.
		LUTGroupSize: 1,
		LUTLegacyRaw: true,
	}
}

// V3Header is the trivial 3-byte v3 header.
type V3Header struct{}

// WriteV3Header returns the 3 on-disk bytes of a v3 header.
func WriteV3Header() []byte {
	return []byte{Magic1, Magic2, VersionV3}
}
