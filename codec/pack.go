package codec

import (
	"encoding/binary"
	"math"

	"github.com/klauspost/compress/s2"

	"github.com/terraputix/omfiles-go/internal/errors"
)

// Packer is the black-box boundary spec section 1/4.3 draws around the
// entropy/bit-packing kernels (TurboPFor-style integer compression,
// fpx-style float compression): a pair of pure functions over a flat
// byte buffer with published buffer-bound contracts. This module
// backs it with github.com/klauspost/compress/s2's block API rather
// than a hand-rolled bit-packer — see DESIGN.md.
type Packer interface {
	// EncodeBound returns the worst-case compressed size for n
	// elements of bpe bytes each.
	EncodeBound(n, bpe int) int
	// DecodeScratchBound returns the scratch buffer size a decoder must
	// pre-allocate to decode n elements of bpe bytes each.
	DecodeScratchBound(n, bpe int) int
	// Encode compresses src (already filtered: delta/XOR'd and
	// little-endian packed) into dst, returning the number of bytes
	// written. len(dst) must be at least EncodeBound(n, bpe).
	Encode(dst, src []byte) (int, error)
	// Decode decompresses src into dst, which must be at least as long
	// as the decompressed data (n*bpe bytes, DecodeScratchBound(n, bpe)),
	// and returns the number of bytes decoded.
	Decode(dst, src []byte) (int, error)
}

// s2Packer implements Packer over klauspost/compress/s2.
type s2Packer struct{}

// DefaultPacker is the Packer every codec Family uses.
var DefaultPacker Packer = s2Packer{}

func (s2Packer) EncodeBound(n, bpe int) int {
	return s2.MaxEncodedLen(n * bpe)
}

func (s2Packer) DecodeScratchBound(n, bpe int) int {
	return n * bpe
}

func (s2Packer) Encode(dst, src []byte) (int, error) {
	out := s2.Encode(dst, src)
	return len(out), nil
}

func (s2Packer) Decode(dst, src []byte) (int, error) {
	out, err := s2.Decode(dst, src)
	if err != nil {
		return 0, errors.Wrap(errors.KindDecoder, err, "s2 decode")
	}
	return len(out), nil
}

// putInt16LE/getInt16LE and putFloat32LE/getFloat32LE move between the
// typed in-memory buffers the filter stage works on and the flat
// little-endian byte buffer the Packer compresses, matching the wire
// layout spec section 6 specifies for chunk elements.

func putInt16LE(dst []byte, v []int16) {
	for i, x := range v {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(x))
	}
}

func getInt16LE(dst []int16, src []byte) {
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(src[i*2:]))
	}
}

func putFloat32LE(dst []byte, v []float32) {
	for i, x := range v {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(x))
	}
}

func getFloat32LE(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
}
