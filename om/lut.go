package om

import (
	"encoding/binary"

	"github.com/terraputix/omfiles-go/codec"
	"github.com/terraputix/omfiles-go/internal/errors"
)

// DefaultLUTGroupSize is L, the production number of LUT entries
// compressed together per stored LUT chunk (spec section 3).
const DefaultLUTGroupSize = 256

// lutGroupLengthPrefix is the width of the little-endian length word
// stored at the start of every padded LUT group slot. s2's block
// decoder reads until its input is exhausted rather than stopping once
// it has produced the declared element count, so the padding every
// group carries out to the uniform stride must not reach Decode — the
// prefix records the real compressed length to slice down to first.
const lutGroupLengthPrefix = 4

func divideRoundedUpInt(a, b int) int {
	return (a + b - 1) / b
}

// NumLUTGroups returns how many fixed-size LUT chunks cover
// totalEntries entries of groupSize each.
func NumLUTGroups(totalEntries, groupSize int) int {
	return divideRoundedUpInt(totalEntries, groupSize)
}

// LUTGroupEntryCount returns how many of the totalEntries LUT entries
// live in group groupIndex — groupSize for every group but possibly the
// last, which may be partial.
func LUTGroupEntryCount(totalEntries, groupSize, groupIndex int) int {
	lo := groupIndex * groupSize
	hi := lo + groupSize
	if hi > totalEntries {
		hi = totalEntries
	}
	return hi - lo
}

// LUTStride recovers the uniform per-group byte stride from a stored
// LUT's total size, given the number of groups it was split into —
// the inverse of the padding EncodeLUT applies, since lut_size is the
// only on-disk record of it (L itself is a shared constant, not part
// of the variable record).
func LUTStride(lutSize int64, numGroups int) (int, error) {
	if numGroups == 0 {
		return 0, nil
	}
	if lutSize%int64(numGroups) != 0 {
		return 0, errors.New(errors.KindDecoder, "lut size %d not a multiple of %d groups", lutSize, numGroups)
	}
	return int(lutSize / int64(numGroups)), nil
}

// EncodeLUT compresses offsets (the K+1 absolute chunk offsets of a
// finalized array) in consecutive groups of groupSize entries, padding
// every group to the width of the widest compressed group so that
// every LUT chunk has the same on-disk stride (spec section 3: "stored
// size per LUT chunk is uniform... padded to the maximum compressed
// length across chunks"). Each group's slot opens with its real
// compressed length as a lutGroupLengthPrefix-byte little-endian word,
// so a decoder can slice off the trailing padding before handing the
// block to the Packer. It returns the concatenated padded bytes and
// the stride.
func EncodeLUT(offsets []uint64, groupSize int) (data []byte, stride int, err error) {
	if groupSize <= 0 {
		return nil, 0, errors.New(errors.KindInvalidCompression, "lut group size must be positive, got %d", groupSize)
	}
	numGroups := NumLUTGroups(len(offsets), groupSize)
	groups := make([][]byte, numGroups)

	maxLen := 0
	for g := 0; g < numGroups; g++ {
		count := LUTGroupEntryCount(len(offsets), groupSize, g)
		lo := g * groupSize

		raw := make([]byte, count*8)
		for i := 0; i < count; i++ {
			binary.LittleEndian.PutUint64(raw[i*8:], offsets[lo+i])
		}

		dst := make([]byte, codec.DefaultPacker.EncodeBound(count, 8))
		n, encErr := codec.DefaultPacker.Encode(dst, raw)
		if encErr != nil {
			return nil, 0, encErr
		}
		groups[g] = dst[:n]
		if n > maxLen {
			maxLen = n
		}
	}

	stride = lutGroupLengthPrefix + maxLen
	data = make([]byte, numGroups*stride)
	for g, group := range groups {
		base := g * stride
		binary.LittleEndian.PutUint32(data[base:], uint32(len(group)))
		copy(data[base+lutGroupLengthPrefix:], group)
	}
	return data, stride, nil
}

// DecodeLUTGroup decompresses the group at groupIndex out of data,
// which holds count entries (groupSize, except possibly the last
// group). stride is the uniform per-group size EncodeLUT produced,
// recovered on the read side via LUTStride. The group's leading
// length prefix is used to slice off EncodeLUT's trailing padding
// before decoding, since the Packer's decoder consumes its whole input
// rather than stopping at a known output length.
func DecodeLUTGroup(data []byte, stride, groupIndex, count int) ([]uint64, error) {
	lo := groupIndex * stride
	hi := lo + stride
	if hi > len(data) {
		return nil, errors.New(errors.KindFileTooSmall, "lut data too short for group %d", groupIndex)
	}
	if stride < lutGroupLengthPrefix {
		return nil, errors.New(errors.KindDecoder, "lut stride %d too small for length prefix", stride)
	}

	compLen := int(binary.LittleEndian.Uint32(data[lo:]))
	start := lo + lutGroupLengthPrefix
	if compLen < 0 || start+compLen > hi {
		return nil, errors.New(errors.KindDecoder, "lut group %d declares length %d beyond its stride", groupIndex, compLen)
	}

	scratch := make([]byte, count*8)
	n, err := codec.DefaultPacker.Decode(scratch, data[start:start+compLen])
	if err != nil {
		return nil, errors.Wrap(errors.KindDecoder, err, "decoding lut group %d", groupIndex)
	}
	if n != count*8 {
		return nil, errors.New(errors.KindDecoder, "lut group %d decoded %d bytes, want %d", groupIndex, n, count*8)
	}

	out := make([]uint64, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(scratch[i*8:])
	}
	return out, nil
}

// DecodeLUTGroups decodes every group in [loGroup, hiGroup) out of
// data and concatenates their entries in order, for an index read that
// spans multiple LUT chunks.
func DecodeLUTGroups(data []byte, stride, totalEntries, groupSize, loGroup, hiGroup int) ([]uint64, error) {
	out := make([]uint64, 0, (hiGroup-loGroup)*groupSize)
	for g := loGroup; g < hiGroup; g++ {
		count := LUTGroupEntryCount(totalEntries, groupSize, g)
		entries, err := DecodeLUTGroup(data, stride, g, count)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

// ResolveLegacyOffset returns the absolute file offset of LUT entry i
// (0..K, where K is the chunk count) for a legacy v1/v2 array, whose
// on-disk LUT is K raw, uncompressed little-endian u64 values —
// cumulative byte offsets of each chunk's end relative to the start of
// the data region — rather than the K+1 absolute offsets a v3 LUT
// group decodes to. Entry 0 is always the data region's start; entry
// i>0 is dataStart plus relEnds[i-1].
func ResolveLegacyOffset(relEnds []uint64, dataStart int64, i int) uint64 {
	if i == 0 {
		return uint64(dataStart)
	}
	return uint64(dataStart) + relEnds[i-1]
}

// ReadLegacyRelEnds decodes the K raw little-endian u64 cumulative
// end-offsets stored directly (uncompressed) in a legacy file's LUT
// region.
func ReadLegacyRelEnds(data []byte, count int) ([]uint64, error) {
	if len(data) < count*8 {
		return nil, errors.New(errors.KindFileTooSmall, "legacy lut needs %d bytes, got %d", count*8, len(data))
	}
	out := make([]uint64, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(data[i*8:])
	}
	return out, nil
}
