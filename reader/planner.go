// Package reader implements the chunk-aware read planner and the
// reader façade of spec section 4.4/4.6: chunk-index enumeration,
// IO-read coalescing over both the LUT and the chunk data region, and
// the typed, variable-tree-walking front end built on top of it.
package reader

import (
	"sort"

	"github.com/terraputix/omfiles-go/codec"
	"github.com/terraputix/omfiles-go/internal/errors"
	"github.com/terraputix/omfiles-go/om"
)

// ChunkInfo is one chunk the planner has determined a read touches:
// its flat index, its array-space origin, and its logical (possibly
// boundary-clipped) shape.
type ChunkInfo struct {
	Index  uint64
	Coord  []uint64
	Origin []uint64
	Shape  []uint64
}

// IndexRead is a coalesced LUT byte range to fetch in one backend call.
type IndexRead struct {
	Lo, Hi int64
	// Groups lists the LUT groups entirely covered by [Lo, Hi), in
	// ascending order.
	Groups []int
}

// DataRead is a coalesced chunk-data byte range to fetch in one
// backend call.
type DataRead struct {
	Lo, Hi int64
	Chunks []uint64
}

// lutAddressing abstracts over a v3 array's compressed, grouped LUT
// and a legacy array's raw, per-entry LUT so the planner's coalescing
// logic never needs to branch on format.
type lutAddressing struct {
	legacy       bool
	base         int64
	stride       int
	groupSize    int
	totalEntries int
}

func newLUTAddressing(v *om.ArrayVariable, totalChunks uint64) (*lutAddressing, error) {
	total := int(totalChunks) + 1
	if v.LUTLegacyRaw {
		return &lutAddressing{legacy: true, base: v.LUTOffset, stride: 8, groupSize: 1, totalEntries: total}, nil
	}
	groupSize := v.LUTGroupSize
	if groupSize <= 0 {
		groupSize = om.DefaultLUTGroupSize
	}
	numGroups := om.NumLUTGroups(total, groupSize)
	stride, err := om.LUTStride(v.LUTSize, numGroups)
	if err != nil {
		return nil, err
	}
	return &lutAddressing{base: v.LUTOffset, stride: stride, groupSize: groupSize, totalEntries: total}, nil
}

// entryGroup returns which group physically stores LUT entry i, and
// whether it needs a fetch at all: a legacy file's entry 0 (the
// data-region start) is never stored, it's synthesized.
func (l *lutAddressing) entryGroup(i int) (group int, needed bool) {
	if l.legacy {
		if i == 0 {
			return 0, false
		}
		return i - 1, true
	}
	return i / l.groupSize, true
}

func (l *lutAddressing) groupByteRange(g int) (lo, hi int64) {
	lo = l.base + int64(g)*int64(l.stride)
	return lo, lo + int64(l.stride)
}

// numGroups returns how many on-disk LUT groups the addressing spans.
func (l *lutAddressing) numGroups() int {
	if l.legacy {
		if l.totalEntries <= 1 {
			return 0
		}
		return l.totalEntries - 1
	}
	return om.NumLUTGroups(l.totalEntries, l.groupSize)
}

// PlanChunks enumerates the chunks a read rectangle intersects, in
// row-major order, per spec section 4.4 step 1.
func PlanChunks(grid *om.ChunkGrid, readOffset, readCount []uint64) ([]ChunkInfo, error) {
	first, last, err := grid.ChunkIndexRange(readOffset, readCount)
	if err != nil {
		return nil, err
	}
	indices := grid.EnumerateChunks(first, last)
	out := make([]ChunkInfo, len(indices))
	for i, idx := range indices {
		coord := grid.Coord(idx)
		out[i] = ChunkInfo{
			Index:  idx,
			Coord:  coord,
			Origin: grid.ChunkOriginAt(coord),
			Shape:  grid.ChunkShapeAt(coord),
		}
	}
	return out, nil
}

// PlanIndexReads computes the coalesced LUT byte ranges needed to
// resolve the chunk_offset of every chunk in chunks, per spec section
// 4.4 step 2.
func PlanIndexReads(v *om.ArrayVariable, totalChunks uint64, chunks []ChunkInfo, limits IOLimits) ([]IndexRead, error) {
	addr, err := newLUTAddressing(v, totalChunks)
	if err != nil {
		return nil, err
	}

	groupSet := map[int]bool{}
	for _, c := range chunks {
		for _, entry := range [2]int{int(c.Index), int(c.Index) + 1} {
			g, needed := addr.entryGroup(entry)
			if needed {
				groupSet[g] = true
			}
		}
	}
	groups := make([]int, 0, len(groupSet))
	for g := range groupSet {
		groups = append(groups, g)
	}
	sort.Ints(groups)

	items := make([]byteRange, len(groups))
	for i, g := range groups {
		lo, hi := addr.groupByteRange(g)
		items[i] = byteRange{lo: lo, hi: hi, chunks: []uint64{uint64(g)}}
	}
	merged := coalesce(items, limits)

	out := make([]IndexRead, len(merged))
	for i, m := range merged {
		gs := make([]int, len(m.chunks))
		for j, c := range m.chunks {
			gs[j] = int(c)
		}
		out[i] = IndexRead{Lo: m.lo, Hi: m.hi, Groups: gs}
	}
	return out, nil
}

// FetchedIndexRead pairs a planned index read with the bytes fetched
// for it.
type FetchedIndexRead struct {
	IndexRead
	Data []byte
}

// ResolveChunkOffsets decodes chunk_offset[c] and chunk_offset[c+1] for
// every chunk in chunks from whichever of the fetched index reads
// covers the relevant LUT bytes, per spec section 4.4 step 3.
func ResolveChunkOffsets(v *om.ArrayVariable, totalChunks uint64, fetched []FetchedIndexRead, chunks []ChunkInfo) (map[uint64][2]int64, error) {
	addr, err := newLUTAddressing(v, totalChunks)
	if err != nil {
		return nil, err
	}

	out := make(map[uint64][2]int64, len(chunks))
	for _, c := range chunks {
		lo, err := resolveEntry(addr, fetched, int(c.Index))
		if err != nil {
			return nil, err
		}
		hi, err := resolveEntry(addr, fetched, int(c.Index)+1)
		if err != nil {
			return nil, err
		}
		out[c.Index] = [2]int64{int64(lo), int64(hi)}
	}
	return out, nil
}

// dataStartFor returns the absolute offset of the data region that
// follows a legacy array's raw LUT (entry 0, synthesized rather than
// stored).
func dataStartFor(addr *lutAddressing) int64 {
	return addr.base + int64(addr.numGroups())*int64(addr.stride)
}

// findCovering returns the bytes [lo, hi), sliced out of the Data of
// whichever fetched index read fully covers that range.
func findCovering(fetched []FetchedIndexRead, lo, hi int64) ([]byte, error) {
	for _, f := range fetched {
		if lo >= f.Lo && hi <= f.Hi {
			return f.Data[lo-f.Lo : hi-f.Lo], nil
		}
	}
	return nil, errors.New(errors.KindFileTooSmall, "no fetched index read covers lut bytes [%d,%d)", lo, hi)
}

// resolveEntry decodes LUT entry i (one of chunk_offset[c] or
// chunk_offset[c+1]) from whichever fetched index read covers it.
func resolveEntry(addr *lutAddressing, fetched []FetchedIndexRead, i int) (uint64, error) {
	if addr.legacy {
		if i == 0 {
			return uint64(dataStartFor(addr)), nil
		}
		g := i - 1
		lo, hi := addr.groupByteRange(g)
		raw, err := findCovering(fetched, lo, hi)
		if err != nil {
			return 0, err
		}
		relEnds, err := om.ReadLegacyRelEnds(raw, 1)
		if err != nil {
			return 0, err
		}
		return uint64(dataStartFor(addr)) + relEnds[0], nil
	}

	g := i / addr.groupSize
	entryInGroup := i % addr.groupSize
	lo, hi := addr.groupByteRange(g)
	raw, err := findCovering(fetched, lo, hi)
	if err != nil {
		return 0, err
	}
	count := om.LUTGroupEntryCount(addr.totalEntries, addr.groupSize, g)
	entries, err := om.DecodeLUTGroup(raw, addr.stride, 0, count)
	if err != nil {
		return 0, err
	}
	if entryInGroup >= len(entries) {
		return 0, errors.New(errors.KindDecoder, "lut group %d has %d entries, want index %d", g, len(entries), entryInGroup)
	}
	return entries[entryInGroup], nil
}

// PlanDataReads coalesces the chunk data byte ranges resolved from the
// LUT into backend fetches, per spec section 4.4 step 4.
func PlanDataReads(chunks []ChunkInfo, chunkByteRange map[uint64][2]int64, limits IOLimits) []DataRead {
	items := make([]byteRange, len(chunks))
	for i, c := range chunks {
		rng := chunkByteRange[c.Index]
		items[i] = byteRange{lo: rng[0], hi: rng[1], chunks: []uint64{c.Index}}
	}
	merged := coalesce(items, limits)

	out := make([]DataRead, len(merged))
	for i, m := range merged {
		out[i] = DataRead{Lo: m.lo, Hi: m.hi, Chunks: m.chunks}
	}
	return out
}

// CopyChunkIntoOutput decompresses one chunk's payload and copies its
// intersection with the read rectangle into output, placed at
// cubeOffset, per spec section 4.4 step 5.
func CopyChunkIntoOutput(
	v *om.ArrayVariable,
	chunk ChunkInfo,
	payload []byte,
	readOffset, readCount, cubeOffset []uint64,
	output []float64, outputDims []uint64,
) error {
	rows, cols := rowsColsOf(chunk.Shape)
	scratch := make([]byte, codec.DecodeScratchBound(v.Compression, rows, cols))
	values := make([]float64, int(om.ElementCount(chunk.Shape)))
	if err := codec.DecodeChunk(v.Compression, rows, cols, payload, v.ScaleFactor, v.AddOffset, values, scratch); err != nil {
		return err
	}

	nd := len(chunk.Shape)
	idx := make([]uint64, nd)
	for flat := range values {
		rem := flat
		for d := nd - 1; d >= 0; d-- {
			idx[d] = uint64(rem) % chunk.Shape[d]
			rem /= int(chunk.Shape[d])
		}

		inRect := true
		outIdx := make([]uint64, nd)
		for d := 0; d < nd; d++ {
			abs := chunk.Origin[d] + idx[d]
			if abs < readOffset[d] || abs >= readOffset[d]+readCount[d] {
				inRect = false
				break
			}
			outIdx[d] = cubeOffset[d] + (abs - readOffset[d])
		}
		if !inRect {
			continue
		}

		outFlat := uint64(0)
		for d := 0; d < nd; d++ {
			outFlat = outFlat*outputDims[d] + outIdx[d]
		}
		output[outFlat] = values[flat]
	}
	return nil
}

func rowsColsOf(shape []uint64) (rows, cols int) {
	cols = int(shape[len(shape)-1])
	rows = 1
	for _, s := range shape[:len(shape)-1] {
		rows *= int(s)
	}
	return rows, cols
}
