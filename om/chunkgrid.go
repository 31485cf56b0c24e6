package om

import "github.com/terraputix/omfiles-go/internal/errors"

// ChunkGrid is the shared chunk-index arithmetic spec section 4.4/4.5
// both need: how many chunks an array has along each dimension, how a
// flat chunk index maps to per-dimension chunk coordinates (row-major,
// fast dimension last), and a chunk's logical (possibly partial) shape
// at the array boundary.
type ChunkGrid struct {
	Dims       []uint64
	ChunkShape []uint64
	// NumChunks[i] is ceil(Dims[i] / ChunkShape[i]).
	NumChunks []uint64
}

// NewChunkGrid validates dims/chunkShape against spec section 3's
// invariants (chunk_shape[i] <= dim[i], chunk_shape[i] >= 1) and
// precomputes the per-dimension chunk counts.
func NewChunkGrid(dims, chunkShape []uint64) (*ChunkGrid, error) {
	if len(dims) != len(chunkShape) {
		return nil, errors.New(errors.KindMismatchingCubeDimensionLength,
			"dims has %d dimensions, chunkShape has %d", len(dims), len(chunkShape))
	}
	numChunks := make([]uint64, len(dims))
	for i := range dims {
		if dims[i] == 0 {
			return nil, errors.New(errors.KindDimensionMustBeGreaterThanZero, "dimension %d is zero", i)
		}
		if chunkShape[i] == 0 {
			return nil, errors.New(errors.KindDimensionMustBeGreaterThanZero, "chunk shape %d is zero", i)
		}
		if chunkShape[i] > dims[i] {
			return nil, errors.New(errors.KindChunkDimSmallerThanOverall,
				"chunk shape %d (%d) exceeds dimension (%d)", i, chunkShape[i], dims[i])
		}
		numChunks[i] = divideRoundedUp(dims[i], chunkShape[i])
	}
	return &ChunkGrid{Dims: dims, ChunkShape: chunkShape, NumChunks: numChunks}, nil
}

func divideRoundedUp(a, b uint64) uint64 {
	return (a + b - 1) / b
}

// TotalChunks returns K, the product of NumChunks across all dimensions.
func (g *ChunkGrid) TotalChunks() uint64 {
	k := uint64(1)
	for _, n := range g.NumChunks {
		k *= n
	}
	return k
}

// FlatIndex converts per-dimension chunk coordinates to a row-major flat
// chunk index (fast dimension last, matching the stored array's chunk
// enumeration order spec section 4.4 requires).
func (g *ChunkGrid) FlatIndex(coord []uint64) uint64 {
	idx := uint64(0)
	for i, c := range coord {
		idx = idx*g.NumChunks[i] + c
	}
	return idx
}

// Coord converts a flat chunk index back to per-dimension coordinates.
func (g *ChunkGrid) Coord(flat uint64) []uint64 {
	coord := make([]uint64, len(g.NumChunks))
	for i := len(g.NumChunks) - 1; i >= 0; i-- {
		coord[i] = flat % g.NumChunks[i]
		flat /= g.NumChunks[i]
	}
	return coord
}

// ChunkShapeAt returns the logical (possibly partial, at the array
// boundary) shape of the chunk at coord: min((c+1)*chunk, dim) -
// c*chunk per dimension, per spec section 4.4.
func (g *ChunkGrid) ChunkShapeAt(coord []uint64) []uint64 {
	shape := make([]uint64, len(coord))
	for i, c := range coord {
		start := c * g.ChunkShape[i]
		end := start + g.ChunkShape[i]
		if end > g.Dims[i] {
			end = g.Dims[i]
		}
		shape[i] = end - start
	}
	return shape
}

// ChunkOriginAt returns the array-space offset of the chunk at coord:
// coord[i] * ChunkShape[i].
func (g *ChunkGrid) ChunkOriginAt(coord []uint64) []uint64 {
	origin := make([]uint64, len(coord))
	for i, c := range coord {
		origin[i] = c * g.ChunkShape[i]
	}
	return origin
}

// ElementCount returns the number of elements a chunk shape covers.
func ElementCount(shape []uint64) uint64 {
	n := uint64(1)
	for _, s := range shape {
		n *= s
	}
	return n
}

// ChunkIndexRange returns the inclusive-exclusive range of chunk
// coordinates along each dimension that a read rectangle
// [offset, offset+count) intersects: first = offset/chunk,
// last = ceil((offset+count)/chunk), per spec section 4.4 step 1.
func (g *ChunkGrid) ChunkIndexRange(offset, count []uint64) (first, last []uint64, err error) {
	if len(offset) != len(g.Dims) || len(count) != len(g.Dims) {
		return nil, nil, errors.New(errors.KindMismatchingCubeDimensionLength,
			"read rectangle has %d/%d dims, array has %d", len(offset), len(count), len(g.Dims))
	}
	first = make([]uint64, len(g.Dims))
	last = make([]uint64, len(g.Dims))
	for i := range g.Dims {
		if offset[i]+count[i] > g.Dims[i] {
			return nil, nil, errors.New(errors.KindOffsetAndCountExceedDimension,
				"dimension %d: offset %d + count %d exceeds size %d", i, offset[i], count[i], g.Dims[i])
		}
		first[i] = offset[i] / g.ChunkShape[i]
		last[i] = divideRoundedUp(offset[i]+count[i], g.ChunkShape[i])
	}
	return first, last, nil
}

// EnumerateChunks yields every chunk flat index in the row-major range
// [first, last) across all dimensions, in row-major (fast-dimension
// last) order, matching the stored array's chunk grid per spec section
// 4.4 step 1.
func (g *ChunkGrid) EnumerateChunks(first, last []uint64) []uint64 {
	total := uint64(1)
	for i := range first {
		total *= last[i] - first[i]
	}
	out := make([]uint64, 0, total)
	if total == 0 {
		return out
	}

	coord := append([]uint64(nil), first...)
	for {
		out = append(out, g.FlatIndex(coord))

		i := len(coord) - 1
		for i >= 0 {
			coord[i]++
			if coord[i] < last[i] {
				break
			}
			coord[i] = first[i]
			i--
		}
		if i < 0 {
			break
		}
	}
	return out
}
