package writer

import (
	"github.com/terraputix/omfiles-go/codec"
	"github.com/terraputix/omfiles-go/internal/errors"
	"github.com/terraputix/omfiles-go/om"
)

// ArrayWriter is the array writer state machine of spec section 4.5: it
// owns the chunk-order LUT under construction, a chunk scratch buffer,
// and a monotonically increasing chunk_index shared across any number
// of WriteData calls.
type ArrayWriter struct {
	bw *BufferedWriter

	grid        *om.ChunkGrid
	compression codec.Family
	dataType    om.DataType
	scale       float64
	offset      float64
	groupSize   int

	chunkIndex  uint64
	totalChunks uint64
	lut         []uint64
	scratch     []float64
	encodeBuf   []byte
}

// PrepareArray initializes an array writer for an array of the given
// dimensions and chunk shape. groupSize is L, the LUT compression group
// size; pass 0 for the production default.
func PrepareArray(bw *BufferedWriter, dims, chunkShape []uint64, compression codec.Family, dataType om.DataType, scale, offset float64, groupSize int) (*ArrayWriter, error) {
	grid, err := om.NewChunkGrid(dims, chunkShape)
	if err != nil {
		return nil, err
	}
	if groupSize <= 0 {
		groupSize = om.DefaultLUTGroupSize
	}

	total := grid.TotalChunks()
	chunkElems := int(om.ElementCount(chunkShape))
	rows, cols := rowsCols(chunkShape)

	return &ArrayWriter{
		bw:          bw,
		grid:        grid,
		compression: compression,
		dataType:    dataType,
		scale:       scale,
		offset:      offset,
		groupSize:   groupSize,
		totalChunks: total,
		lut:         make([]uint64, total+1),
		scratch:     make([]float64, chunkElems),
		encodeBuf:   make([]byte, codec.EncodeBound(compression, rows, cols)),
	}, nil
}

// rowsCols collapses an N-D chunk shape to the (rows, cols) pair the
// codec's 2-D filter operates over: cols is the fastest (last)
// dimension, rows is the product of every other dimension (spec
// section 4.3).
func rowsCols(shape []uint64) (rows, cols int) {
	cols = int(shape[len(shape)-1])
	rows = 1
	for _, s := range shape[:len(shape)-1] {
		rows *= int(s)
	}
	return rows, cols
}

func divideRoundedUp(a, b uint64) uint64 {
	return (a + b - 1) / b
}

// WriteData treats source as a contiguous row-major N-D buffer of
// shape sourceDims and writes the next chunks of the array — as many
// as are needed to cover a region of shape sourceCount — starting at
// the writer's current chunk_index. sourceOffset translates positions
// within the array region being written into positions inside source,
// letting callers supply an oversized staging buffer (e.g. with a
// padding border) and write only its interior. Positions covered by
// the chunk but outside sourceCount are zero-filled. Successive calls
// must cover chunks in strictly increasing index order.
func (w *ArrayWriter) WriteData(source []float64, sourceDims, sourceOffset, sourceCount []uint64) error {
	nd := len(w.grid.Dims)
	if len(sourceDims) != nd || len(sourceOffset) != nd || len(sourceCount) != nd {
		return errors.New(errors.KindMismatchingCubeDimensionLength,
			"write_data dims: source %d, offset %d, count %d, want %d", len(sourceDims), len(sourceOffset), len(sourceCount), nd)
	}
	if uint64(len(source)) != om.ElementCount(sourceDims) {
		return errors.New(errors.KindChunkWrongElementCount, "source has %d elements, sourceDims implies %d", len(source), om.ElementCount(sourceDims))
	}
	for i := range sourceOffset {
		if sourceOffset[i]+sourceCount[i] > sourceDims[i] {
			return errors.New(errors.KindOffsetAndCountExceedDimension,
				"dimension %d: source_offset %d + source_count %d exceeds source_dims %d", i, sourceOffset[i], sourceCount[i], sourceDims[i])
		}
	}

	numChunksThisCall := uint64(1)
	for i := range sourceCount {
		numChunksThisCall *= divideRoundedUp(sourceCount[i], w.grid.ChunkShape[i])
	}
	if w.chunkIndex+numChunksThisCall > w.totalChunks {
		return errors.New(errors.KindChunkWrongElementCount,
			"write_data would advance chunk_index to %d, beyond the array's %d chunks", w.chunkIndex+numChunksThisCall, w.totalChunks)
	}

	if w.chunkIndex == 0 {
		w.lut[0] = uint64(w.bw.Position())
	}
	callStart := w.grid.ChunkOriginAt(w.grid.Coord(w.chunkIndex))

	for i := uint64(0); i < numChunksThisCall; i++ {
		coord := w.grid.Coord(w.chunkIndex)
		shapeAt := w.grid.ChunkShapeAt(coord)
		origin := w.grid.ChunkOriginAt(coord)

		values := w.scratchFor(shapeAt)
		scatterChunk(values, shapeAt, origin, callStart, source, sourceDims, sourceOffset, sourceCount)

		rows, cols := rowsCols(shapeAt)
		n, err := codec.EncodeChunk(w.compression, rows, cols, values, w.scale, w.offset, w.encodeBuf)
		if err != nil {
			return err
		}
		if err := w.bw.Write(w.encodeBuf[:n]); err != nil {
			return err
		}

		w.chunkIndex++
		w.lut[w.chunkIndex] = uint64(w.bw.Position())
	}
	return nil
}

func (w *ArrayWriter) scratchFor(shapeAt []uint64) []float64 {
	return w.scratch[:om.ElementCount(shapeAt)]
}

// scatterChunk fills dst (row-major over shapeAt) from source, reading
// source[origin[d]+idx[d]-callStart[d]+sourceOffset[d]] whenever that
// position falls inside sourceCount, and zero-filling it otherwise.
func scatterChunk(dst []float64, shapeAt, origin, callStart []uint64, source []float64, sourceDims, sourceOffset, sourceCount []uint64) {
	nd := len(shapeAt)
	idx := make([]uint64, nd)
	for flat := range dst {
		rem := flat
		for d := nd - 1; d >= 0; d-- {
			idx[d] = rem % int(shapeAt[d])
			rem /= int(shapeAt[d])
		}

		inBounds := true
		srcFlat := uint64(0)
		for d := 0; d < nd; d++ {
			local := origin[d] + idx[d] - callStart[d]
			if local >= sourceCount[d] {
				inBounds = false
				break
			}
			srcFlat = srcFlat*sourceDims[d] + local + sourceOffset[d]
		}

		if inBounds {
			dst[flat] = source[srcFlat]
		} else {
			dst[flat] = 0
		}
	}
}

// Finalize compresses the LUT and returns the finalized array
// descriptor. It is an error to call Finalize before every chunk has
// been written.
func (w *ArrayWriter) Finalize() (*om.ArrayVariable, error) {
	if w.chunkIndex != w.totalChunks {
		return nil, errors.New(errors.KindChunkWrongElementCount,
			"array finalized after writing %d of %d chunks", w.chunkIndex, w.totalChunks)
	}

	if err := w.bw.AlignTo8(); err != nil {
		return nil, err
	}
	lutOffset := w.bw.Position()
	data, _, err := om.EncodeLUT(w.lut, w.groupSize)
	if err != nil {
		return nil, err
	}
	if err := w.bw.Write(data); err != nil {
		return nil, err
	}
	lutSize := w.bw.Position() - lutOffset

	return &om.ArrayVariable{
		Compression:  w.compression,
		DataType:     w.dataType,
		ScaleFactor:  w.scale,
		AddOffset:    w.offset,
		Dimensions:   w.grid.Dims,
		ChunkShape:   w.grid.ChunkShape,
		LUTOffset:    lutOffset,
		LUTSize:      lutSize,
		LUTGroupSize: w.groupSize,
	}, nil
}
