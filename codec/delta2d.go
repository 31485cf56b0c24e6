package codec

import "math"

// DeltaEncodeInt16 replaces each row after the first with
// row[i] := row[i] - row[i-1], walking rows in reverse so the subtraction
// never reads an already-modified row. Ported directly from
// original_source/src/delta2d.rs::delta2d_encode, generalized from a
// fixed (rows, cols) pair that original already took as parameters.
func DeltaEncodeInt16(rows, cols int, buf []int16) {
	if rows <= 1 {
		return
	}
	for d0 := rows - 1; d0 >= 1; d0-- {
		for d1 := 0; d1 < cols; d1++ {
			idx := d0*cols + d1
			prev := (d0-1)*cols + d1
			buf[idx] -= buf[prev]
		}
	}
}

// DeltaDecodeInt16 reverses DeltaEncodeInt16, walking rows forward so
// each row accumulates the already-restored previous row.
func DeltaDecodeInt16(rows, cols int, buf []int16) {
	if rows <= 1 {
		return
	}
	for d0 := 1; d0 < rows; d0++ {
		for d1 := 0; d1 < cols; d1++ {
			idx := d0*cols + d1
			prev := (d0-1)*cols + d1
			buf[idx] += buf[prev]
		}
	}
}

// XOREncodeFloat32 XORs each row after the first, in reverse, over the
// IEEE-754 bit pattern of the float — the float analogue of
// DeltaEncodeInt16, ported from delta2d_encode_xor.
func XOREncodeFloat32(rows, cols int, buf []float32) {
	if rows <= 1 {
		return
	}
	for d0 := rows - 1; d0 >= 1; d0-- {
		for d1 := 0; d1 < cols; d1++ {
			idx := d0*cols + d1
			prev := (d0-1)*cols + d1
			xored := math.Float32bits(buf[idx]) ^ math.Float32bits(buf[prev])
			buf[idx] = math.Float32frombits(xored)
		}
	}
}

// XORDecodeFloat32 reverses XOREncodeFloat32.
func XORDecodeFloat32(rows, cols int, buf []float32) {
	if rows <= 1 {
		return
	}
	for d0 := 1; d0 < rows; d0++ {
		for d1 := 0; d1 < cols; d1++ {
			idx := d0*cols + d1
			prev := (d0-1)*cols + d1
			xored := math.Float32bits(buf[idx]) ^ math.Float32bits(buf[prev])
			buf[idx] = math.Float32frombits(xored)
		}
	}
}
