package codec

import "github.com/terraputix/omfiles-go/internal/errors"

// EncodeBound returns the worst-case number of bytes EncodeChunk needs
// for a chunk of rows*cols elements under the given family — callers
// (the array writer) must pre-allocate to this bound before calling
// EncodeChunk, per spec section 4.3.
func EncodeBound(family Family, rows, cols int) int {
	n := rows * cols
	return DefaultPacker.EncodeBound(n, family.BytesPerElement())
}

// DecodeScratchBound returns the scratch buffer size DecodeChunk needs
// for rows*cols elements under the given family.
func DecodeScratchBound(family Family, rows, cols int) int {
	n := rows * cols
	return DefaultPacker.DecodeScratchBound(n, family.BytesPerElement())
}

// EncodeChunk quantizes (for the int16 families), applies the 2-D
// delta/XOR filter, and entropy-packs one chunk's worth of row-major
// values. values must have exactly rows*cols elements. dst must be at
// least EncodeBound(family, rows, cols) bytes. Returns the number of
// bytes written.
func EncodeChunk(family Family, rows, cols int, values []float64, scale, offset float64, dst []byte) (int, error) {
	n := rows * cols
	if len(values) != n {
		return 0, errors.New(errors.KindChunkWrongElementCount, "chunk has %d values, want %d", len(values), n)
	}

	switch family {
	case FamilyInt16DeltaPFor, FamilyInt16LogDeltaPFor:
		quant := make([]int16, n)
		for i, v := range values {
			if family == FamilyInt16LogDeltaPFor {
				quant[i] = QuantizeLog(v, scale, offset)
			} else {
				quant[i] = QuantizeLinear(v, scale, offset)
			}
		}
		DeltaEncodeInt16(rows, cols, quant)

		raw := make([]byte, n*2)
		putInt16LE(raw, quant)
		return DefaultPacker.Encode(dst, raw)

	case FamilyFloatXorFpx:
		vals32 := make([]float32, n)
		for i, v := range values {
			vals32[i] = float32(v)
		}
		XOREncodeFloat32(rows, cols, vals32)

		raw := make([]byte, n*4)
		putFloat32LE(raw, vals32)
		return DefaultPacker.Encode(dst, raw)

	default:
		return 0, errors.New(errors.KindInvalidCompression, "unknown family %d", family)
	}
}

// DecodeChunk reverses EncodeChunk: unpacks, inverse-filters, and
// dequantizes into dst, which must have exactly rows*cols elements.
// scratch must be at least DecodeScratchBound(family, rows, cols) bytes
// and is used as decode working space.
func DecodeChunk(family Family, rows, cols int, src []byte, scale, offset float64, dst []float64, scratch []byte) error {
	n := rows * cols
	if len(dst) != n {
		return errors.New(errors.KindChunkWrongElementCount, "output has %d values, want %d", len(dst), n)
	}

	switch family {
	case FamilyInt16DeltaPFor, FamilyInt16LogDeltaPFor:
		raw := scratch[:n*2]
		if _, err := DefaultPacker.Decode(raw, src); err != nil {
			return err
		}
		quant := make([]int16, n)
		getInt16LE(quant, raw)
		DeltaDecodeInt16(rows, cols, quant)

		for i, q := range quant {
			if family == FamilyInt16LogDeltaPFor {
				dst[i] = DequantizeLog(q, scale, offset)
			} else {
				dst[i] = DequantizeLinear(q, scale, offset)
			}
		}
		return nil

	case FamilyFloatXorFpx:
		raw := scratch[:n*4]
		if _, err := DefaultPacker.Decode(raw, src); err != nil {
			return err
		}
		vals32 := make([]float32, n)
		getFloat32LE(vals32, raw)
		XORDecodeFloat32(rows, cols, vals32)

		for i, v := range vals32 {
			dst[i] = float64(v)
		}
		return nil

	default:
		return errors.New(errors.KindInvalidCompression, "unknown family %d", family)
	}
}
