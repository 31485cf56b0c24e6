package codec

import (
	"math"
	"testing"
)

func TestEncodeDecodeChunkInt16(t *testing.T) {
	rows, cols := 2, 5
	values := make([]float64, rows*cols)
	for i := range values {
		values[i] = float64(i)
	}

	dst := make([]byte, EncodeBound(FamilyInt16DeltaPFor, rows, cols))
	n, err := EncodeChunk(FamilyInt16DeltaPFor, rows, cols, values, 1, 0, dst)
	if err != nil {
		t.Fatalf("EncodeChunk: %v", err)
	}

	out := make([]float64, rows*cols)
	scratch := make([]byte, DecodeScratchBound(FamilyInt16DeltaPFor, rows, cols))
	if err := DecodeChunk(FamilyInt16DeltaPFor, rows, cols, dst[:n], 1, 0, out, scratch); err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}

	for i := range values {
		if math.Abs(out[i]-values[i]) > 1 {
			t.Fatalf("element %d = %v, want %v", i, out[i], values[i])
		}
	}
}

func TestEncodeDecodeChunkFloatXor(t *testing.T) {
	rows, cols := 3, 3
	values := make([]float64, rows*cols)
	for i := range values {
		values[i] = float64(i) * 1.5
	}

	dst := make([]byte, EncodeBound(FamilyFloatXorFpx, rows, cols))
	n, err := EncodeChunk(FamilyFloatXorFpx, rows, cols, values, 0, 0, dst)
	if err != nil {
		t.Fatalf("EncodeChunk: %v", err)
	}

	out := make([]float64, rows*cols)
	scratch := make([]byte, DecodeScratchBound(FamilyFloatXorFpx, rows, cols))
	if err := DecodeChunk(FamilyFloatXorFpx, rows, cols, dst[:n], 0, 0, out, scratch); err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}

	for i := range values {
		if float32(out[i]) != float32(values[i]) {
			t.Fatalf("element %d = %v, want %v", i, out[i], values[i])
		}
	}
}

func TestEncodeDecodeChunkNaN(t *testing.T) {
	rows, cols := 5, 5
	values := make([]float64, rows*cols)
	for i := range values {
		values[i] = math.NaN()
	}

	dst := make([]byte, EncodeBound(FamilyInt16DeltaPFor, rows, cols))
	n, err := EncodeChunk(FamilyInt16DeltaPFor, rows, cols, values, 1, 0, dst)
	if err != nil {
		t.Fatalf("EncodeChunk: %v", err)
	}

	out := make([]float64, rows*cols)
	scratch := make([]byte, DecodeScratchBound(FamilyInt16DeltaPFor, rows, cols))
	if err := DecodeChunk(FamilyInt16DeltaPFor, rows, cols, dst[:n], 1, 0, out, scratch); err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}

	for i, v := range out {
		if !math.IsNaN(v) {
			t.Fatalf("element %d = %v, want NaN", i, v)
		}
	}
}

func TestWrongElementCount(t *testing.T) {
	dst := make([]byte, EncodeBound(FamilyInt16DeltaPFor, 2, 2))
	if _, err := EncodeChunk(FamilyInt16DeltaPFor, 2, 2, []float64{1, 2, 3}, 1, 0, dst); err == nil {
		t.Fatalf("expected chunk-wrong-element-count error")
	}
}
