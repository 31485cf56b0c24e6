package om

import "testing"

func TestChunkGridBasic(t *testing.T) {
	g, err := NewChunkGrid([]uint64{5, 5}, []uint64{2, 2})
	if err != nil {
		t.Fatalf("NewChunkGrid: %v", err)
	}
	if g.NumChunks[0] != 3 || g.NumChunks[1] != 3 {
		t.Fatalf("numChunks = %v, want [3 3]", g.NumChunks)
	}
	if g.TotalChunks() != 9 {
		t.Fatalf("TotalChunks = %d, want 9", g.TotalChunks())
	}

	shape := g.ChunkShapeAt([]uint64{2, 2})
	if shape[0] != 1 || shape[1] != 1 {
		t.Fatalf("boundary chunk shape = %v, want [1 1]", shape)
	}

	shape = g.ChunkShapeAt([]uint64{0, 0})
	if shape[0] != 2 || shape[1] != 2 {
		t.Fatalf("interior chunk shape = %v, want [2 2]", shape)
	}
}

func TestChunkGridFlatRoundTrip(t *testing.T) {
	g, err := NewChunkGrid([]uint64{10, 7, 3}, []uint64{4, 3, 1})
	if err != nil {
		t.Fatalf("NewChunkGrid: %v", err)
	}
	for flat := uint64(0); flat < g.TotalChunks(); flat++ {
		coord := g.Coord(flat)
		if got := g.FlatIndex(coord); got != flat {
			t.Fatalf("FlatIndex(Coord(%d)) = %d, want %d", flat, got, flat)
		}
	}
}

func TestChunkGridRejectsOversizedChunk(t *testing.T) {
	if _, err := NewChunkGrid([]uint64{2}, []uint64{3}); err == nil {
		t.Fatalf("expected error for chunk shape exceeding dimension")
	}
}

func TestChunkIndexRangeAndEnumerate(t *testing.T) {
	g, err := NewChunkGrid([]uint64{6, 6}, []uint64{2, 2})
	if err != nil {
		t.Fatalf("NewChunkGrid: %v", err)
	}
	first, last, err := g.ChunkIndexRange([]uint64{1, 1}, []uint64{3, 3})
	if err != nil {
		t.Fatalf("ChunkIndexRange: %v", err)
	}
	if first[0] != 0 || first[1] != 0 || last[0] != 2 || last[1] != 2 {
		t.Fatalf("range = %v..%v, want [0 0]..[2 2]", first, last)
	}

	chunks := g.EnumerateChunks(first, last)
	want := []uint64{0, 1, 3, 4}
	if len(chunks) != len(want) {
		t.Fatalf("enumerate = %v, want %v", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Fatalf("enumerate[%d] = %d, want %d", i, chunks[i], want[i])
		}
	}
}

func TestChunkIndexRangeOutOfBounds(t *testing.T) {
	g, err := NewChunkGrid([]uint64{4, 4}, []uint64{2, 2})
	if err != nil {
		t.Fatalf("NewChunkGrid: %v", err)
	}
	if _, _, err := g.ChunkIndexRange([]uint64{3, 0}, []uint64{2, 2}); err == nil {
		t.Fatalf("expected offset+count exceeds dimension error")
	}
}
