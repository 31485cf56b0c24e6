package om

import "testing"

func TestEncodeDecodeLUTSingleGroup(t *testing.T) {
	offsets := []uint64{3, 103, 250, 400, 512}
	data, stride, err := EncodeLUT(offsets, 256)
	if err != nil {
		t.Fatalf("EncodeLUT: %v", err)
	}
	if NumLUTGroups(len(offsets), 256) != 1 {
		t.Fatalf("expected a single group")
	}

	got, err := DecodeLUTGroup(data, stride, 0, len(offsets))
	if err != nil {
		t.Fatalf("DecodeLUTGroup: %v", err)
	}
	for i := range offsets {
		if got[i] != offsets[i] {
			t.Fatalf("entry %d = %d, want %d", i, got[i], offsets[i])
		}
	}
}

func TestEncodeDecodeLUTMultiGroup(t *testing.T) {
	groupSize := 4
	offsets := make([]uint64, 10)
	for i := range offsets {
		offsets[i] = uint64(i) * 97
	}
	data, stride, err := EncodeLUT(offsets, groupSize)
	if err != nil {
		t.Fatalf("EncodeLUT: %v", err)
	}

	numGroups := NumLUTGroups(len(offsets), groupSize)
	if numGroups != 3 {
		t.Fatalf("numGroups = %d, want 3", numGroups)
	}

	stride2, err := LUTStride(int64(len(data)), numGroups)
	if err != nil {
		t.Fatalf("LUTStride: %v", err)
	}
	if stride2 != stride {
		t.Fatalf("recovered stride %d != original %d", stride2, stride)
	}

	got, err := DecodeLUTGroups(data, stride, len(offsets), groupSize, 0, numGroups)
	if err != nil {
		t.Fatalf("DecodeLUTGroups: %v", err)
	}
	if len(got) != len(offsets) {
		t.Fatalf("got %d entries, want %d", len(got), len(offsets))
	}
	for i := range offsets {
		if got[i] != offsets[i] {
			t.Fatalf("entry %d = %d, want %d", i, got[i], offsets[i])
		}
	}
}

func TestResolveLegacyOffset(t *testing.T) {
	relEnds := []uint64{100, 250, 400}
	dataStart := int64(40 + 3*8)

	if got := ResolveLegacyOffset(relEnds, dataStart, 0); got != uint64(dataStart) {
		t.Fatalf("entry 0 = %d, want %d", got, dataStart)
	}
	if got := ResolveLegacyOffset(relEnds, dataStart, 1); got != uint64(dataStart)+100 {
		t.Fatalf("entry 1 = %d, want %d", got, uint64(dataStart)+100)
	}
	if got := ResolveLegacyOffset(relEnds, dataStart, 3); got != uint64(dataStart)+400 {
		t.Fatalf("entry 3 (sentinel) = %d, want %d", got, uint64(dataStart)+400)
	}
}

func TestReadLegacyRelEnds(t *testing.T) {
	raw := make([]byte, 24)
	for i := 0; i < 3; i++ {
		raw[i*8] = byte((i + 1) * 10)
	}
	got, err := ReadLegacyRelEnds(raw, 3)
	if err != nil {
		t.Fatalf("ReadLegacyRelEnds: %v", err)
	}
	want := []uint64{10, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d = %d, want %d", i, got[i], want[i])
		}
	}
}
