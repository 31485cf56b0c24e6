package writer

import (
	"testing"

	"github.com/terraputix/omfiles-go/backend/membackend"
)

func TestBufferedWriterWriteAndFlush(t *testing.T) {
	be := membackend.New()
	bw := NewSize(be, 8)

	if err := bw.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if bw.Position() != 5 {
		t.Fatalf("Position = %d, want 5", bw.Position())
	}
	if err := bw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if string(be.Bytes()) != "hello" {
		t.Fatalf("backend = %q, want %q", be.Bytes(), "hello")
	}
}

func TestBufferedWriterGrows(t *testing.T) {
	be := membackend.New()
	bw := NewSize(be, 4)

	big := make([]byte, 100)
	for i := range big {
		big[i] = byte(i)
	}
	if err := bw.Write(big); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(be.Bytes()) != 100 {
		t.Fatalf("backend has %d bytes, want 100", len(be.Bytes()))
	}
	for i, b := range be.Bytes() {
		if b != byte(i) {
			t.Fatalf("byte %d = %d, want %d", i, b, byte(i))
		}
	}
}

func TestBufferedWriterAlignTo8(t *testing.T) {
	be := membackend.New()
	bw := New(be)

	if err := bw.Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := bw.AlignTo8(); err != nil {
		t.Fatalf("AlignTo8: %v", err)
	}
	if bw.Position() != 8 {
		t.Fatalf("Position = %d, want 8", bw.Position())
	}
	if err := bw.AlignTo8(); err != nil {
		t.Fatalf("AlignTo8 (already aligned): %v", err)
	}
	if bw.Position() != 8 {
		t.Fatalf("Position after no-op align = %d, want 8", bw.Position())
	}
}

func TestBufferedWriterReserveAdvance(t *testing.T) {
	be := membackend.New()
	bw := NewSize(be, 16)

	dst, err := bw.Reserve(4)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	copy(dst, []byte{9, 9, 9, 9})
	bw.Advance(4)

	if bw.Position() != 4 {
		t.Fatalf("Position = %d, want 4", bw.Position())
	}
	if err := bw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if string(be.Bytes()) != string([]byte{9, 9, 9, 9}) {
		t.Fatalf("backend = %v, want [9 9 9 9]", be.Bytes())
	}
}
