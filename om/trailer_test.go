package om

import "testing"

func TestTrailerRoundTrip(t *testing.T) {
	want := Trailer{RootOffset: 128, RootSize: 64}
	b := EncodeTrailer(want)
	if len(b) != TrailerSize {
		t.Fatalf("trailer size = %d, want %d", len(b), TrailerSize)
	}
	got, err := DecodeTrailer(b)
	if err != nil {
		t.Fatalf("DecodeTrailer: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestTrailerBadMagic(t *testing.T) {
	b := EncodeTrailer(Trailer{RootOffset: 1, RootSize: 1})
	b[0] = 0
	if _, err := DecodeTrailer(b); err == nil {
		t.Fatalf("expected not-an-om-file error")
	}
}

func TestTrailerTooShort(t *testing.T) {
	if _, err := DecodeTrailer([]byte{Magic1, Magic2}); err == nil {
		t.Fatalf("expected file-too-small error")
	}
}
