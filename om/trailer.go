package om

import (
	"encoding/binary"

	"github.com/terraputix/omfiles-go/internal/errors"
)

// TrailerSize is the fixed on-disk size of a v3 trailer: the 2-byte
// magic followed by the root record's {offset, size} as little-endian
// u64s (spec section 6).
const TrailerSize = 2 + 8 + 8

// Trailer anchors the root variable record of a v3 file.
type Trailer struct {
	RootOffset int64
	RootSize   int64
}

// EncodeTrailer returns the fixed TrailerSize bytes for t.
func EncodeTrailer(t Trailer) []byte {
	b := make([]byte, TrailerSize)
	b[0], b[1] = Magic1, Magic2
	binary.LittleEndian.PutUint64(b[2:10], uint64(t.RootOffset))
	binary.LittleEndian.PutUint64(b[10:18], uint64(t.RootSize))
	return b
}

// DecodeTrailer parses the last TrailerSize bytes of a v3 file.
func DecodeTrailer(b []byte) (Trailer, error) {
	if len(b) != TrailerSize {
		return Trailer{}, errors.New(errors.KindFileTooSmall, "trailer needs %d bytes, got %d", TrailerSize, len(b))
	}
	if b[0] != Magic1 || b[1] != Magic2 {
		return Trailer{}, errors.New(errors.KindNotAnOmFile, "bad trailer magic %02x %02x", b[0], b[1])
	}
	return Trailer{
		RootOffset: int64(binary.LittleEndian.Uint64(b[2:10])),
		RootSize:   int64(binary.LittleEndian.Uint64(b[10:18])),
	}, nil
}
