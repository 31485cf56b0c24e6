// Package backend defines the byte-range backend contract the rest of
// omfiles-go is built against: narrow, single-purpose interfaces for
// reading and writing byte ranges, so the core never depends on how
// bytes actually reach disk, memory, or the network. Concrete backends
// (files, memory maps, in-memory buffers, network/io_uring fetchers)
// are external collaborators; this package only names the contract and
// ships the minimal reference backends needed to test the core
// in-process (see the membackend, filebackend, and mmapbackend
// subpackages).
package backend

import (
	"context"

	"github.com/terraputix/omfiles-go/internal/errors"
)

// Bytes is a view into backend-owned data. Owned reports whether the
// caller may retain buf beyond the call that produced it: backends that
// can hand out stable slices (memory maps, in-memory buffers) return
// Owned == false and the caller must not hold onto Data past the
// backend's lifetime; backends that must copy (network, io_uring) set
// Owned == true.
type Bytes struct {
	Data  []byte
	Owned bool
}

// WriteBackend appends or overwrites byte ranges with all-or-nothing
// semantics per call.
type WriteBackend interface {
	// Append writes p at the current end of the backend and returns the
	// absolute offset it was written at.
	Append(p []byte) (offset int64, err error)

	// WriteAt overwrites len(p) bytes starting at offset. offset+len(p)
	// must not exceed any previously appended length for backends that
	// cannot grow via WriteAt.
	WriteAt(p []byte, offset int64) error

	// Sync flushes any buffering down to stable storage.
	Sync() error
}

// ReadBackend serves byte ranges for random-access reads. Out-of-range
// requests return an error with Kind KindIO.
type ReadBackend interface {
	// Size returns the total number of addressable bytes.
	Size() (int64, error)

	// GetBytes returns count bytes starting at offset.
	GetBytes(offset int64, count int64) (Bytes, error)

	// Prefetch is advisory; backends without readahead support may
	// treat it as a no-op.
	Prefetch(offset int64, count int64) error
}

// AsyncReadBackend is the suspension point for the async read driver
// (spec section 5): only GetBytesAsync may block the calling goroutine
// on IO; everything else in the core is synchronous and CPU-bound.
type AsyncReadBackend interface {
	GetBytesAsync(ctx context.Context, offset int64, count int64) (Bytes, error)
}

// ErrOutOfRange reports a read or write that falls outside the
// backend's addressable range.
func ErrOutOfRange(offset, count, size int64) error {
	return errors.New(errors.KindIO, "out of range: offset=%d count=%d size=%d", offset, count, size)
}
