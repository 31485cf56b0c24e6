// Package writer implements the forward-only write path: a buffered
// byte-stream writer in front of a backend.WriteBackend, the array
// writer state machine that turns N-D sub-rectangles into chunk-order
// compressed payloads and a growing LUT, and the file writer that
// stitches scalar/array records together behind a trailer.
package writer

import (
	"github.com/terraputix/omfiles-go/backend"
	"github.com/terraputix/omfiles-go/internal/errors"
)

// defaultInitialCapacity is the buffer's starting (and minimum, once
// grown) capacity.
const defaultInitialCapacity = 64 * 1024

// BufferedWriter batches writes in memory and flushes them to a
// backend.WriteBackend as a single Append per flush, tracking the
// absolute stream position so callers can record byte offsets before
// the bytes actually reach the backend.
type BufferedWriter struct {
	be       backend.WriteBackend
	buf      []byte
	capacity int
	absolute int64
}

// New returns a BufferedWriter with the default initial capacity.
func New(be backend.WriteBackend) *BufferedWriter {
	return NewSize(be, defaultInitialCapacity)
}

// NewSize returns a BufferedWriter with the given initial capacity.
func NewSize(be backend.WriteBackend, capacity int) *BufferedWriter {
	if capacity <= 0 {
		capacity = defaultInitialCapacity
	}
	return &BufferedWriter{
		be:       be,
		buf:      make([]byte, 0, capacity),
		capacity: capacity,
	}
}

// Position returns the absolute stream offset: bytes already flushed
// to the backend plus bytes still pending in the buffer. It always
// equals the total number of bytes the writer has been asked to write
// so far.
func (w *BufferedWriter) Position() int64 {
	return w.absolute + int64(len(w.buf))
}

// Reserve returns a min-byte slice of the pending buffer for the
// caller to fill in place, flushing first if the buffer lacks room and,
// if flushing alone isn't enough, growing the capacity in steps of
// defaultInitialCapacity. The step does not depend on the capacity
// passed to NewSize, so a grown capacity is not in general a multiple
// of it. The caller must follow with Advance(n) for the
// n bytes it actually filled (n <= min).
func (w *BufferedWriter) Reserve(min int) ([]byte, error) {
	if w.capacity-len(w.buf) < min {
		if err := w.Flush(); err != nil {
			return nil, err
		}
	}
	needed := len(w.buf) + min
	for w.capacity < needed {
		w.capacity += defaultInitialCapacity
	}
	if cap(w.buf) < needed {
		grown := make([]byte, len(w.buf), w.capacity)
		copy(grown, w.buf)
		w.buf = grown
	}
	return w.buf[len(w.buf):needed], nil
}

// Advance commits the first n bytes of the slice last returned by
// Reserve as written.
func (w *BufferedWriter) Advance(n int) {
	w.buf = w.buf[:len(w.buf)+n]
}

// Write copies p into the buffer, reserving and advancing as needed.
func (w *BufferedWriter) Write(p []byte) error {
	dst, err := w.Reserve(len(p))
	if err != nil {
		return err
	}
	copy(dst, p)
	w.Advance(len(p))
	return nil
}

// AlignTo8 zero-fills up to the next 8-byte boundary of the absolute
// stream position.
func (w *BufferedWriter) AlignTo8() error {
	gap := int(-w.Position() & 7)
	if gap == 0 {
		return nil
	}
	dst, err := w.Reserve(gap)
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = 0
	}
	w.Advance(gap)
	return nil
}

// Flush writes the pending buffer to the backend and resets it,
// keeping the underlying array (and therefore its capacity).
func (w *BufferedWriter) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	off, err := w.be.Append(w.buf)
	if err != nil {
		return errors.Wrap(errors.KindIO, err, "flushing buffered writer")
	}
	if off != w.absolute {
		return errors.New(errors.KindIO, "backend appended at %d, expected %d", off, w.absolute)
	}
	w.absolute += int64(len(w.buf))
	w.buf = w.buf[:0]
	return nil
}
