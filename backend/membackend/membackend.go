// Package membackend is an in-memory byte-range backend, grounded on
// restic's internal/backend/mem: a mutex-guarded growable buffer that
// implements both the write and read capability sets, so a round-trip
// test never touches disk.
package membackend

import (
	"context"
	"sync"

	"github.com/terraputix/omfiles-go/backend"
	"github.com/terraputix/omfiles-go/internal/debug"
	"github.com/terraputix/omfiles-go/internal/errors"
)

// Backend stores all data in a growable in-memory slice. It is safe for
// concurrent reads; writes must be serialized by the caller, matching
// the single-writer model the rest of the module assumes.
type Backend struct {
	mu   sync.RWMutex
	data []byte
}

var (
	_ backend.WriteBackend     = (*Backend)(nil)
	_ backend.ReadBackend      = (*Backend)(nil)
	_ backend.AsyncReadBackend = (*Backend)(nil)
)

// New returns an empty in-memory backend.
func New() *Backend {
	debug.Log("created new in-memory backend")
	return &Backend{}
}

// NewFromBytes wraps an existing byte slice for reading, useful for
// feeding hand-built or corrupted fixtures to the reader in tests.
func NewFromBytes(data []byte) *Backend {
	return &Backend{data: data}
}

// Append writes p at the current end of the buffer.
func (b *Backend) Append(p []byte) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	offset := int64(len(b.data))
	b.data = append(b.data, p...)
	return offset, nil
}

// WriteAt overwrites len(p) bytes starting at offset; offset+len(p) must
// not exceed the current length, so WriteAt never grows the buffer.
func (b *Backend) WriteAt(p []byte, offset int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 || offset+int64(len(p)) > int64(len(b.data)) {
		return backend.ErrOutOfRange(offset, int64(len(p)), int64(len(b.data)))
	}
	copy(b.data[offset:], p)
	return nil
}

// Sync is a no-op: there is nothing underneath memory to flush.
func (b *Backend) Sync() error { return nil }

// Size returns the number of bytes currently stored.
func (b *Backend) Size() (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return int64(len(b.data)), nil
}

// GetBytes returns a copy of count bytes starting at offset. A copy (not
// a slice into the live buffer) is returned because concurrent Appends
// may reallocate the backing array.
func (b *Backend) GetBytes(offset int64, count int64) (backend.Bytes, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if offset < 0 || count < 0 || offset+count > int64(len(b.data)) {
		return backend.Bytes{}, backend.ErrOutOfRange(offset, count, int64(len(b.data)))
	}

	out := make([]byte, count)
	copy(out, b.data[offset:offset+count])
	return backend.Bytes{Data: out, Owned: true}, nil
}

// Prefetch is a no-op for an in-memory backend.
func (b *Backend) Prefetch(offset int64, count int64) error { return nil }

// GetBytesAsync serves the same data as GetBytes; it never actually
// suspends, matching an in-memory backend's zero real latency.
func (b *Backend) GetBytesAsync(ctx context.Context, offset int64, count int64) (backend.Bytes, error) {
	select {
	case <-ctx.Done():
		return backend.Bytes{}, errors.Wrap(errors.KindTaskCancelled, ctx.Err(), "GetBytesAsync cancelled")
	default:
	}
	return b.GetBytes(offset, count)
}

// Bytes returns a copy of the entire backend contents; handy for tests
// that want to assert on the final on-disk layout.
func (b *Backend) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}
