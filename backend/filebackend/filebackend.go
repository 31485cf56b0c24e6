// Package filebackend is a write backend over a single growing *os.File,
// grounded on restic's internal/backend/local file-handling idioms
// (errors.WithStack around os/io calls, explicit f.Sync()) but simplified
// to the append/write-at shape this format's writer needs, rather than
// restic's whole-object create-temp-then-rename save.
package filebackend

import (
	"os"

	"github.com/terraputix/omfiles-go/internal/debug"
	"github.com/terraputix/omfiles-go/internal/errors"
)

// Backend appends bytes to a single file, tracking the absolute write
// position so Append knows where the next bytes go and WriteAt can
// check that it only overwrites bytes already written.
type Backend struct {
	f   *os.File
	pos int64
}

// Create opens path for writing, truncating any existing contents.
func Create(path string) (*Backend, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrap(errors.KindCannotOpenFile, err, "creating %s", path)
	}
	debug.Log("created file backend at %s", path)
	return &Backend{f: f}, nil
}

// Append writes p at the current end of the file.
func (b *Backend) Append(p []byte) (int64, error) {
	n, err := b.f.WriteAt(p, b.pos)
	if err != nil {
		return 0, errors.Wrap(errors.KindIO, err, "append at offset %d", b.pos)
	}
	offset := b.pos
	b.pos += int64(n)
	return offset, nil
}

// WriteAt overwrites bytes at an already-written offset; a range that
// extends past the bytes written so far is rejected.
func (b *Backend) WriteAt(p []byte, offset int64) error {
	if offset+int64(len(p)) > b.pos {
		return errors.New(errors.KindIO, "write-at past end of file: offset=%d len=%d written=%d", offset, len(p), b.pos)
	}
	if _, err := b.f.WriteAt(p, offset); err != nil {
		return errors.Wrap(errors.KindIO, err, "write-at offset %d", offset)
	}
	return nil
}

// Sync flushes the file to stable storage.
func (b *Backend) Sync() error {
	if err := b.f.Sync(); err != nil {
		return errors.Wrap(errors.KindIO, err, "sync")
	}
	return nil
}

// Close closes the underlying file. No further Append/WriteAt calls are
// valid afterwards.
func (b *Backend) Close() error {
	if err := b.f.Close(); err != nil {
		return errors.Wrap(errors.KindIO, err, "close")
	}
	return nil
}
