package writer

import (
	"github.com/terraputix/omfiles-go/backend"
	"github.com/terraputix/omfiles-go/codec"
	"github.com/terraputix/omfiles-go/internal/errors"
	"github.com/terraputix/omfiles-go/om"
)

// FileWriter is the top-level v3 file writer of spec section 4.5: it
// owns the buffered writer, auto-invokes the header on first use, and
// stitches array/scalar records together behind a trailer anchoring
// the root record.
type FileWriter struct {
	be             backend.WriteBackend
	bw             *BufferedWriter
	headerWritten  bool
	trailerWritten bool
}

// NewFile returns a FileWriter over be with the default buffer
// capacity.
func NewFile(be backend.WriteBackend) *FileWriter {
	return &FileWriter{be: be, bw: New(be)}
}

func (f *FileWriter) ensureHeader() error {
	if f.headerWritten {
		return nil
	}
	if err := f.bw.Write(om.WriteV3Header()); err != nil {
		return err
	}
	f.headerWritten = true
	return nil
}

func (f *FileWriter) checkOpen() error {
	if f.trailerWritten {
		return errors.New(errors.KindIO, "file writer is closed: trailer already written")
	}
	return nil
}

// PrepareArray starts a new array variable. groupSize is L, the LUT
// compression group size; pass 0 for the production default.
func (f *FileWriter) PrepareArray(dims, chunkShape []uint64, compression codec.Family, dataType om.DataType, scale, offset float64, groupSize int) (*ArrayWriter, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if err := f.ensureHeader(); err != nil {
		return nil, err
	}
	if err := f.bw.AlignTo8(); err != nil {
		return nil, err
	}
	return PrepareArray(f.bw, dims, chunkShape, compression, dataType, scale, offset, groupSize)
}

// WriteScalar emits a scalar variable record and returns the
// {offset,size} a parent record (or the trailer) needs to reference it.
func (f *FileWriter) WriteScalar(v *om.ScalarVariable) (om.Child, error) {
	if err := f.checkOpen(); err != nil {
		return om.Child{}, err
	}
	if err := f.ensureHeader(); err != nil {
		return om.Child{}, err
	}
	if err := f.bw.AlignTo8(); err != nil {
		return om.Child{}, err
	}
	offset := f.bw.Position()

	b, err := om.EncodeScalarRecord(v)
	if err != nil {
		return om.Child{}, err
	}
	if err := f.bw.Write(b); err != nil {
		return om.Child{}, err
	}
	return om.Child{Offset: offset, Size: int64(len(b))}, nil
}

// WriteArray emits a finalized array's variable record and returns the
// {offset,size} a parent record (or the trailer) needs to reference it.
func (f *FileWriter) WriteArray(v *om.ArrayVariable) (om.Child, error) {
	if err := f.checkOpen(); err != nil {
		return om.Child{}, err
	}
	if err := f.ensureHeader(); err != nil {
		return om.Child{}, err
	}
	if err := f.bw.AlignTo8(); err != nil {
		return om.Child{}, err
	}
	offset := f.bw.Position()

	b, err := om.EncodeArrayRecord(v)
	if err != nil {
		return om.Child{}, err
	}
	if err := f.bw.Write(b); err != nil {
		return om.Child{}, err
	}
	return om.Child{Offset: offset, Size: int64(len(b))}, nil
}

// WriteTrailer pads to an 8-byte boundary, writes the trailer
// anchoring root, and flushes and syncs the backend. The file is
// closed for writes after this call returns successfully.
func (f *FileWriter) WriteTrailer(root om.Child) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if err := f.bw.AlignTo8(); err != nil {
		return err
	}
	trailer := om.Trailer{RootOffset: root.Offset, RootSize: root.Size}
	if err := f.bw.Write(om.EncodeTrailer(trailer)); err != nil {
		return err
	}
	if err := f.bw.Flush(); err != nil {
		return err
	}
	if err := f.be.Sync(); err != nil {
		return errors.Wrap(errors.KindIO, err, "syncing file writer backend")
	}
	f.trailerWritten = true
	return nil
}
