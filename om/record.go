package om

import (
	"encoding/binary"
	"math"

	"github.com/terraputix/omfiles-go/codec"
	"github.com/terraputix/omfiles-go/internal/errors"
)

// Variable record layout, spec section 6:
//
//	length-prefixed name (u16 length, UTF-8 bytes)
//	type tag (u8)
//	children_count (u32)
//	[child_offset:u64, child_size:u64] x children_count
//	type-specific payload
//	padding to the next 8-byte boundary
//
// Scalar payload is the value's native little-endian bytes (UTF-8 for
// strings). Numeric-array payload is:
//
//	compression:u8, data_type:u8, scale:f32, offset:f32,
//	nd:u64, dims:u64xnd, chunks:u64xnd, lut_size:u64, lut_offset:u64

func padTo8(n int) int {
	return (n + 7) &^ 7
}

func encodeHeader(buf []byte, name string, tag DataType, children []Child) []byte {
	buf = append(buf, byte(len(name)), byte(len(name)>>8))
	buf = append(buf, name...)
	buf = append(buf, byte(tag))

	var childCount [4]byte
	binary.LittleEndian.PutUint32(childCount[:], uint32(len(children)))
	buf = append(buf, childCount[:]...)

	for _, c := range children {
		var off, size [8]byte
		binary.LittleEndian.PutUint64(off[:], uint64(c.Offset))
		binary.LittleEndian.PutUint64(size[:], uint64(c.Size))
		buf = append(buf, off[:]...)
		buf = append(buf, size[:]...)
	}
	return buf
}

// EncodeScalarRecord serializes a scalar variable record, padded to an
// 8-byte boundary.
func EncodeScalarRecord(v *ScalarVariable) ([]byte, error) {
	if len(v.Name) > math.MaxUint16 {
		return nil, errors.New(errors.KindDecoder, "variable name %q too long", v.Name)
	}
	buf := make([]byte, 0, 16+len(v.Name)+len(v.Raw))
	buf = encodeHeader(buf, v.Name, v.DataType, v.Children)
	buf = append(buf, v.Raw...)

	padded := make([]byte, padTo8(len(buf)))
	copy(padded, buf)
	return padded, nil
}

// EncodeArrayRecord serializes a numeric-array variable record, padded
// to an 8-byte boundary.
func EncodeArrayRecord(v *ArrayVariable) ([]byte, error) {
	if len(v.Name) > math.MaxUint16 {
		return nil, errors.New(errors.KindDecoder, "variable name %q too long", v.Name)
	}
	nd := len(v.Dimensions)
	if len(v.ChunkShape) != nd {
		return nil, errors.New(errors.KindMismatchingCubeDimensionLength,
			"dimensions has %d entries, chunkShape has %d", nd, len(v.ChunkShape))
	}

	buf := make([]byte, 0, 32+len(v.Name)+16*nd)
	buf = encodeHeader(buf, v.Name, arrayTagFor(v.DataType), v.Children)

	buf = append(buf, byte(v.Compression))
	buf = append(buf, byte(v.DataType.ScalarCounterpart()))

	var scaleBits, offsetBits [4]byte
	binary.LittleEndian.PutUint32(scaleBits[:], math.Float32bits(float32(v.ScaleFactor)))
	binary.LittleEndian.PutUint32(offsetBits[:], math.Float32bits(float32(v.AddOffset)))
	buf = append(buf, scaleBits[:]...)
	buf = append(buf, offsetBits[:]...)

	var ndBytes [8]byte
	binary.LittleEndian.PutUint64(ndBytes[:], uint64(nd))
	buf = append(buf, ndBytes[:]...)

	for _, d := range v.Dimensions {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], d)
		buf = append(buf, b[:]...)
	}
	for _, c := range v.ChunkShape {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], c)
		buf = append(buf, b[:]...)
	}

	var lutSize, lutOffset [8]byte
	binary.LittleEndian.PutUint64(lutSize[:], uint64(v.LUTSize))
	binary.LittleEndian.PutUint64(lutOffset[:], uint64(v.LUTOffset))
	buf = append(buf, lutSize[:]...)
	buf = append(buf, lutOffset[:]...)

	padded := make([]byte, padTo8(len(buf)))
	copy(padded, buf)
	return padded, nil
}

// arrayTagFor is a tiny helper so EncodeArrayRecord can store the
// array-kind tag (12..22) even when callers populate DataType with the
// scalar-kind tag (which ScalarCounterpart tolerates on read).
func arrayTagFor(d DataType) DataType {
	if d.IsArray() {
		return d
	}
	return d + 11
}

// decodeHeader parses the shared {name, type tag, children} prefix
// every variable record starts with, returning the tag and the byte
// offset where the type-specific payload begins.
func decodeHeader(data []byte) (name string, tag DataType, children []Child, payloadOffset int, err error) {
	if len(data) < 2 {
		return "", 0, nil, 0, errors.New(errors.KindFileTooSmall, "record too short for name length")
	}
	nameLen := int(binary.LittleEndian.Uint16(data[0:2]))
	pos := 2 + nameLen
	if len(data) < pos+1+4 {
		return "", 0, nil, 0, errors.New(errors.KindFileTooSmall, "record too short for header")
	}
	name = string(data[2:pos])

	tagByte := data[pos]
	pos++
	d, err := ValidateDataType(tagByte)
	if err != nil {
		return "", 0, nil, 0, err
	}

	childCount := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4

	children = make([]Child, 0, childCount)
	for i := 0; i < childCount; i++ {
		if len(data) < pos+16 {
			return "", 0, nil, 0, errors.New(errors.KindFileTooSmall, "record too short for child %d", i)
		}
		off := int64(binary.LittleEndian.Uint64(data[pos : pos+8]))
		size := int64(binary.LittleEndian.Uint64(data[pos+8 : pos+16]))
		pos += 16
		children = append(children, Child{Offset: off, Size: size})
	}

	return name, d, children, pos, nil
}

// PeekRecordKind inspects a variable record's type tag to determine
// whether it decodes as a scalar or numeric-array record, without
// parsing the rest of the payload.
func PeekRecordKind(data []byte) (RecordKind, error) {
	_, tag, _, _, err := decodeHeader(data)
	if err != nil {
		return 0, err
	}
	if tag.IsArray() {
		return RecordKindArray, nil
	}
	return RecordKindScalar, nil
}

// DecodeScalarRecord parses a scalar variable record. data must be
// exactly the record's own byte span (as located by its parent's child
// {offset,size} or the trailer's root {offset,size}) so that the
// scalar payload's extent — fixed-size for numeric kinds, the
// remainder minus 8-byte padding for strings — can be recovered
// without a separate length field.
func DecodeScalarRecord(data []byte) (*ScalarVariable, error) {
	name, tag, children, pos, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	if tag.IsArray() {
		return nil, errors.New(errors.KindInvalidDataType, "record %q is a numeric-array record, not scalar", name)
	}

	var rawSize int
	if tag == DataTypeString {
		rawSize = len(data) - pos
		for rawSize > 0 && data[pos+rawSize-1] == 0 {
			rawSize--
		}
	} else {
		rawSize = ElementSize(tag)
	}
	if len(data) < pos+rawSize {
		return nil, errors.New(errors.KindFileTooSmall, "record %q too short for scalar payload", name)
	}
	raw := append([]byte(nil), data[pos:pos+rawSize]...)
	return &ScalarVariable{Name: name, DataType: tag, Raw: raw, Children: children}, nil
}

// DecodeArrayRecord parses a numeric-array variable record.
func DecodeArrayRecord(data []byte) (*ArrayVariable, error) {
	name, tag, children, pos, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	if !tag.IsArray() {
		return nil, errors.New(errors.KindInvalidDataType, "record %q is a scalar record, not numeric-array", name)
	}

	if len(data) < pos+2 {
		return nil, errors.New(errors.KindFileTooSmall, "record %q too short for array header", name)
	}
	compressionTag := data[pos]
	dataTypeTag := data[pos+1]
	pos += 2

	family, err := codec.ParseFamily(compressionTag)
	if err != nil {
		return nil, err
	}
	elemType, err := ValidateDataType(dataTypeTag)
	if err != nil {
		return nil, err
	}

	if len(data) < pos+8+8+8 {
		return nil, errors.New(errors.KindFileTooSmall, "record %q too short for scale/offset/nd", name)
	}
	scale := float64(math.Float32frombits(binary.LittleEndian.Uint32(data[pos : pos+4])))
	offset := float64(math.Float32frombits(binary.LittleEndian.Uint32(data[pos+4 : pos+8])))
	pos += 8
	nd := int(binary.LittleEndian.Uint64(data[pos : pos+8]))
	pos += 8

	if len(data) < pos+16*nd+16 {
		return nil, errors.New(errors.KindFileTooSmall, "record %q too short for dims/chunks/lut", name)
	}
	dims := make([]uint64, nd)
	for i := 0; i < nd; i++ {
		dims[i] = binary.LittleEndian.Uint64(data[pos : pos+8])
		pos += 8
	}
	chunks := make([]uint64, nd)
	for i := 0; i < nd; i++ {
		chunks[i] = binary.LittleEndian.Uint64(data[pos : pos+8])
		pos += 8
	}
	lutSize := int64(binary.LittleEndian.Uint64(data[pos : pos+8]))
	pos += 8
	lutOffset := int64(binary.LittleEndian.Uint64(data[pos : pos+8]))

	return &ArrayVariable{
		Name:         name,
		Compression:  family,
		DataType:     elemType,
		ScaleFactor:  scale,
		AddOffset:    offset,
		Dimensions:   dims,
		ChunkShape:   chunks,
		LUTOffset:    lutOffset,
		LUTSize:      lutSize,
		LUTGroupSize: DefaultLUTGroupSize,
		Children:     children,
	}, nil
}
