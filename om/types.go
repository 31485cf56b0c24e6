// Package om implements the OM file format's data model: header/trailer,
// the self-describing variable record tree, the compressed chunk
// look-up table, and the chunk-grid arithmetic the read planner and
// writer state machine both need. It is the Go analogue of the teacher
// repository's pack/index primitives (which the retrieval pack only
// preserved as tests — see DESIGN.md), generalized to this format's
// N-dimensional, self-describing variable tree.
package om

import "github.com/terraputix/omfiles-go/internal/errors"

// DataType tags a scalar or numeric-array element type, matching the
// wire values in spec section 6 exactly: 0 is "none", 1..10 are scalar
// types, 11 is string, and 12..22 are their array counterparts
// (DataType+11 turns a scalar tag into its array tag).
type DataType uint8

const (
	DataTypeNone DataType = 0

	DataTypeInt8    DataType = 1
	DataTypeUint8   DataType = 2
	DataTypeInt16   DataType = 3
	DataTypeUint16  DataType = 4
	DataTypeInt32   DataType = 5
	DataTypeUint32  DataType = 6
	DataTypeInt64   DataType = 7
	DataTypeUint64  DataType = 8
	DataTypeFloat32 DataType = 9
	DataTypeFloat64 DataType = 10
	DataTypeString  DataType = 11

	DataTypeArrayInt8    DataType = 12
	DataTypeArrayUint8   DataType = 13
	DataTypeArrayInt16   DataType = 14
	DataTypeArrayUint16  DataType = 15
	DataTypeArrayInt32   DataType = 16
	DataTypeArrayUint32  DataType = 17
	DataTypeArrayInt64   DataType = 18
	DataTypeArrayUint64  DataType = 19
	DataTypeArrayFloat32 DataType = 20
	DataTypeArrayFloat64 DataType = 21
	DataTypeArrayString  DataType = 22
)

// IsArray reports whether the tag denotes a numeric-array kind (12..22)
// rather than a scalar kind.
func (d DataType) IsArray() bool { return d >= DataTypeArrayInt8 && d <= DataTypeArrayString }

// ScalarCounterpart returns the scalar tag for an array tag (and is the
// identity for an already-scalar tag), used when validating a caller's
// expected element type against the file's.
func (d DataType) ScalarCounterpart() DataType {
	if d.IsArray() {
		return d - 11
	}
	return d
}

// ElementSize returns the on-disk size in bytes of one scalar element
// of this type, or 0 for DataTypeNone/DataTypeString (variable length).
func ElementSize(d DataType) int {
	switch d.ScalarCounterpart() {
	case DataTypeInt8, DataTypeUint8:
		return 1
	case DataTypeInt16, DataTypeUint16:
		return 2
	case DataTypeInt32, DataTypeUint32, DataTypeFloat32:
		return 4
	case DataTypeInt64, DataTypeUint64, DataTypeFloat64:
		return 8
	default:
		return 0
	}
}

// ValidateDataType reports an invalid-data-type error if tag isn't one
// of the known values, matching spec section 9's "type-tag mismatch...
// reported as invalid-data-type before any I/O" rule.
func ValidateDataType(tag uint8) (DataType, error) {
	d := DataType(tag)
	switch d {
	case DataTypeNone,
		DataTypeInt8, DataTypeUint8, DataTypeInt16, DataTypeUint16,
		DataTypeInt32, DataTypeUint32, DataTypeInt64, DataTypeUint64,
		DataTypeFloat32, DataTypeFloat64, DataTypeString,
		DataTypeArrayInt8, DataTypeArrayUint8, DataTypeArrayInt16, DataTypeArrayUint16,
		DataTypeArrayInt32, DataTypeArrayUint32, DataTypeArrayInt64, DataTypeArrayUint64,
		DataTypeArrayFloat32, DataTypeArrayFloat64, DataTypeArrayString:
		return d, nil
	default:
		return 0, errors.New(errors.KindInvalidDataType, "unknown data type tag %d", tag)
	}
}

// RecordKind distinguishes the two variable record shapes spec section
// 3 describes.
type RecordKind uint8

const (
	RecordKindScalar RecordKind = iota
	RecordKindArray
)
