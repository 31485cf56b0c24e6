// Package codec implements the chunk codec from spec section 4.3: the
// scale/offset quantization and 2-D delta/XOR filters (implemented here
// directly, following original_source/src/delta2d.rs), and the
// black-box integer/float entropy-pack stage that stands in for
// TurboPFor/fpx (backed by github.com/klauspost/compress/s2 — see
// DESIGN.md for why a real dependency was chosen over a hand-rolled bit
// packer for a concern spec.md explicitly scopes out).
package codec

import (
	"github.com/terraputix/omfiles-go/internal/errors"
)

// Family identifies one of the three chunk compression families named
// in spec section 4.3/6. The numeric values match the on-disk
// compression tag exactly.
type Family uint8

const (
	FamilyInt16DeltaPFor    Family = 0
	FamilyFloatXorFpx       Family = 1
	FamilyInt16LogDeltaPFor Family = 3
)

// ParseFamily validates an on-disk compression tag. Tag 2 is reserved
// and rejected like any other unknown value.
func ParseFamily(tag uint8) (Family, error) {
	switch Family(tag) {
	case FamilyInt16DeltaPFor, FamilyFloatXorFpx, FamilyInt16LogDeltaPFor:
		return Family(tag), nil
	default:
		return 0, errors.New(errors.KindInvalidCompression, "unknown compression tag %d", tag)
	}
}

// BytesPerElement returns the wire element size for a family: 2 for the
// int16 families, 4 for the float family.
func (f Family) BytesPerElement() int {
	switch f {
	case FamilyFloatXorFpx:
		return 4
	default:
		return 2
	}
}

func (f Family) String() string {
	switch f {
	case FamilyInt16DeltaPFor:
		return "int16-delta-pfor"
	case FamilyFloatXorFpx:
		return "float-xor-fpx"
	case FamilyInt16LogDeltaPFor:
		return "int16-log-delta-pfor"
	default:
		return "unknown"
	}
}
