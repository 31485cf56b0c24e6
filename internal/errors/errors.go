// Package errors defines the kind-tagged error type shared by every
// omfiles-go package, following the same github.com/pkg/errors-based
// conventions restic's internal/errors uses.
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a failure the way spec section 7 enumerates them.
// Callers should branch on Kind, never on the error string.
type Kind int

const (
	KindUnknown Kind = iota
	KindCannotOpenFile
	KindIO
	KindFileTooSmall
	KindNotAnOmFile
	KindInvalidCompression
	KindInvalidDataType
	KindDimensionOutOfBounds
	KindMismatchingCubeDimensionLength
	KindChunkWrongElementCount
	KindOffsetAndCountExceedDimension
	KindDimensionMustBeGreaterThanZero
	KindChunkDimSmallerThanOverall
	KindDecoder
	KindTaskCancelled
	KindArrayNotContiguous
)

func (k Kind) String() string {
	switch k {
	case KindCannotOpenFile:
		return "cannot-open-file"
	case KindIO:
		return "io-error"
	case KindFileTooSmall:
		return "file-too-small"
	case KindNotAnOmFile:
		return "not-an-om-file"
	case KindInvalidCompression:
		return "invalid-compression"
	case KindInvalidDataType:
		return "invalid-data-type"
	case KindDimensionOutOfBounds:
		return "dimension-out-of-bounds"
	case KindMismatchingCubeDimensionLength:
		return "mismatching-cube-dimension-length"
	case KindChunkWrongElementCount:
		return "chunk-wrong-number-of-elements"
	case KindOffsetAndCountExceedDimension:
		return "offset-and-count-exceed-dimension"
	case KindDimensionMustBeGreaterThanZero:
		return "dimension-must-be-greater-than-zero"
	case KindChunkDimSmallerThanOverall:
		return "chunk-dim-smaller-than-overall"
	case KindDecoder:
		return "decoder-error"
	case KindTaskCancelled:
		return "task-cancelled"
	case KindArrayNotContiguous:
		return "array-not-contiguous"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by this module. It carries a
// Kind for programmatic dispatch and wraps an underlying cause when one
// exists (a wrapped OS error for KindIO, a codec's own message for
// KindDecoder, and so on).
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.cause)
	}
	if e.msg != "" {
		return fmt.Sprintf("%s: %s", e.kind, e.msg)
	}
	return e.kind.String()
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// New builds a Kind-tagged error whose message is formatted by
// github.com/pkg/errors.Errorf; only the message text is kept, not the
// stack trace Errorf records.
func New(kind Kind, format string, args ...any) error {
	return &Error{kind: kind, msg: pkgerrors.Errorf(format, args...).Error()}
}

// Wrap attaches kind and a message to an existing error, keeping it as the
// Unwrap()-able cause.
func Wrap(kind Kind, cause error, format string, args ...any) error {
	if cause == nil {
		return New(kind, format, args...)
	}
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), cause: cause}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if pkgerrors.As(err, &e) {
		return e.kind == kind
	}
	return false
}

// As is re-exported for convenience so callers need only import this
// package when working with omfiles-go errors.
func As(err error, target any) bool { return pkgerrors.As(err, target) }

// WithStack re-exports github.com/pkg/errors.WithStack for call sites that
// just need to attach a stack trace to a foreign error without a Kind.
func WithStack(err error) error { return pkgerrors.WithStack(err) }
