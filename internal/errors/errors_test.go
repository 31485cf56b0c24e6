package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/terraputix/omfiles-go/internal/errors"
)

func TestKindString(t *testing.T) {
	cases := []struct {
		kind errors.Kind
		want string
	}{
		{errors.KindFileTooSmall, "file-too-small"},
		{errors.KindNotAnOmFile, "not-an-om-file"},
		{errors.KindDecoder, "decoder-error"},
	}
	for _, c := range cases {
		if got := c.kind.String(); got != c.want {
			t.Fatalf("Kind.String() = %q, want %q", got, c.want)
		}
	}
}

func TestIs(t *testing.T) {
	err := errors.New(errors.KindNotAnOmFile, "bad magic")
	if !errors.Is(err, errors.KindNotAnOmFile) {
		t.Fatalf("expected Is to match KindNotAnOmFile")
	}
	if errors.Is(err, errors.KindIO) {
		t.Fatalf("did not expect Is to match KindIO")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := errors.Wrap(errors.KindIO, cause, "reading chunk")

	if !errors.Is(err, errors.KindIO) {
		t.Fatalf("expected wrapped error to carry KindIO")
	}
	if !stderrors.Is(err, cause) {
		t.Fatalf("expected stdlib errors.Is to see through to cause")
	}
}
