package reader

import (
	"math"
	"testing"

	"github.com/terraputix/omfiles-go/backend/membackend"
	"github.com/terraputix/omfiles-go/codec"
	"github.com/terraputix/omfiles-go/internal/errors"
	"github.com/terraputix/omfiles-go/om"
	"github.com/terraputix/omfiles-go/writer"
)

func writeSimpleArray(t *testing.T, dims, chunkShape []uint64, family codec.Family, scale float64, values []float64) *membackend.Backend {
	t.Helper()
	be := membackend.New()
	fw := writer.NewFile(be)

	aw, err := fw.PrepareArray(dims, chunkShape, family, om.DataTypeFloat32, scale, 0, 0)
	if err != nil {
		t.Fatalf("PrepareArray: %v", err)
	}
	if err := aw.WriteData(values, dims, make([]uint64, len(dims)), dims); err != nil {
		t.Fatalf("WriteData: %v", err)
	}
	v, err := aw.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	v.Name = "data"
	root, err := fw.WriteArray(v)
	if err != nil {
		t.Fatalf("WriteArray: %v", err)
	}
	if err := fw.WriteTrailer(root); err != nil {
		t.Fatalf("WriteTrailer: %v", err)
	}
	return be
}

func TestReaderFullRoundTripAndPointReads(t *testing.T) {
	values := make([]float64, 25)
	for i := range values {
		values[i] = float64(i)
	}
	be := writeSimpleArray(t, []uint64{5, 5}, []uint64{2, 2}, codec.FamilyInt16DeltaPFor, 1, values)

	f, err := Open(be)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	root, err := f.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}

	full, err := root.ReadArray([]uint64{0, 0}, []uint64{5, 5}, []uint64{0, 0}, []uint64{5, 5}, DefaultIOLimits)
	if err != nil {
		t.Fatalf("ReadArray (full): %v", err)
	}
	for i := range values {
		if math.Abs(full[i]-values[i]) > 1 {
			t.Fatalf("element %d = %v, want %v", i, full[i], values[i])
		}
	}

	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			got, err := root.ReadArray([]uint64{uint64(x), uint64(y)}, []uint64{1, 1}, []uint64{0, 0}, []uint64{1, 1}, DefaultIOLimits)
			if err != nil {
				t.Fatalf("ReadArray (%d,%d): %v", x, y, err)
			}
			want := float64(x*5 + y)
			if math.Abs(got[0]-want) > 1 {
				t.Fatalf("point (%d,%d) = %v, want %v", x, y, got[0], want)
			}
		}
	}

	cube, err := root.ReadArray([]uint64{1, 1}, []uint64{3, 3}, []uint64{0, 0}, []uint64{3, 3}, DefaultIOLimits)
	if err != nil {
		t.Fatalf("ReadArray (cube): %v", err)
	}
	for i, v := range cube {
		want := float64((1+i/3)*5 + (1 + i%3))
		if math.Abs(v-want) > 1 {
			t.Fatalf("cube element %d = %v, want %v", i, v, want)
		}
	}
}

func TestReaderScalarChildren(t *testing.T) {
	be := membackend.New()
	fw := writer.NewFile(be)

	int32Child, err := fw.WriteScalar(&om.ScalarVariable{Name: "int32", DataType: om.DataTypeInt32, Raw: packInt32(12323154)})
	if err != nil {
		t.Fatalf("WriteScalar int32: %v", err)
	}
	doubleChild, err := fw.WriteScalar(&om.ScalarVariable{Name: "double", DataType: om.DataTypeFloat64, Raw: packFloat64(12323154.0)})
	if err != nil {
		t.Fatalf("WriteScalar double: %v", err)
	}

	dims := []uint64{3, 3, 3}
	aw, err := fw.PrepareArray(dims, dims, codec.FamilyFloatXorFpx, om.DataTypeFloat32, 0, 0, 0)
	if err != nil {
		t.Fatalf("PrepareArray: %v", err)
	}
	values := make([]float64, 27)
	for i := range values {
		values[i] = float64(i)
	}
	if err := aw.WriteData(values, dims, []uint64{0, 0, 0}, dims); err != nil {
		t.Fatalf("WriteData: %v", err)
	}
	v, err := aw.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	v.Name = "cube"
	v.Children = []om.Child{int32Child, doubleChild}
	root, err := fw.WriteArray(v)
	if err != nil {
		t.Fatalf("WriteArray: %v", err)
	}
	if err := fw.WriteTrailer(root); err != nil {
		t.Fatalf("WriteTrailer: %v", err)
	}

	f, err := Open(be)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	node, err := f.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if node.NumChildren() != 2 {
		t.Fatalf("NumChildren = %d, want 2", node.NumChildren())
	}

	c0, err := node.Child(0)
	if err != nil {
		t.Fatalf("Child(0): %v", err)
	}
	i32, err := c0.ReadInt32()
	if err != nil {
		t.Fatalf("ReadInt32: %v", err)
	}
	if i32 != 12323154 {
		t.Fatalf("child 0 = %d, want 12323154", i32)
	}

	c1, err := node.Child(1)
	if err != nil {
		t.Fatalf("Child(1): %v", err)
	}
	f64, err := c1.ReadFloat64()
	if err != nil {
		t.Fatalf("ReadFloat64: %v", err)
	}
	if f64 != 12323154.0 {
		t.Fatalf("child 1 = %v, want 12323154.0", f64)
	}

	full, err := node.ReadFullArray(DefaultIOLimits)
	if err != nil {
		t.Fatalf("ReadFullArray: %v", err)
	}
	for i := range values {
		if float32(full[i]) != float32(values[i]) {
			t.Fatalf("element %d = %v, want %v", i, full[i], values[i])
		}
	}
}

func TestReaderOffCentreWrite(t *testing.T) {
	be := membackend.New()
	fw := writer.NewFile(be)

	dims := []uint64{5, 5}
	aw, err := fw.PrepareArray(dims, dims, codec.FamilyFloatXorFpx, om.DataTypeFloat32, 0, 0, 0)
	if err != nil {
		t.Fatalf("PrepareArray: %v", err)
	}

	source := make([]float64, 7*7)
	for i := range source {
		source[i] = math.NaN()
	}
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			source[(r+1)*7+(c+1)] = float64(r*5 + c)
		}
	}
	if err := aw.WriteData(source, []uint64{7, 7}, []uint64{1, 1}, []uint64{5, 5}); err != nil {
		t.Fatalf("WriteData: %v", err)
	}
	v, err := aw.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	v.Name = "data"
	root, err := fw.WriteArray(v)
	if err != nil {
		t.Fatalf("WriteArray: %v", err)
	}
	if err := fw.WriteTrailer(root); err != nil {
		t.Fatalf("WriteTrailer: %v", err)
	}

	f, err := Open(be)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	node, err := f.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	got, err := node.ReadArray([]uint64{0, 0}, []uint64{5, 5}, []uint64{0, 0}, []uint64{5, 5}, DefaultIOLimits)
	if err != nil {
		t.Fatalf("ReadArray: %v", err)
	}
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			want := float64(r*5 + c)
			if float32(got[r*5+c]) != float32(want) {
				t.Fatalf("element (%d,%d) = %v, want %v", r, c, got[r*5+c], want)
			}
		}
	}
}

func TestReaderNaNPreservation(t *testing.T) {
	values := make([]float64, 25)
	for i := range values {
		values[i] = math.NaN()
	}
	be := writeSimpleArray(t, []uint64{5, 5}, []uint64{2, 2}, codec.FamilyInt16DeltaPFor, 1, values)

	f, err := Open(be)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	root, err := f.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	got, err := root.ReadArray([]uint64{1, 1}, []uint64{3, 3}, []uint64{0, 0}, []uint64{3, 3}, DefaultIOLimits)
	if err != nil {
		t.Fatalf("ReadArray: %v", err)
	}
	for i, v := range got {
		if !math.IsNaN(v) {
			t.Fatalf("element %d = %v, want NaN", i, v)
		}
	}
}

func TestOpenRejectsInvalidFiles(t *testing.T) {
	text := membackend.NewFromBytes([]byte("this is just plain text!"))
	if _, err := Open(text); !errors.Is(err, errors.KindFileTooSmall) {
		t.Fatalf("Open(24-byte text) error = %v, want file-too-small", err)
	}

	nonMagic := membackend.NewFromBytes(make([]byte, 92))
	if _, err := Open(nonMagic); !errors.Is(err, errors.KindNotAnOmFile) {
		t.Fatalf("Open(92-byte non-magic) error = %v, want not-an-om-file", err)
	}
}

func TestPlannerStress(t *testing.T) {
	dims := []uint64{100, 100, 10}
	chunkShape := []uint64{2, 2, 2}
	n := int(om.ElementCount(dims))
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i)
	}
	be := writeSimpleArray(t, dims, chunkShape, codec.FamilyFloatXorFpx, 0, values)

	f, err := Open(be)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	root, err := f.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}

	full, err := root.ReadArray([]uint64{0, 0, 0}, dims, []uint64{0, 0, 0}, dims, DefaultIOLimits)
	if err != nil {
		t.Fatalf("ReadArray (full): %v", err)
	}
	for i := range values {
		if float32(full[i]) != float32(values[i]) {
			t.Fatalf("element %d = %v, want %v", i, full[i], values[i])
		}
	}

	point, err := root.ReadArray([]uint64{50, 20, 1}, []uint64{1, 1, 1}, []uint64{0, 0, 0}, []uint64{1, 1, 1}, DefaultIOLimits)
	if err != nil {
		t.Fatalf("ReadArray (point): %v", err)
	}
	wantIdx := (uint64(50)*100+20)*10 + 1
	if float32(point[0]) != float32(values[wantIdx]) {
		t.Fatalf("point = %v, want %v", point[0], values[wantIdx])
	}

	noMerge := IOLimits{MergeBytes: 0, MaxBytes: 0}
	fullNoMerge, err := root.ReadArray([]uint64{0, 0, 0}, dims, []uint64{0, 0, 0}, dims, noMerge)
	if err != nil {
		t.Fatalf("ReadArray (no merge): %v", err)
	}
	for i := range full {
		if full[i] != fullNoMerge[i] {
			t.Fatalf("element %d differs between default and no-merge limits: %v vs %v", i, full[i], fullNoMerge[i])
		}
	}
}
