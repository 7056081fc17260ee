package readstata13

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustColumn(t *testing.T, name string, typ VarType, data interface{}, missing []bool) *Column {
	t.Helper()
	c, err := NewColumn(name, typ, data, missing)
	require.NoError(t, err)
	return c
}

// sampleDataset builds a three-row dataset exercising every numeric
// type, a fixed string, a value-label table and characteristics.
// Masked cells hold the canonical sentinel for their type so that a
// write/read cycle reproduces the dataset exactly.
func sampleDataset(t *testing.T, release int) *Dataset {
	t.Helper()
	ds := &Dataset{
		Label:     "test data",
		TimeStamp: "04 Jul 2016 10:05",
	}
	ds.Columns = []*Column{
		mustColumn(t, "age", ByteType,
			[]int8{5, byteSentinel, -127}, []bool{false, true, false}),
		mustColumn(t, "count", ShortIntType,
			[]int16{-32767, 32740, shortSentinel}, []bool{false, false, true}),
		mustColumn(t, "income", IntType,
			[]int32{12345, intSentinel(release), -2147483647}, []bool{false, true, false}),
		mustColumn(t, "ratio", FloatType,
			[]float32{1.5, -maxRangeFloat, floatSentinel}, []bool{false, false, true}),
		mustColumn(t, "weight", DoubleType,
			[]float64{80.25, doubleSentinel, maxRangeDouble}, []bool{false, true, false}),
		mustColumn(t, "city", FixedStrType(8),
			[]string{"Essen", "", "Bochum"}, nil),
	}
	ds.Columns[0].ValueLabelName = "sexlbl"
	ds.Columns[0].Format = "%8.0g"
	ds.Columns[0].VarLabel = "age in years"
	ds.Columns[5].Format = "%8s"

	ds.LabelSets = []*LabelSet{
		{Name: "sexlbl", Entries: map[int32]string{1: "male", 2: "female", 9: "missing"}},
	}
	ds.Characteristics = []Characteristic{
		{VarName: "age", Name: "note", Contents: "hello"},
		{VarName: "weight", Name: "note", Contents: "world"},
	}
	return ds
}

// requireDatasetEqual compares everything but the release and byte
// order, which vary with the write target.
func requireDatasetEqual(t *testing.T, want, got *Dataset) {
	t.Helper()
	require.Equal(t, want.Label, got.Label)
	require.Equal(t, want.TimeStamp, got.TimeStamp)
	require.Equal(t, len(want.Columns), len(got.Columns))
	for j := range want.Columns {
		require.Equal(t, want.Columns[j], got.Columns[j], "column %s", want.Columns[j].Name)
	}
	require.Equal(t, want.LabelSets, got.LabelSets)
	require.Equal(t, want.Characteristics, got.Characteristics)
	require.Equal(t, want.StrLs, got.StrLs)
}

func TestRoundTripAllReleases(t *testing.T) {
	for _, release := range supportedReleases {
		t.Run(strconv.Itoa(release), func(t *testing.T) {
			in := sampleDataset(t, release)

			var buf bytes.Buffer
			require.NoError(t, NewWriter(&buf, release).Write(in))

			out, err := NewReader(bytes.NewReader(buf.Bytes())).Read()
			require.NoError(t, err)
			require.Equal(t, release, out.Release)
			require.Equal(t, binary.ByteOrder(binary.LittleEndian), out.ByteOrder)

			// Releases 102-104 carry no timestamp, characteristics or
			// value labels.
			want := sampleDataset(t, release)
			p, _ := profileFor(release)
			if !p.timestamp {
				want.TimeStamp = ""
			}
			if p.charLenWidth == 0 {
				want.Characteristics = nil
			}
			if p.labelSetNameLen == 0 {
				want.LabelSets = nil
			}
			requireDatasetEqual(t, want, out)
		})
	}
}

// A second write of a decoded file must reproduce the first byte for
// byte: the writer canonicalizes everything the reader trims.
func TestRewriteIsByteIdentical(t *testing.T) {
	for _, release := range []int{105, 108, 112, 115, 117, 118} {
		t.Run(strconv.Itoa(release), func(t *testing.T) {
			in := sampleDataset(t, release)

			var first bytes.Buffer
			require.NoError(t, NewWriter(&first, release).Write(in))

			out, err := NewReader(bytes.NewReader(first.Bytes())).Read()
			require.NoError(t, err)

			var second bytes.Buffer
			require.NoError(t, NewWriter(&second, release).Write(out))
			require.Equal(t, first.Bytes(), second.Bytes())
		})
	}
}

func TestHeaderBytes115(t *testing.T) {
	ds := &Dataset{
		Columns: []*Column{
			mustColumn(t, "a", ByteType, []int8{5}, []bool{false}),
			mustColumn(t, "b", FixedStrType(3), []string{"foo"}, nil),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, 115).Write(ds))

	b := buf.Bytes()
	require.Equal(t, []byte{115, 2, 1, 0}, b[:4])
	// K and N in little-endian.
	require.Equal(t, uint16(2), binary.LittleEndian.Uint16(b[4:6]))
	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(b[6:10]))
	// The single data row is the last thing in the file.
	require.Equal(t, []byte{5, 'f', 'o', 'o'}, b[len(b)-4:])

	out, err := NewReader(bytes.NewReader(b)).Read()
	require.NoError(t, err)
	requireDatasetEqual(t, ds, out)
}

func TestDoubleCellEncoding117(t *testing.T) {
	ds := &Dataset{
		Columns: []*Column{
			mustColumn(t, "x", DoubleType,
				[]float64{1.5, doubleSentinel}, []bool{false, true}),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, 117).Write(ds))

	i := bytes.Index(buf.Bytes(), []byte("<data>"))
	require.GreaterOrEqual(t, i, 0)
	cells := buf.Bytes()[i+6 : i+22]
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0xF8, 0x3F}, cells[:8])
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0xE0, 0x7F}, cells[8:])

	out, err := NewReader(bytes.NewReader(buf.Bytes())).Read()
	require.NoError(t, err)
	col := out.Columns[0]
	require.Equal(t, []float64{1.5, doubleSentinel}, col.Data())
	require.Equal(t, []bool{false, true}, col.Missing())
}

func TestUnsupportedReleases(t *testing.T) {
	var ur *UnsupportedReleaseError

	_, err := NewReader(bytes.NewReader([]byte("<stata_dta><header><release>116"))).Read()
	require.ErrorAs(t, err, &ur)
	require.Equal(t, 116, ur.Release)

	_, err = NewReader(bytes.NewReader([]byte{109, 2, 1, 0})).Read()
	require.ErrorAs(t, err, &ur)
	require.Equal(t, 109, ur.Release)

	_, err = NewReader(bytes.NewReader([]byte{99, 2, 1, 0})).Read()
	require.ErrorAs(t, err, &ur)
	require.Equal(t, 99, ur.Release)
}

func TestUnsupportedByteOrder(t *testing.T) {
	var ub *UnsupportedByteOrderError

	_, err := NewReader(bytes.NewReader([]byte{115, 3, 1, 0})).Read()
	require.ErrorAs(t, err, &ub)
	require.Equal(t, "3", ub.Found)

	_, err = NewReader(bytes.NewReader(
		[]byte("<stata_dta><header><release>117</release><byteorder>XSF"))).Read()
	require.ErrorAs(t, err, &ub)
	require.Equal(t, "XSF", ub.Found)
}

// Cross-endian reads must produce the same in-memory dataset.
func TestEndianRoundTrip(t *testing.T) {
	for _, release := range []int{108, 114, 117, 118} {
		t.Run(strconv.Itoa(release), func(t *testing.T) {
			in := sampleDataset(t, release)
			in.ByteOrder = binary.BigEndian

			var msf bytes.Buffer
			require.NoError(t, NewWriter(&msf, release).Write(in))

			lsfIn := sampleDataset(t, release)
			var lsf bytes.Buffer
			require.NoError(t, NewWriter(&lsf, release).Write(lsfIn))
			require.NotEqual(t, lsf.Bytes(), msf.Bytes())

			out, err := NewReader(bytes.NewReader(msf.Bytes())).Read()
			require.NoError(t, err)
			require.Equal(t, binary.ByteOrder(binary.BigEndian), out.ByteOrder)

			fromLSF, err := NewReader(bytes.NewReader(lsf.Bytes())).Read()
			require.NoError(t, err)
			requireDatasetEqual(t, fromLSF, out)
		})
	}
}

func TestWriteStrLBelowRelease117Fails(t *testing.T) {
	ds := &Dataset{
		Columns: []*Column{
			mustColumn(t, "s", StrLType, []string{strlId(1, 1)}, nil),
		},
		StrLs: []*StrL{{V: 1, O: 1, T: 130, Payload: []byte("hi\x00")}},
	}

	var buf bytes.Buffer
	err := NewWriter(&buf, 115).Write(ds)
	var ut *UnrepresentableTypeError
	require.ErrorAs(t, err, &ut)
	require.Equal(t, StrLType, ut.Type)
	require.Zero(t, buf.Len())
}

func TestPreserveSentinel(t *testing.T) {
	ds := &Dataset{
		Columns: []*Column{
			mustColumn(t, "a", ByteType, []int8{7, byteSentinel}, []bool{false, true}),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, 115).Write(ds))

	rdr := NewReader(bytes.NewReader(buf.Bytes()))
	rdr.PreserveSentinel = true
	out, err := rdr.Read()
	require.NoError(t, err)

	col := out.Columns[0]
	require.Equal(t, []int8{7, byteSentinel}, col.Data())
	require.Equal(t, []bool{false, false}, col.Missing())
}

func TestTruncatedInput(t *testing.T) {
	in := sampleDataset(t, 117)
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, 117).Write(in))

	_, err := NewReader(bytes.NewReader(buf.Bytes()[:buf.Len()/2])).Read()
	var tr *TruncatedInputError
	require.ErrorAs(t, err, &tr)
}

func TestMalformedTag(t *testing.T) {
	in := sampleDataset(t, 117)
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, 117).Write(in))

	b := buf.Bytes()
	i := bytes.Index(b, []byte("<varnames>"))
	require.GreaterOrEqual(t, i, 0)
	b[i+1] = 'x'

	_, err := NewReader(bytes.NewReader(b)).Read()
	var mt *MalformedTagError
	require.ErrorAs(t, err, &mt)
	require.Equal(t, "</variable_types><varnames>", mt.Expected)
}

func TestSchemaViolations(t *testing.T) {
	var sv *SchemaViolationError

	// Duplicate variable names.
	ds := &Dataset{Columns: []*Column{
		mustColumn(t, "a", ByteType, []int8{1}, nil),
		mustColumn(t, "a", ByteType, []int8{2}, nil),
	}}
	err := NewWriter(&bytes.Buffer{}, 115).Write(ds)
	require.ErrorAs(t, err, &sv)

	// Ragged columns.
	ds = &Dataset{Columns: []*Column{
		mustColumn(t, "a", ByteType, []int8{1, 2}, nil),
		mustColumn(t, "b", ByteType, []int8{1}, nil),
	}}
	err = NewWriter(&bytes.Buffer{}, 115).Write(ds)
	require.ErrorAs(t, err, &sv)

	// A strL reference with no pool entry.
	ds = &Dataset{Columns: []*Column{
		mustColumn(t, "s", StrLType, []string{strlId(3, 4)}, nil),
	}}
	err = NewWriter(&bytes.Buffer{}, 117).Write(ds)
	require.ErrorAs(t, err, &sv)

	// A malformed timestamp.
	ds = &Dataset{TimeStamp: "yesterday"}
	err = NewWriter(&bytes.Buffer{}, 115).Write(ds)
	require.ErrorAs(t, err, &sv)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile("testdata/no_such_file.dta")
	var io *IOError
	require.ErrorAs(t, err, &io)
}
