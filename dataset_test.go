package readstata13

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStrLValueAndId(t *testing.T) {
	ds := &Dataset{
		StrLs: []*StrL{
			{V: 2, O: 30, T: 130, Payload: []byte("text\x00")},
			{V: 2, O: 31, T: 129, Payload: []byte("raw")},
		},
	}

	v, ok := ds.StrLValue(strlId(2, 30))
	require.True(t, ok)
	require.Equal(t, "text", v)

	v, ok = ds.StrLValue(strlId(2, 31))
	require.True(t, ok)
	require.Equal(t, "raw", v)

	_, ok = ds.StrLValue(strlId(9, 9))
	require.False(t, ok)
}

func TestDatasetCheck(t *testing.T) {
	cases := []struct {
		name string
		ds   *Dataset
	}{
		{"empty variable name", &Dataset{Columns: []*Column{
			mustColumn(t, "x", ByteType, []int8{1}, nil),
			{Name: "", Type: ByteType, data: []int8{1}},
		}}},
		{"duplicate label set", &Dataset{LabelSets: []*LabelSet{
			{Name: "l", Entries: map[int32]string{1: "a"}},
			{Name: "l", Entries: map[int32]string{2: "b"}},
		}}},
		{"duplicate strL entry", &Dataset{StrLs: []*StrL{
			{V: 1, O: 1, T: 130, Payload: []byte("a\x00")},
			{V: 1, O: 1, T: 130, Payload: []byte("b\x00")},
		}}},
		{"bad strL flag", &Dataset{StrLs: []*StrL{
			{V: 1, O: 1, T: 7, Payload: []byte("a")},
		}}},
		{"unparseable strL reference", &Dataset{Columns: []*Column{
			mustColumn(t, "s", StrLType, []string{"not-a-reference-at-all"}, nil),
		}}},
	}

	for _, c := range cases {
		err := c.ds.check()
		var sv *SchemaViolationError
		require.ErrorAs(t, err, &sv, c.name)
	}
}

func TestWriteFileReadFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "sample.dta")

	in := sampleDataset(t, 118)
	require.NoError(t, WriteFile(name, in, 118))

	out, err := ReadFile(name)
	require.NoError(t, err)
	require.Equal(t, 118, out.Release)
	requireDatasetEqual(t, in, out)
}

func TestWriteFileUnsupportedRelease(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "bad.dta")

	err := WriteFile(name, &Dataset{}, 116)
	var ur *UnsupportedReleaseError
	require.ErrorAs(t, err, &ur)
}
