package readstata13

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func strlDataset(t *testing.T) *Dataset {
	t.Helper()
	return &Dataset{
		Columns: []*Column{
			mustColumn(t, "notes", StrLType,
				[]string{strlId(1, 1), strlId(1, 2)}, nil),
		},
		StrLs: []*StrL{
			{V: 1, O: 1, T: 130, Payload: []byte("hello\x00")},
			{V: 1, O: 2, T: 129, Payload: []byte{0xDE, 0xAD, 0x00, 0xBE}},
		},
	}
}

func TestStrLRoundTrip(t *testing.T) {
	for _, release := range []int{117, 118} {
		t.Run(strconv.Itoa(release), func(t *testing.T) {
			in := strlDataset(t)

			var buf bytes.Buffer
			require.NoError(t, NewWriter(&buf, release).Write(in))

			out, err := NewReader(bytes.NewReader(buf.Bytes())).Read()
			require.NoError(t, err)
			requireDatasetEqual(t, in, out)

			cells, ok := out.Columns[0].Strings()
			require.True(t, ok)
			require.Equal(t, "00000000010000000001", cells[0])

			v, ok := out.StrLValue(cells[0])
			require.True(t, ok)
			require.Equal(t, "hello", v)

			// Binary payloads keep every byte, including interior nulls.
			v, ok = out.StrLValue(cells[1])
			require.True(t, ok)
			require.Equal(t, "\xDE\xAD\x00\xBE", v)
		})
	}
}

// Pool entries nothing in the data section references are not written.
func TestStrLUnreferencedEntriesDropped(t *testing.T) {
	in := strlDataset(t)
	in.StrLs = append(in.StrLs, &StrL{V: 7, O: 7, T: 130, Payload: []byte("orphan\x00")})

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, 117).Write(in))

	out, err := NewReader(bytes.NewReader(buf.Bytes())).Read()
	require.NoError(t, err)
	require.Len(t, out.StrLs, 2)
	_, ok := out.StrLValue(strlId(7, 7))
	require.False(t, ok)
}

func TestStrLIdFormat(t *testing.T) {
	s := &StrL{V: 1, O: 1}
	require.Equal(t, "00000000010000000001", s.Id())

	v, o, err := parseStrlRef(s.Id())
	require.NoError(t, err)
	require.Equal(t, int32(1), v)
	require.Equal(t, int32(1), o)

	_, _, err = parseStrlRef("short")
	require.Error(t, err)
	_, _, err = parseStrlRef("00000000xy0000000001")
	require.Error(t, err)
}

func TestStrLBadStorageFlag(t *testing.T) {
	in := strlDataset(t)
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, 117).Write(in))

	b := buf.Bytes()
	i := bytes.Index(b, []byte("GSO"))
	require.GreaterOrEqual(t, i, 0)
	b[i+11] = 17 // the t flag follows GSO and the (v,o) pair

	_, err := NewReader(bytes.NewReader(b)).Read()
	var ic *InconsistentCountsError
	require.ErrorAs(t, err, &ic)
}
