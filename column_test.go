package readstata13

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewColumnTypeMismatch(t *testing.T) {
	_, err := NewColumn("x", ByteType, []float64{1}, nil)
	var sv *SchemaViolationError
	require.ErrorAs(t, err, &sv)

	_, err = NewColumn("x", FixedStrType(0), []string{"a"}, nil)
	require.ErrorAs(t, err, &sv)

	_, err = NewColumn("x", ByteType, []int8{1, 2}, []bool{true})
	require.ErrorAs(t, err, &sv)
}

func TestColumnAccessors(t *testing.T) {
	c := mustColumn(t, "x", ShortIntType, []int16{3, 4}, []bool{false, true})
	require.Equal(t, 2, c.Length())
	require.Equal(t, []bool{false, true}, c.Missing())
	require.False(t, c.IsMissing(0))
	require.True(t, c.IsMissing(1))

	_, ok := c.Strings()
	require.False(t, ok)

	s := mustColumn(t, "s", FixedStrType(4), []string{"ab", "cd"}, nil)
	str, ok := s.Strings()
	require.True(t, ok)
	require.Equal(t, []string{"ab", "cd"}, str)
	require.False(t, s.IsMissing(0))
}

func TestUpcastNumeric(t *testing.T) {
	cases := []*Column{
		mustColumn(t, "b", ByteType, []int8{1, -2}, nil),
		mustColumn(t, "i", ShortIntType, []int16{1, -2}, nil),
		mustColumn(t, "l", IntType, []int32{1, -2}, nil),
		mustColumn(t, "f", FloatType, []float32{1, -2}, nil),
		mustColumn(t, "d", DoubleType, []float64{1, -2}, nil),
	}
	for _, c := range cases {
		v, err := c.UpcastNumeric()
		require.NoError(t, err)
		require.Equal(t, []float64{1, -2}, v)
	}

	s := mustColumn(t, "s", FixedStrType(2), []string{"ab"}, nil)
	_, err := s.UpcastNumeric()
	require.Error(t, err)
}
