package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeriesSliceClamps(t *testing.T) {
	require := require.New(t)

	s := NewSeries("a", Int64, []interface{}{int64(1), int64(2), int64(3)})

	require.Equal(2, s.Slice(1, 10).Len())
	require.Equal(0, s.Slice(5, 2).Len())
	require.Equal(3, s.Slice(0, -1).Len())
	require.Equal([]interface{}{int64(2)}, s.Slice(1, 1).Values())
}

func TestSeriesTake(t *testing.T) {
	require := require.New(t)

	s := NewSeries("a", Utf8, []interface{}{"x", "y", "z"})
	taken := s.Take([]int{2, 0, 2})
	require.Equal([]interface{}{"z", "x", "z"}, taken.Values())
}

func TestSeriesExtendPromotes(t *testing.T) {
	require := require.New(t)

	ints := NewSeries("a", Int64, []interface{}{int64(1), nil})
	floats := NewSeries("a", Float64, []interface{}{2.5})

	ext, err := ints.Extend(floats)
	require.NoError(err)
	require.Equal(Float64.Name(), ext.Type().Name())
	require.Equal([]interface{}{1.0, nil, 2.5}, ext.Values())

	strs := NewSeries("a", Utf8, []interface{}{"x"})
	_, err = ints.Extend(strs)
	require.Error(err)
}

func TestSeriesNullCount(t *testing.T) {
	require := require.New(t)

	s := NewSeries("a", Int64, []interface{}{int64(1), nil, nil, int64(4)})
	require.Equal(2, s.NullCount())
	require.True(s.IsNull(1))
	require.False(s.IsNull(0))
}

func TestSeriesOfConverts(t *testing.T) {
	require := require.New(t)

	s, err := NewSeriesOf("a", Int64, []interface{}{"1", 2, int64(3), nil})
	require.NoError(err)
	require.Equal([]interface{}{int64(1), int64(2), int64(3), nil}, s.Values())

	_, err = NewSeriesOf("a", Int64, []interface{}{"nope"})
	require.Error(err)
}
