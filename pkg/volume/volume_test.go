package volume

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequential returns a depth x rows x cols volume whose labels are the
// flattened indices
func sequential(depth, rows, cols int) *LabelVolume {
	v := New3D(depth, rows, cols)
	for idx := range v.Data {
		v.Data[idx] = uint32(idx)
	}
	return v
}

func TestNewVolumes(t *testing.T) {
	v2 := New2D(3, 4)
	assert.Equal(t, 2, v2.Rank)
	assert.Equal(t, 1, v2.Depth)
	assert.Equal(t, 12, v2.Len())
	assert.NoError(t, v2.Validate())

	v3 := New3D(2, 3, 4)
	assert.Equal(t, 3, v3.Rank)
	assert.Equal(t, 24, v3.Len())
	assert.NoError(t, v3.Validate())
}

func TestFromValidates(t *testing.T) {
	_, err := From2D(2, 2, make([]uint32, 3))
	assert.True(t, errors.Is(err, ErrShape))

	_, err = From3D(2, 2, 0, nil)
	assert.True(t, errors.Is(err, ErrShape))

	v, err := From3D(1, 2, 2, []uint32{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, uint32(4), v.At(0, 1, 1))
}

func TestValidate(t *testing.T) {
	cases := []*LabelVolume{
		nil,
		{Data: []uint32{1}, Depth: 1, Rows: 1, Cols: 1, Rank: 1},
		{Data: []uint32{1, 2}, Depth: 2, Rows: 1, Cols: 1, Rank: 2},
		{Data: []uint32{1}, Depth: 1, Rows: -1, Cols: 1, Rank: 3},
		{Depth: 1, Rows: 1 << 32, Cols: 1 << 32, Rank: 2},
		{Depth: 1 << 22, Rows: 1 << 21, Cols: 1 << 21, Rank: 3},
	}
	for i, v := range cases {
		assert.ErrorIs(t, v.Validate(), ErrShape, "case %d", i)
	}
}

func TestIndexAndSet(t *testing.T) {
	v := New3D(2, 3, 4)
	v.Set(1, 2, 3, 9)
	assert.Equal(t, 23, v.Index(1, 2, 3))
	assert.Equal(t, uint32(9), v.Data[23])
	assert.Equal(t, uint32(9), v.At(1, 2, 3))
}

func TestLabels(t *testing.T) {
	v, err := From2D(2, 3, []uint32{5, 1, 5, 3, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 3, 5}, v.Labels())
}

func TestRelabel(t *testing.T) {
	v, err := From2D(1, 4, []uint32{1, 2, 3, 4})
	require.NoError(t, err)

	out := v.Relabel(map[uint32]uint32{2: 1, 4: 3})
	assert.Equal(t, []uint32{1, 1, 3, 3}, out.Data)
	assert.Equal(t, []uint32{1, 2, 3, 4}, v.Data, "input must not change")
	assert.Equal(t, v.Rank, out.Rank)
}

func TestExtractSlice(t *testing.T) {
	v := sequential(2, 3, 4)

	z, err := v.ExtractSlice("z", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, z.Rows)
	assert.Equal(t, 4, z.Cols)
	assert.Equal(t, v.At(1, 2, 3), z.At(0, 2, 3))

	y, err := v.ExtractSlice("y", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, y.Rows)
	assert.Equal(t, 4, y.Cols)
	assert.Equal(t, v.At(1, 2, 0), y.At(0, 1, 0))

	x, err := v.ExtractSlice("X", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, x.Rows)
	assert.Equal(t, 2, x.Cols)
	assert.Equal(t, v.At(1, 2, 3), x.At(0, 2, 1))
}

func TestExtractSliceErrors(t *testing.T) {
	v := sequential(2, 3, 4)
	for _, tc := range []struct {
		axis string
		pos  int
	}{{"z", 2}, {"y", 3}, {"x", 4}, {"x", -1}, {"q", 0}} {
		_, err := v.ExtractSlice(tc.axis, tc.pos)
		assert.Error(t, err, "axis %s position %d", tc.axis, tc.pos)
	}
}

func TestAxisLength(t *testing.T) {
	v := New3D(2, 3, 4)
	for axis, want := range map[string]int{"x": 4, "y": 3, "z": 2} {
		got, err := v.AxisLength(axis)
		require.NoError(t, err)
		assert.Equal(t, want, got, axis)
	}
	_, err := v.AxisLength("t")
	assert.Error(t, err)
}
