package volumeio

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supervoxelrag/pkg/volume"
)

// writePNG saves img to dir/name
func writePNG(t *testing.T, dir, name string, img image.Image) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// createTestImage creates a 16-bit grayscale image with the given pattern
func createTestImage(width, height int, pattern func(x, y int) uint16) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: pattern(x, y)})
		}
	}
	return img
}

// TestExtractNumber verifies the extraction of numeric parts from filenames
func TestExtractNumber(t *testing.T) {
	testCases := []struct {
		filename string
		expected int
	}{
		{"slice_1.png", 1},
		{"slice_023.png", 23},
		{"labels456.png", 456},
		{"not_a_number.png", 0},
		{"mixed123text456.png", 123456},
		{"slice_99999999999999999999999.png", math.MaxInt},
	}

	for _, tc := range testCases {
		result := extractNumber(tc.filename)
		if result != tc.expected {
			t.Errorf("extractNumber(%s): expected %d, got %d", tc.filename, tc.expected, result)
		}
	}
}

func TestLoadLabelImage(t *testing.T) {
	dir := t.TempDir()
	img := createTestImage(3, 2, func(x, y int) uint16 { return uint16(1000 + y*3 + x) })
	writePNG(t, dir, "labels.png", img)

	vol, err := LoadLabelImage(filepath.Join(dir, "labels.png"))
	require.NoError(t, err)

	assert.Equal(t, 2, vol.Rank)
	assert.Equal(t, 2, vol.Rows)
	assert.Equal(t, 3, vol.Cols)
	assert.Equal(t, []uint32{1000, 1001, 1002, 1003, 1004, 1005}, vol.Data)
}

// 8-bit gray labels must not be rescaled to the 16-bit range
func TestLoadLabelImageGray8(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(0, 0, color.Gray{Y: 1})
	img.SetGray(1, 0, color.Gray{Y: 2})
	img.SetGray(0, 1, color.Gray{Y: 3})
	img.SetGray(1, 1, color.Gray{Y: 255})
	writePNG(t, dir, "labels.png", img)

	vol, err := LoadLabelImage(filepath.Join(dir, "labels.png"))
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3, 255}, vol.Data)
}

func TestLoadLabelSlicesOrdering(t *testing.T) {
	dir := t.TempDir()
	// Written out of order; slice_10 must come after slice_2
	for _, k := range []int{10, 1, 2} {
		img := createTestImage(2, 2, func(x, y int) uint16 { return uint16(k) })
		writePNG(t, dir, fmt.Sprintf("slice_%d.png", k), img)
	}
	// Non-image files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	vol, err := LoadLabelSlices(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, vol.Rank)
	assert.Equal(t, 3, vol.Depth)
	assert.Equal(t, uint32(1), vol.At(0, 0, 0))
	assert.Equal(t, uint32(2), vol.At(1, 1, 1))
	assert.Equal(t, uint32(10), vol.At(2, 0, 1))
}

func TestLoadLabelSlicesErrors(t *testing.T) {
	empty := t.TempDir()
	_, err := LoadLabelSlices(empty)
	assert.ErrorIs(t, err, ErrNoSlices)

	mismatched := t.TempDir()
	writePNG(t, mismatched, "slice_0.png", createTestImage(2, 2, func(x, y int) uint16 { return 0 }))
	writePNG(t, mismatched, "slice_1.png", createTestImage(3, 2, func(x, y int) uint16 { return 0 }))
	_, err = LoadLabelSlices(mismatched)
	assert.Error(t, err)

	_, err = LoadLabelSlices(filepath.Join(empty, "missing"))
	assert.Error(t, err)
}

func TestLoadIntensitySlices(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "img_0.png", createTestImage(2, 1, func(x, y int) uint16 { return 0 }))
	writePNG(t, dir, "img_1.png", createTestImage(2, 1, func(x, y int) uint16 { return 65535 }))

	iv, err := LoadIntensitySlices(dir)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 2}, []int{iv.Depth, iv.Rows, iv.Cols})
	assert.InDeltaSlice(t, []float64{0, 0, 1, 1}, iv.Data, 1e-9)
	assert.True(t, iv.SameShape(volume.New3D(2, 1, 2)))
	assert.False(t, iv.SameShape(volume.New3D(2, 2, 1)))

	single, err := LoadIntensitySlices(filepath.Join(dir, "img_1.png"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, []int{single.Depth, single.Rows, single.Cols})
	assert.InDeltaSlice(t, []float64{1, 1}, single.Data, 1e-9)
	assert.True(t, single.SameShape(volume.New2D(1, 2)))
}

func TestListSlicesOversizedNumberSortsLast(t *testing.T) {
	dir := t.TempDir()
	blank := createTestImage(1, 1, func(x, y int) uint16 { return 0 })
	writePNG(t, dir, "slice_99999999999999999999999.png", blank)
	writePNG(t, dir, "slice_2.png", blank)
	writePNG(t, dir, "slice_10.png", blank)

	files, err := listSlices(dir, ".png")
	require.NoError(t, err)
	assert.Equal(t, []string{"slice_2.png", "slice_10.png", "slice_99999999999999999999999.png"}, files)
}

func TestLoadIntensitySlicesJPEG(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	f, err := os.Create(filepath.Join(dir, "slice_0.jpg"))
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 100}))
	require.NoError(t, f.Close())

	iv, err := LoadIntensitySlices(dir)
	require.NoError(t, err)
	require.Len(t, iv.Data, 64)
	for _, v := range iv.Data {
		assert.InDelta(t, 128.0/255.0, v, 0.02)
	}
}

func TestSaveLabelSlicesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	vol := volume.New3D(3, 4, 5)
	for idx := range vol.Data {
		vol.Data[idx] = uint32(idx * 7)
	}

	require.NoError(t, SaveLabelSlices(vol, "z", dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	loaded, err := LoadLabelSlices(dir)
	require.NoError(t, err)
	assert.Equal(t, vol.Data, loaded.Data)
	assert.Equal(t, vol.Depth, loaded.Depth)
	assert.Equal(t, vol.Rows, loaded.Rows)
	assert.Equal(t, vol.Cols, loaded.Cols)
}

func TestSaveLabelSlicesAxes(t *testing.T) {
	vol := volume.New3D(2, 3, 4)
	for _, tc := range []struct {
		axis  string
		count int
	}{{"x", 4}, {"y", 3}, {"z", 2}} {
		dir := t.TempDir()
		require.NoError(t, SaveLabelSlices(vol, tc.axis, dir))
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, tc.count, "axis %s", tc.axis)
	}

	assert.Error(t, SaveLabelSlices(vol, "w", t.TempDir()))
}

func TestSaveLabelImageRange(t *testing.T) {
	vol := volume.New2D(1, 2)
	vol.Data[1] = 70000

	err := SaveLabelImage(vol, filepath.Join(t.TempDir(), "out.png"))
	assert.ErrorIs(t, err, ErrLabelRange)

	_, err = LabelImage(volume.New3D(1, 1, 1))
	assert.Error(t, err)
}
