package volumeio

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"supervoxelrag/pkg/volume"
)

// LabelImage converts a rank 2 label volume to a 16-bit gray image
func LabelImage(vol *volume.LabelVolume) (*image.Gray16, error) {
	if vol.Rank != 2 {
		return nil, fmt.Errorf("expected a 2D label image, got rank %d", vol.Rank)
	}
	img := image.NewGray16(image.Rect(0, 0, vol.Cols, vol.Rows))
	for i := 0; i < vol.Rows; i++ {
		for j := 0; j < vol.Cols; j++ {
			label := vol.At(0, i, j)
			if label > math.MaxUint16 {
				return nil, fmt.Errorf("%w: label %d at (%d,%d)", ErrLabelRange, label, i, j)
			}
			img.SetGray16(j, i, color.Gray16{Y: uint16(label)})
		}
	}
	return img, nil
}

// SaveLabelImage writes a rank 2 label volume as a 16-bit PNG
func SaveLabelImage(vol *volume.LabelVolume, filename string) error {
	img, err := LabelImage(vol)
	if err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// SaveLabelSlices extracts and saves every slice along the specified axis.
// Files are named slice_<axis>_<NNN>.png so LoadLabelSlices reads a z
// sequence back in the same order.
func SaveLabelSlices(vol *volume.LabelVolume, axis string, outputDir string) error {
	maxPos, err := vol.AxisLength(axis)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for pos := 0; pos < maxPos; pos++ {
		slice, err := vol.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := SaveLabelImage(slice, filename); err != nil {
			return err
		}
	}

	return nil
}
