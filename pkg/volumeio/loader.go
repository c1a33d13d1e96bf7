// Package volumeio reads label and intensity volumes from stacks of 2D
// image slices and writes label volumes back out as slice sequences.
package volumeio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"supervoxelrag/pkg/volume"
)

var (
	// ErrNoSlices is returned when a directory holds no usable slice images
	ErrNoSlices = errors.New("no slice images found")

	// ErrLabelRange is returned when a label does not fit in a 16-bit slice
	ErrLabelRange = errors.New("label exceeds 16-bit range")
)

// LoadLabelImage decodes a single PNG into a rank 2 label volume. Gray,
// Gray16 and paletted images carry their labels directly; any other color
// model is converted to 16-bit gray.
func LoadLabelImage(path string) (*volume.LabelVolume, error) {
	img, err := loadImage(path)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	vol := volume.New2D(bounds.Dy(), bounds.Dx())
	fillLabels(img, vol.Data)
	return vol, nil
}

// LoadLabelSlices loads every PNG in dir into a rank 3 label volume. Slices
// are ordered by the number embedded in their file names and must all share
// the same dimensions.
func LoadLabelSlices(dir string) (*volume.LabelVolume, error) {
	files, err := listSlices(dir, ".png")
	if err != nil {
		return nil, err
	}

	var vol *volume.LabelVolume
	for k, name := range files {
		img, err := loadImage(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		bounds := img.Bounds()

		// Dimensions come from the first slice
		if vol == nil {
			vol = volume.New3D(len(files), bounds.Dy(), bounds.Dx())
		}
		if bounds.Dy() != vol.Rows || bounds.Dx() != vol.Cols {
			return nil, fmt.Errorf("slice %s is %dx%d, expected %dx%d", name, bounds.Dx(), bounds.Dy(), vol.Cols, vol.Rows)
		}

		plane := vol.Rows * vol.Cols
		fillLabels(img, vol.Data[k*plane:(k+1)*plane])
	}
	return vol, nil
}

// IntensityVolume holds normalized intensities laid out like a LabelVolume
type IntensityVolume struct {
	Data  []float64
	Depth int
	Rows  int
	Cols  int
}

// SameShape reports whether the intensities cover vol voxel for voxel
func (iv *IntensityVolume) SameShape(vol *volume.LabelVolume) bool {
	return iv.Depth == vol.Depth && iv.Rows == vol.Rows && iv.Cols == vol.Cols
}

// LoadIntensitySlices loads the PNG and JPEG slices in dir as intensities
// normalized to [0, 1], in the same scan order as LoadLabelSlices. A path
// to a single image is loaded as one slice.
func LoadIntensitySlices(path string) (*IntensityVolume, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		img, err := loadImage(path)
		if err != nil {
			return nil, err
		}
		bounds := img.Bounds()
		return &IntensityVolume{Data: imageToFloat(img), Depth: 1, Rows: bounds.Dy(), Cols: bounds.Dx()}, nil
	}

	files, err := listSlices(path, ".png", ".jpg", ".jpeg")
	if err != nil {
		return nil, err
	}

	iv := &IntensityVolume{Depth: len(files)}
	for i, name := range files {
		img, err := loadImage(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		bounds := img.Bounds()
		if i == 0 {
			iv.Rows, iv.Cols = bounds.Dy(), bounds.Dx()
			iv.Data = make([]float64, 0, iv.Rows*iv.Cols*len(files))
		} else if bounds.Dx() != iv.Cols || bounds.Dy() != iv.Rows {
			return nil, fmt.Errorf("slice %s is %dx%d, expected %dx%d", name, bounds.Dx(), bounds.Dy(), iv.Cols, iv.Rows)
		}
		iv.Data = append(iv.Data, imageToFloat(img)...)
	}
	return iv, nil
}

// listSlices returns the files in dir with one of the given extensions,
// sorted by the number in their names
func listSlices(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, want := range exts {
			if ext == want {
				files = append(files, entry.Name())
				break
			}
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSlices, dir)
	}

	// Slice order is the stacking order, so sort on the embedded number and
	// fall back to the name for ties
	sort.SliceStable(files, func(i, j int) bool {
		ni, nj := extractNumber(files[i]), extractNumber(files[j])
		if ni != nj {
			return ni < nj
		}
		return files[i] < files[j]
	})
	return files, nil
}

// extractNumber extracts the numeric part from a filename. Numbers too
// large for an int saturate at math.MaxInt so those files sort last.
func extractNumber(filename string) int {
	num := 0
	for _, c := range filepath.Base(filename) {
		if c < '0' || c > '9' {
			continue
		}
		d := int(c - '0')
		if num > (math.MaxInt-d)/10 {
			return math.MaxInt
		}
		num = num*10 + d
	}
	return num
}

// loadImage loads an image from a file
func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// fillLabels writes the labels of img into dst in row-major order
func fillLabels(img image.Image, dst []uint32) {
	bounds := img.Bounds()
	width := bounds.Dx()

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < width; x++ {
			px, py := bounds.Min.X+x, bounds.Min.Y+y
			var label uint32
			switch m := img.(type) {
			case *image.Gray:
				label = uint32(m.GrayAt(px, py).Y)
			case *image.Gray16:
				label = uint32(m.Gray16At(px, py).Y)
			case *image.Paletted:
				label = uint32(m.ColorIndexAt(px, py))
			default:
				label = uint32(color.Gray16Model.Convert(img.At(px, py)).(color.Gray16).Y)
			}
			dst[y*width+x] = label
		}
	}
}

// imageToFloat converts a single image to float array
func imageToFloat(img image.Image) []float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	result := make([]float64, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// Convert 16-bit color to float64 (0-1 range)
			result[y*width+x] = float64(r) / 65535.0
		}
	}

	return result
}
