// Package volume provides the dense label volume shared by the loaders,
// the neighbour extractor and the region-merging stage.
package volume

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrShape is returned when dimensions and data length disagree.
var ErrShape = errors.New("invalid volume shape")

// LabelVolume represents a 2D or 3D partition of an image domain into
// integer-labeled regions (super-voxels, connected components, ...).
type LabelVolume struct {
	// Data holds the labels as a 1D array in scan order: row-major for
	// rank 2 and slab-major (depth, rows, cols) for rank 3
	Data []uint32

	// Depth is the number of slabs. Always 1 for rank 2 volumes.
	Depth int

	// Rows and Cols are the in-plane dimensions
	Rows int
	Cols int

	// Rank is 2 or 3
	Rank int
}

// New2D allocates a zeroed rows x cols label image
func New2D(rows, cols int) *LabelVolume {
	return &LabelVolume{
		Data:  make([]uint32, rows*cols),
		Depth: 1,
		Rows:  rows,
		Cols:  cols,
		Rank:  2,
	}
}

// New3D allocates a zeroed depth x rows x cols label volume
func New3D(depth, rows, cols int) *LabelVolume {
	return &LabelVolume{
		Data:  make([]uint32, depth*rows*cols),
		Depth: depth,
		Rows:  rows,
		Cols:  cols,
		Rank:  3,
	}
}

// From2D wraps existing row-major data without copying it
func From2D(rows, cols int, data []uint32) (*LabelVolume, error) {
	v := &LabelVolume{Data: data, Depth: 1, Rows: rows, Cols: cols, Rank: 2}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// From3D wraps existing slab-major data without copying it
func From3D(depth, rows, cols int, data []uint32) (*LabelVolume, error) {
	v := &LabelVolume{Data: data, Depth: depth, Rows: rows, Cols: cols, Rank: 3}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate checks rank, dimensions and data length
func (v *LabelVolume) Validate() error {
	if v == nil {
		return fmt.Errorf("%w: nil volume", ErrShape)
	}
	switch v.Rank {
	case 2:
		if v.Depth != 1 {
			return fmt.Errorf("%w: rank 2 volume with depth %d", ErrShape, v.Depth)
		}
	case 3:
	default:
		return fmt.Errorf("%w: unsupported rank %d", ErrShape, v.Rank)
	}
	if v.Depth <= 0 || v.Rows <= 0 || v.Cols <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %dx%dx%d", ErrShape, v.Depth, v.Rows, v.Cols)
	}
	if v.Rows > math.MaxInt/v.Cols || v.Depth > math.MaxInt/(v.Rows*v.Cols) {
		return fmt.Errorf("%w: dimensions %dx%dx%d overflow", ErrShape, v.Depth, v.Rows, v.Cols)
	}
	if len(v.Data) != v.Depth*v.Rows*v.Cols {
		return fmt.Errorf("%w: expected %d elements, got %d", ErrShape, v.Depth*v.Rows*v.Cols, len(v.Data))
	}
	return nil
}

// Len returns the number of elements
func (v *LabelVolume) Len() int {
	return v.Depth * v.Rows * v.Cols
}

// Index returns the flattened scan-order index of (k, i, j)
func (v *LabelVolume) Index(k, i, j int) int {
	return k*v.Rows*v.Cols + i*v.Cols + j
}

// At returns the label at (k, i, j). Use k=0 for rank 2 volumes.
func (v *LabelVolume) At(k, i, j int) uint32 {
	return v.Data[v.Index(k, i, j)]
}

// Set stores a label at (k, i, j)
func (v *LabelVolume) Set(k, i, j int, label uint32) {
	v.Data[v.Index(k, i, j)] = label
}

// Labels returns the distinct labels present in the volume, sorted
func (v *LabelVolume) Labels() []uint32 {
	seen := make(map[uint32]struct{})
	for _, l := range v.Data {
		seen[l] = struct{}{}
	}
	labels := make([]uint32, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(a, b int) bool { return labels[a] < labels[b] })
	return labels
}

// Relabel returns a copy of the volume with every label found in mapping
// replaced by its target. Labels missing from mapping are kept.
func (v *LabelVolume) Relabel(mapping map[uint32]uint32) *LabelVolume {
	out := &LabelVolume{
		Data:  make([]uint32, len(v.Data)),
		Depth: v.Depth,
		Rows:  v.Rows,
		Cols:  v.Cols,
		Rank:  v.Rank,
	}
	for idx, l := range v.Data {
		if to, ok := mapping[l]; ok {
			out.Data[idx] = to
		} else {
			out.Data[idx] = l
		}
	}
	return out
}

// ExtractSlice cuts a 2D label image out of the volume along the given axis.
//
// Axis "z" returns the rows x cols plane at slab position, "y" the
// depth x cols plane at row position and "x" the rows x depth plane at
// column position, matching the orientation of the slice viewer.
func (v *LabelVolume) ExtractSlice(axis string, position int) (*LabelVolume, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	switch axis {
	case "x", "X":
		if position >= v.Cols {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.Cols)
		}
		out := New2D(v.Rows, v.Depth)
		for i := 0; i < v.Rows; i++ {
			for k := 0; k < v.Depth; k++ {
				out.Data[i*v.Depth+k] = v.At(k, i, position)
			}
		}
		return out, nil

	case "y", "Y":
		if position >= v.Rows {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.Rows)
		}
		out := New2D(v.Depth, v.Cols)
		for k := 0; k < v.Depth; k++ {
			copy(out.Data[k*v.Cols:(k+1)*v.Cols], v.Data[v.Index(k, position, 0):v.Index(k, position, 0)+v.Cols])
		}
		return out, nil

	case "z", "Z":
		if position >= v.Depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.Depth)
		}
		out := New2D(v.Rows, v.Cols)
		start := v.Index(position, 0, 0)
		copy(out.Data, v.Data[start:start+v.Rows*v.Cols])
		return out, nil

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}
}

// AxisLength returns the number of slices along the given axis
func (v *LabelVolume) AxisLength(axis string) (int, error) {
	switch axis {
	case "x", "X":
		return v.Cols, nil
	case "y", "Y":
		return v.Rows, nil
	case "z", "Z":
		return v.Depth, nil
	default:
		return 0, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}
}
