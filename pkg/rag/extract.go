// Package rag extracts region adjacency information from integer-labeled
// 2D and 3D volumes and builds region adjacency graphs from it.
//
// The extractor visits every element once and records, for a fixed ordered
// list of "forward" directions, the label found at the neighbouring
// element. Each undirected element adjacency is therefore emitted exactly
// once, at one of its two endpoints. Consumers that need an undirected
// structure must symmetrize; BuildGraph does this.
package rag

import (
	"fmt"
	"math"

	"supervoxelrag/pkg/volume"
)

// Neighbours is the output of the extractor.
//
// Nodes[idx] is the label of the idx-th element in scan order. Edges is a
// flat buffer with a fixed stride of Width columns per element; column c of
// element idx is Edges[idx*Width+c] and holds either the neighbour label in
// direction c or Sentinel when that neighbour lies outside the volume.
type Neighbours struct {
	Nodes []int32
	Edges []int32
	Width int
}

// Len returns the number of elements
func (n *Neighbours) Len() int {
	return len(n.Nodes)
}

// Row returns the edge columns of element idx. The slice aliases Edges.
func (n *Neighbours) Row(idx int) []int32 {
	return n.Edges[idx*n.Width : (idx+1)*n.Width]
}

// ExtractNeighbours2D computes the neighbour arrays of a rows x cols label
// image stored row-major. connectivity must be 4 or 8.
//
// Columns: 0 = (i+1, j), 1 = (i, j+1); connectivity 8 adds
// 2 = (i+1, j+1) and 3 = (i-1, j+1).
func ExtractNeighbours2D(labels []uint32, rows, cols int, connectivity int) (*Neighbours, error) {
	if err := validate(labels, 1, rows, cols, 2, connectivity); err != nil {
		return nil, err
	}
	n := allocate(len(labels), connectivity)
	scanLines(labels, 1, rows, cols, offsets2D[:n.Width], n.Nodes, n.Edges, 0, rows)
	return n, nil
}

// ExtractNeighbours3D computes the neighbour arrays of a depth x rows x cols
// label volume stored slab-major. connectivity must be 6, 18 or 26.
//
// Columns 0-2 are the face neighbours (k+1), (i+1), (j+1). Connectivity 18
// adds the edge diagonals in columns 3-8 and connectivity 26 adds the
// corner diagonals in columns 9-12.
func ExtractNeighbours3D(labels []uint32, depth, rows, cols int, connectivity int) (*Neighbours, error) {
	if err := validate(labels, depth, rows, cols, 3, connectivity); err != nil {
		return nil, err
	}
	n := allocate(len(labels), connectivity)
	scanLines(labels, depth, rows, cols, offsets3D[:n.Width], n.Nodes, n.Edges, 0, depth*rows)
	return n, nil
}

// Extract dispatches to the 2D or 3D extractor based on the volume rank
func Extract(vol *volume.LabelVolume, connectivity int) (*Neighbours, error) {
	if vol == nil {
		return nil, fmt.Errorf("%w: nil volume", ErrInvalidInput)
	}
	switch vol.Rank {
	case 2:
		return ExtractNeighbours2D(vol.Data, vol.Rows, vol.Cols, connectivity)
	case 3:
		return ExtractNeighbours3D(vol.Data, vol.Depth, vol.Rows, vol.Cols, connectivity)
	default:
		return nil, fmt.Errorf("%w: unsupported rank %d", ErrInvalidInput, vol.Rank)
	}
}

func allocate(count, connectivity int) *Neighbours {
	width := Width(connectivity)
	return &Neighbours{
		Nodes: make([]int32, count),
		Edges: make([]int32, count*width),
		Width: width,
	}
}

// validate rejects everything the scan cannot handle. Once it passes, the
// scan has no failure path.
func validate(labels []uint32, depth, rows, cols, rank, connectivity int) error {
	if !SupportedConnectivity(rank, connectivity) {
		return fmt.Errorf("%w: connectivity %d not supported for %dD volumes", ErrInvalidInput, connectivity, rank)
	}
	if depth <= 0 || rows <= 0 || cols <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %dx%dx%d", ErrInvalidInput, depth, rows, cols)
	}
	if rows > math.MaxInt/cols || depth > math.MaxInt/(rows*cols) {
		return fmt.Errorf("%w: dimensions %dx%dx%d overflow", ErrInvalidInput, depth, rows, cols)
	}
	if len(labels) != depth*rows*cols {
		return fmt.Errorf("%w: expected %d labels, got %d", ErrInvalidInput, depth*rows*cols, len(labels))
	}
	for idx, l := range labels {
		if l > math.MaxInt32 {
			return fmt.Errorf("%w: label %d at index %d does not fit in int32", ErrInvalidInput, l, idx)
		}
	}
	return nil
}

// scanLines fills nodes and edges for the row lines [line0, line1). A row
// line is one (k, i) pair holding cols consecutive elements, so line*cols is
// the flat index of its first element. 2D images are scanned with depth 1.
//
// Every column of every visited element is written, so the buffers need no
// sentinel prefill and the loop does not allocate.
func scanLines(labels []uint32, depth, rows, cols int, table []offset, nodes, edges []int32, line0, line1 int) {
	width := len(table)
	plane := rows * cols
	for line := line0; line < line1; line++ {
		k := line / rows
		i := line % rows
		base := line * cols
		for j := 0; j < cols; j++ {
			idx := base + j
			nodes[idx] = int32(labels[idx])
			row := edges[idx*width : idx*width+width]
			for c, o := range table {
				nk, ni, nj := k+o.dk, i+o.di, j+o.dj
				if nk < 0 || nk >= depth || ni < 0 || ni >= rows || nj < 0 || nj >= cols {
					row[c] = Sentinel
					continue
				}
				row[c] = int32(labels[nk*plane+ni*cols+nj])
			}
		}
	}
}
