package rag

// Sentinel marks an edge column whose neighbour lies outside the volume
const Sentinel int32 = -1

// offset is a neighbour direction in (depth, row, col) steps
type offset struct {
	dk, di, dj int
}

// offsets2D lists the directions recorded for 2D volumes in column order.
// The first two are used at connectivity 4, all four at connectivity 8.
var offsets2D = []offset{
	{0, 1, 0},  // down
	{0, 0, 1},  // right
	{0, 1, 1},  // down-right
	{0, -1, 1}, // up-right
}

// offsets3D lists the directions recorded for 3D volumes in column order.
// Connectivity 6 uses columns 0-2, 18 uses 0-8 and 26 uses all 13.
//
// Each undirected adjacency is represented once: for every direction d in
// the 26-neighbourhood exactly one of d and -d appears in the table.
var offsets3D = []offset{
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},

	{1, 1, 0},
	{-1, 1, 0},
	{1, 0, 1},
	{-1, 0, 1},
	{0, 1, 1},
	{0, -1, 1},

	{1, 1, 1},
	{1, 1, -1},
	{1, -1, 1},
	{-1, 1, 1},
}

// Width returns the number of edge columns recorded per element for a
// connectivity value: connectivity/2.
func Width(connectivity int) int {
	return connectivity / 2
}

// SupportedConnectivity reports whether connectivity is valid for rank
func SupportedConnectivity(rank, connectivity int) bool {
	switch rank {
	case 2:
		return connectivity == 4 || connectivity == 8
	case 3:
		return connectivity == 6 || connectivity == 18 || connectivity == 26
	}
	return false
}

// DefaultConnectivity returns the face connectivity for a rank
func DefaultConnectivity(rank int) int {
	if rank == 2 {
		return 4
	}
	return 6
}
