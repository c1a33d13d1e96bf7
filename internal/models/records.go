package models

import "time"

// RunInfo describes one extraction run stored alongside its graph
type RunInfo struct {
	// ID is assigned by the store on insert
	ID int64

	// Source is the label file or slice directory the graph came from
	Source string

	// Shape of the label volume
	Depth, Rows, Cols int

	// Connectivity used for neighbour extraction
	Connectivity int

	// MergeThreshold is the intensity threshold used for merging, 0 when
	// no merge was applied
	MergeThreshold float64

	// CreatedAt is set by the store
	CreatedAt time.Time
}

// RegionRecord is one stored region
type RegionRecord struct {
	Label int64

	// Voxels is the number of elements carrying the label
	Voxels int

	// MeanIntensity is only valid when HasIntensity is set
	MeanIntensity float64
	HasIntensity  bool
}

// AdjacencyRecord is one stored undirected adjacency, LabelA < LabelB
type AdjacencyRecord struct {
	LabelA   int64
	LabelB   int64
	Contacts int
}
