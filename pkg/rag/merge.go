package rag

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"supervoxelrag/pkg/volume"
)

// RegionMeans returns the mean intensity of every label. intensity must be
// in the same scan order as the label volume.
func RegionMeans(vol *volume.LabelVolume, intensity []float64) (map[int64]float64, error) {
	if vol == nil {
		return nil, fmt.Errorf("%w: nil volume", ErrInvalidInput)
	}
	if len(intensity) != len(vol.Data) {
		return nil, fmt.Errorf("%w: intensity has %d elements, labels have %d", ErrInvalidInput, len(intensity), len(vol.Data))
	}

	sums := make(map[int64]float64)
	counts := make(map[int64]int)
	for idx, l := range vol.Data {
		sums[int64(l)] += intensity[idx]
		counts[int64(l)]++
	}

	means := make(map[int64]float64, len(sums))
	for label, sum := range sums {
		means[label] = sum / float64(counts[label])
	}
	return means, nil
}

// MergeRegions joins adjacent regions whose mean intensities differ by at
// most threshold. Merging is transitive: the result groups the connected
// components of the graph restricted to qualifying adjacencies.
//
// The returned mapping sends every region to the smallest label of its
// group. Regions without a mean are never merged.
func MergeRegions(g *RegionGraph, means map[int64]float64, threshold float64) map[int64]int64 {
	sub := simple.NewUndirectedGraph()
	for _, label := range g.Regions() {
		sub.AddNode(simple.Node(label))
	}
	for _, adj := range g.Adjacencies() {
		ma, okA := means[adj.A]
		mb, okB := means[adj.B]
		if !okA || !okB {
			continue
		}
		if math.Abs(ma-mb) <= threshold {
			sub.SetEdge(sub.NewEdge(simple.Node(adj.A), simple.Node(adj.B)))
		}
	}

	mapping := make(map[int64]int64, g.NumRegions())
	for _, component := range topo.ConnectedComponents(sub) {
		target := component[0].ID()
		for _, n := range component[1:] {
			if n.ID() < target {
				target = n.ID()
			}
		}
		for _, n := range component {
			mapping[n.ID()] = target
		}
	}
	return mapping
}

// LabelMapping converts a merge mapping into the form volume.Relabel
// expects, dropping identity entries.
func LabelMapping(mapping map[int64]int64) map[uint32]uint32 {
	out := make(map[uint32]uint32)
	for from, to := range mapping {
		if from != to {
			out[uint32(from)] = uint32(to)
		}
	}
	return out
}
