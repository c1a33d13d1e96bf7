package rag

import (
	"gonum.org/v1/gonum/stat"
)

// GraphStats summarizes a region adjacency graph
type GraphStats struct {
	// Regions is the number of distinct labels
	Regions int

	// Adjacencies is the number of undirected region adjacencies
	Adjacencies int

	// MeanDegree and StdDegree describe the number of neighbours per region
	MeanDegree float64
	StdDegree  float64

	// MaxDegree is the largest neighbour count of any region
	MaxDegree int

	// MeanRegionSize is the average number of elements per region
	MeanRegionSize float64

	// MeanContacts is the average boundary contact count per adjacency
	MeanContacts float64
}

// Summarize computes GraphStats. An empty graph yields the zero value.
func Summarize(g *RegionGraph) GraphStats {
	regions := g.Regions()
	if len(regions) == 0 {
		return GraphStats{}
	}

	degrees := make([]float64, len(regions))
	sizes := make([]float64, len(regions))
	maxDegree := 0
	for i, label := range regions {
		d := g.Graph().From(label).Len()
		degrees[i] = float64(d)
		sizes[i] = float64(g.Size(label))
		if d > maxDegree {
			maxDegree = d
		}
	}

	s := GraphStats{
		Regions:        len(regions),
		Adjacencies:    g.NumAdjacencies(),
		MaxDegree:      maxDegree,
		MeanRegionSize: stat.Mean(sizes, nil),
	}
	if len(regions) > 1 {
		s.MeanDegree, s.StdDegree = stat.MeanStdDev(degrees, nil)
	} else {
		s.MeanDegree = degrees[0]
	}

	adjacencies := g.Adjacencies()
	if len(adjacencies) > 0 {
		contacts := make([]float64, len(adjacencies))
		for i, a := range adjacencies {
			contacts[i] = float64(a.Contacts)
		}
		s.MeanContacts = stat.Mean(contacts, nil)
	}
	return s
}
