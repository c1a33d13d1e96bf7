package rag

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Adjacency is one undirected region adjacency. A is always smaller than B.
type Adjacency struct {
	A, B int64

	// Contacts is the number of element pairs along the shared boundary
	// under the connectivity used for extraction
	Contacts int
}

// pairKey orders a label pair so both directions map to the same key
type pairKey struct {
	a, b int64
}

func makePairKey(x, y int64) pairKey {
	if x > y {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

// RegionGraph is the deduplicated, symmetric region adjacency graph built
// from extractor output. Nodes are labels, edge weights are contact counts.
type RegionGraph struct {
	g     *simple.WeightedUndirectedGraph
	sizes map[int64]int
}

// BuildGraph aggregates (Nodes[idx], Edges[idx, c]) pairs into a region
// adjacency graph. Sentinel columns and pairs whose endpoints carry the same
// label are skipped. Every label in Nodes becomes a graph node, including
// regions with no neighbours.
func BuildGraph(n *Neighbours) *RegionGraph {
	sizes := make(map[int64]int)
	contacts := make(map[pairKey]int)

	for idx, node := range n.Nodes {
		label := int64(node)
		sizes[label]++
		for _, nb := range n.Row(idx) {
			if nb == Sentinel || nb == node {
				continue
			}
			contacts[makePairKey(label, int64(nb))]++
		}
	}

	g := simple.NewWeightedUndirectedGraph(0, 0)
	for label := range sizes {
		g.AddNode(simple.Node(label))
	}
	for key, count := range contacts {
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(key.a), simple.Node(key.b), float64(count)))
	}

	return &RegionGraph{g: g, sizes: sizes}
}

// Graph exposes the underlying gonum graph for algorithms from the gonum
// graph packages.
func (r *RegionGraph) Graph() graph.WeightedUndirected {
	return r.g
}

// NumRegions returns the number of distinct labels
func (r *RegionGraph) NumRegions() int {
	return len(r.sizes)
}

// NumAdjacencies returns the number of undirected adjacencies
func (r *RegionGraph) NumAdjacencies() int {
	return r.g.Edges().Len()
}

// Regions returns every label, sorted ascending
func (r *RegionGraph) Regions() []int64 {
	labels := make([]int64, 0, len(r.sizes))
	for label := range r.sizes {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// Size returns the number of elements carrying label, 0 if absent
func (r *RegionGraph) Size(label int64) int {
	return r.sizes[label]
}

// Adjacent returns the labels adjacent to label, sorted ascending
func (r *RegionGraph) Adjacent(label int64) []int64 {
	if r.g.Node(label) == nil {
		return nil
	}
	nodes := graph.NodesOf(r.g.From(label))
	labels := make([]int64, len(nodes))
	for i, nd := range nodes {
		labels[i] = nd.ID()
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// Contacts returns the contact count between two labels, 0 if they are not
// adjacent
func (r *RegionGraph) Contacts(a, b int64) int {
	if a == b {
		return 0
	}
	e := r.g.WeightedEdge(a, b)
	if e == nil {
		return 0
	}
	return int(e.Weight())
}

// Adjacencies returns every adjacency sorted by (A, B)
func (r *RegionGraph) Adjacencies() []Adjacency {
	edges := r.g.WeightedEdges()
	out := make([]Adjacency, 0, edges.Len())
	for edges.Next() {
		e := edges.WeightedEdge()
		key := makePairKey(e.From().ID(), e.To().ID())
		out = append(out, Adjacency{A: key.a, B: key.b, Contacts: int(e.Weight())})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}
