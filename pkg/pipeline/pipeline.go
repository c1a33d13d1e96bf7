// Package pipeline runs the region adjacency workflow end to end: load a
// label volume, extract neighbours, build the graph, optionally merge
// similar regions, persist and report.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"supervoxelrag/internal/models"
	"supervoxelrag/pkg/rag"
	"supervoxelrag/pkg/store"
	"supervoxelrag/pkg/volume"
	"supervoxelrag/pkg/volumeio"
)

// Params holds the pipeline parameters
type Params struct {
	// LabelPath is either a single PNG label image (2D) or a directory of
	// PNG label slices (3D)
	LabelPath string

	// Connectivity for neighbour extraction. 0 selects 4 for 2D and 6 for 3D.
	Connectivity int

	// Workers is the number of goroutines used for extraction, 0 for all cores
	Workers int

	// IntensityPath points at the intensity slices used for region means.
	// Required when Merge is set.
	IntensityPath string

	// Merge turns on merging of adjacent regions with similar means
	Merge bool

	// MergeThreshold is the largest mean difference merged. 0 merges only
	// regions with identical means.
	MergeThreshold float64

	// DatabasePath is the SQLite file the final graph is stored in; empty
	// disables persistence
	DatabasePath string

	// SlicesDir receives the final label volume as z slices; empty disables it
	SlicesDir string
}

// Result is what a finished run produced
type Result struct {
	// Volume is the final label volume, relabeled when merging ran
	Volume *volume.LabelVolume

	// Graph is the region adjacency graph of Volume
	Graph *rag.RegionGraph

	// Stats summarizes Graph
	Stats rag.GraphStats

	// Means holds the mean intensity per region of Volume, nil without
	// intensity data
	Means map[int64]float64

	// Mapping sends every original label to its merged label, nil when no
	// merge ran
	Mapping map[int64]int64

	// RunID is the database run, 0 when persistence is disabled
	RunID int64

	// Connectivity actually used
	Connectivity int

	// Elapsed is the wall time of Process
	Elapsed time.Duration
}

// Pipeline drives one run
type Pipeline struct {
	params *Params
	log    *slog.Logger
	result *Result
}

// NewPipeline creates a pipeline. A nil logger uses slog.Default().
func NewPipeline(params *Params, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{params: params, log: logger}
}

// Process runs the complete pipeline
func (p *Pipeline) Process(ctx context.Context) error {
	start := time.Now()
	res := &Result{}

	// Step 1: Load the label volume
	p.log.Info("loading label volume", "path", p.params.LabelPath)
	vol, err := p.loadLabels()
	if err != nil {
		return fmt.Errorf("failed to load labels: %w", err)
	}
	p.log.Info("label volume loaded",
		"rank", vol.Rank, "depth", vol.Depth, "rows", vol.Rows, "cols", vol.Cols)

	connectivity := p.params.Connectivity
	if connectivity == 0 {
		connectivity = rag.DefaultConnectivity(vol.Rank)
	}
	res.Connectivity = connectivity

	// Step 2: Extract neighbours and build the graph
	g, err := p.buildGraph(ctx, vol, connectivity)
	if err != nil {
		return err
	}

	// Step 3: Region means, when intensities are available
	if p.params.IntensityPath != "" {
		p.log.Info("loading intensities", "path", p.params.IntensityPath)
		intensity, err := volumeio.LoadIntensitySlices(p.params.IntensityPath)
		if err != nil {
			return fmt.Errorf("failed to load intensities: %w", err)
		}
		if !intensity.SameShape(vol) {
			return fmt.Errorf("intensity volume is %dx%dx%d, labels are %dx%dx%d",
				intensity.Depth, intensity.Rows, intensity.Cols, vol.Depth, vol.Rows, vol.Cols)
		}
		res.Means, err = rag.RegionMeans(vol, intensity.Data)
		if err != nil {
			return fmt.Errorf("failed to compute region means: %w", err)
		}

		// Step 4: Merge similar regions and rebuild the graph on the
		// relabeled volume
		if p.params.Merge {
			res.Mapping = rag.MergeRegions(g, res.Means, p.params.MergeThreshold)
			merged := vol.Relabel(rag.LabelMapping(res.Mapping))
			p.log.Info("regions merged",
				"threshold", p.params.MergeThreshold, "before", g.NumRegions())

			vol = merged
			g, err = p.buildGraph(ctx, vol, connectivity)
			if err != nil {
				return err
			}
			res.Means, err = rag.RegionMeans(vol, intensity.Data)
			if err != nil {
				return fmt.Errorf("failed to compute region means: %w", err)
			}
		}
	} else if p.params.Merge {
		return fmt.Errorf("merging requires intensity data")
	}

	res.Volume = vol
	res.Graph = g

	// Step 5: Persist
	if p.params.DatabasePath != "" {
		res.RunID, err = p.persist(ctx, res)
		if err != nil {
			return fmt.Errorf("failed to store graph: %w", err)
		}
		p.log.Info("graph stored", "database", p.params.DatabasePath, "run", res.RunID)
	}

	// Step 6: Save slices
	if p.params.SlicesDir != "" {
		if err := volumeio.SaveLabelSlices(vol, "z", p.params.SlicesDir); err != nil {
			return fmt.Errorf("failed to save slices: %w", err)
		}
		p.log.Info("label slices saved", "dir", p.params.SlicesDir)
	}

	// Step 7: Summary statistics
	res.Stats = rag.Summarize(g)
	res.Elapsed = time.Since(start)
	p.result = res

	p.log.Info("pipeline finished",
		"regions", res.Stats.Regions,
		"adjacencies", res.Stats.Adjacencies,
		"elapsed", res.Elapsed)
	return nil
}

// Result returns the outcome of the last successful Process call, nil
// before that
func (p *Pipeline) Result() *Result {
	return p.result
}

func (p *Pipeline) loadLabels() (*volume.LabelVolume, error) {
	info, err := os.Stat(p.params.LabelPath)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return volumeio.LoadLabelSlices(p.params.LabelPath)
	}
	return volumeio.LoadLabelImage(p.params.LabelPath)
}

func (p *Pipeline) buildGraph(ctx context.Context, vol *volume.LabelVolume, connectivity int) (*rag.RegionGraph, error) {
	extractStart := time.Now()
	n, err := rag.ExtractParallel(ctx, vol, connectivity, p.params.Workers)
	if err != nil {
		return nil, fmt.Errorf("neighbour extraction failed: %w", err)
	}
	p.log.Debug("neighbours extracted",
		"elements", n.Len(), "width", n.Width, "elapsed", time.Since(extractStart))

	g := rag.BuildGraph(n)
	p.log.Info("region graph built",
		"connectivity", connectivity, "regions", g.NumRegions(), "adjacencies", g.NumAdjacencies())
	return g, nil
}

func (p *Pipeline) persist(ctx context.Context, res *Result) (int64, error) {
	db, err := store.Open(p.params.DatabasePath)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	run := models.RunInfo{
		Source:       p.params.LabelPath,
		Depth:        res.Volume.Depth,
		Rows:         res.Volume.Rows,
		Cols:         res.Volume.Cols,
		Connectivity: res.Connectivity,
	}
	if res.Mapping != nil {
		run.MergeThreshold = p.params.MergeThreshold
	}
	return db.SaveGraph(ctx, run, res.Graph, res.Means)
}
