package rag

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"supervoxelrag/pkg/volume"
)

// ExtractParallel produces the same output as Extract but splits the scan
// across workers goroutines. Each worker owns a contiguous, disjoint range
// of row lines and writes only into its own part of Nodes and Edges, so no
// locking is needed.
//
// workers <= 0 uses runtime.NumCPU(). The context is checked before each
// chunk starts; a cancelled extraction returns ctx.Err() and no result.
func ExtractParallel(ctx context.Context, vol *volume.LabelVolume, connectivity int, workers int) (*Neighbours, error) {
	if vol == nil {
		return nil, fmt.Errorf("%w: nil volume", ErrInvalidInput)
	}

	var table []offset
	depth := vol.Depth
	switch vol.Rank {
	case 2:
		table = offsets2D
		depth = 1
	case 3:
		table = offsets3D
	default:
		return nil, fmt.Errorf("%w: unsupported rank %d", ErrInvalidInput, vol.Rank)
	}
	if err := validate(vol.Data, depth, vol.Rows, vol.Cols, vol.Rank, connectivity); err != nil {
		return nil, err
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	lines := depth * vol.Rows
	if workers > lines {
		workers = lines
	}

	n := allocate(len(vol.Data), connectivity)
	table = table[:n.Width]

	// Ceiling division so the last chunk picks up the remainder
	linesPerWorker := (lines + workers - 1) / workers

	g, gCtx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * linesPerWorker
		end := start + linesPerWorker
		if end > lines {
			end = lines
		}
		if start >= end {
			break
		}

		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			scanLines(vol.Data, depth, vol.Rows, vol.Cols, table, n.Nodes, n.Edges, start, end)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return n, nil
}
