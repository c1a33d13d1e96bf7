package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "supervoxelrag",
	Short: "Build region adjacency graphs from labeled 2D/3D volumes",
	Long: `supervoxelrag reads an integer-labeled image or slice stack (super-voxels,
connected components, ...), extracts label adjacencies under 4/8 (2D) or
6/18/26 (3D) connectivity and reports the resulting region adjacency graph.
Adjacent regions with similar mean intensity can be merged, and the graph
can be stored in SQLite.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
