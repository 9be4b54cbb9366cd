// Command birchrng ingests point files into a clustering-feature tree,
// builds per-node relative neighbourhood graphs, and exports the result as
// JSON, grounded on TobiSchelling-AICrawler's cmd/aicrawler/main.go
// (package main, a root cobra.Command carrying persistent flags, one
// subcommand per var block, Execute()+os.Exit(1) on error).
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "birchrng",
	Short: "Clustering-feature tree builder with per-node relative neighbourhood graphs",
	Long: "birchrng reads delimiter-separated point files, absorbs them into a " +
		"height-balanced clustering-feature tree, maintains a relative " +
		"neighbourhood graph at every node, and exports the tree, its leaf " +
		"chain, and its per-level graphs as JSON.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
