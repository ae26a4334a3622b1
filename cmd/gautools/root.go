package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mainajackson95/gau-tools/cmd/gautools/run"
	"github.com/mainajackson95/gau-tools/cmd/gautools/server"
)

func Execute() error {
	var rootCmd = &cobra.Command{
		Use:   "gautools",
		Short: "URL harvesting and reconnaissance pipeline",
		Long:  `Gautools harvests historical URLs for a list of targets and pushes them through analysis, script inspection and search-engine dorking stages`,
	}

	rootCmd.AddCommand(run.NewRunCommand())
	rootCmd.AddCommand(server.NewServerCommand())
	return rootCmd.ExecuteContext(context.Background())
}
