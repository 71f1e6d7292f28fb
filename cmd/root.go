// Package cmd implements the command-line interface for the product search
// service. It provides the root command and subcommands for searching,
// resolving URLs, and serving the HTTP API.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/shopsearch/cmd/httpd"
	"github.com/jonesrussell/shopsearch/cmd/resolve"
	"github.com/jonesrussell/shopsearch/cmd/search"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "shopsearch",
		Short: "A product search and metadata resolution service",
		Long: `Shopsearch finds products across the web, extracts prices and images
from product pages, and serves results over a CLI or HTTP API.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./shopsearch.yaml or ~/.config/shopsearch/shopsearch.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Printf("shopsearch version %s\n", version)
		},
	})

	rootCmd.AddCommand(search.Command())
	rootCmd.AddCommand(resolve.Command())
	rootCmd.AddCommand(httpd.Command())
}
