// Package resolve implements the resolve command for fetching metadata of a
// single product URL.
package resolve

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/shopsearch/cmd/common"
	"github.com/jonesrussell/shopsearch/internal/price"
)

// Command returns the resolve command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <url>",
		Short: "Resolve a product URL to its metadata",
		Long: `Resolve fetches a product page through the proxy race and prints the
extracted title, price and image.

Example:
  shopsearch resolve shop.example.com/products/mug
`,
		Args: cobra.ExactArgs(1),
		RunE: runResolve,
	}
}

// runResolve executes the resolve command.
func runResolve(cmd *cobra.Command, args []string) error {
	deps, err := common.NewCommandDeps(cmd.Flag("config").Value.String(), cmd.Flag("debug").Value.String() == "true")
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	pipeline, err := common.BuildPipeline(deps)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	meta, err := pipeline.Resolver.Resolve(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)

	t.AppendRow(table.Row{"Title", meta.Title})
	if !meta.Price.IsAbsent() {
		t.AppendRow(table.Row{"Price", fmt.Sprintf("%s %s", meta.Price.Currency, price.FormatAmount(meta.Price.Amount))})
	}
	if meta.Image != "" {
		t.AppendRow(table.Row{"Image", meta.Image})
	}
	t.AppendRow(table.Row{"URL", meta.URL})

	t.Render()
	return nil
}
