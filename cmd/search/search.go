// Package search implements the search command for finding products from
// the terminal.
package search

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/shopsearch/cmd/common"
	"github.com/jonesrussell/shopsearch/internal/domain"
	"github.com/jonesrussell/shopsearch/internal/engine"
	"github.com/jonesrussell/shopsearch/internal/price"
)

// Display constants.
const (
	titleColumnWidth  = 60
	sourceColumnWidth = 30

	// enrichmentWait bounds how long the command waits for background
	// enrichment before rendering.
	enrichmentWait = 20 * time.Second
)

// Command returns the search command for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search for products",
		Long: `Search for products by keywords or resolve a product URL directly.

Examples:
  # Search by keywords
  shopsearch search "blue ceramic mug"

  # Resolve a product link
  shopsearch search "https://shop.example.com/products/mug"
`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().Bool("no-enrich", false, "render immediately without waiting for enrichment")

	return cmd
}

// runSearch executes the search command.
func runSearch(cmd *cobra.Command, args []string) error {
	deps, err := common.NewCommandDeps(cmd.Flag("config").Value.String(), cmd.Flag("debug").Value.String() == "true")
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	pipeline, err := common.BuildPipeline(deps)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	query := strings.Join(args, " ")
	skipEnrich, _ := cmd.Flags().GetBool("no-enrich")

	results, err := executeSearch(cmd, pipeline.Engine, query, skipEnrich)
	if errors.Is(err, engine.ErrNoResults) {
		fmt.Fprintf(os.Stdout, "No product results for %q.\n", query)
		return nil
	}
	if err != nil {
		return err
	}

	renderResults(results, query)
	return nil
}

// executeSearch runs the query and, unless disabled, waits for background
// enrichment so the table shows final prices and images.
func executeSearch(cmd *cobra.Command, eng *engine.Engine, query string, skipEnrich bool) ([]domain.SearchResult, error) {
	if skipEnrich {
		return eng.Search(cmd.Context(), query, nil)
	}

	var mu sync.Mutex
	byURL := make(map[string]domain.SearchResult)
	order := make([]string, 0)
	settled := make(chan struct{})

	// Enrichment emits from background goroutines.
	onProgress := func(result domain.SearchResult) {
		mu.Lock()
		defer mu.Unlock()

		if _, seen := byURL[result.URL]; !seen {
			order = append(order, result.URL)
		}
		byURL[result.URL] = result
	}

	_, err := eng.SearchStream(cmd.Context(), query, onProgress, func() { close(settled) })
	if err != nil {
		return nil, err
	}

	select {
	case <-settled:
	case <-time.After(enrichmentWait):
	case <-cmd.Context().Done():
	}

	mu.Lock()
	defer mu.Unlock()

	results := make([]domain.SearchResult, 0, len(order))
	for _, url := range order {
		results = append(results, byURL[url])
	}

	return results, nil
}

// renderResults formats and displays the search results in a table.
func renderResults(results []domain.SearchResult, query string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.Style().Options.DrawBorder = true

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: titleColumnWidth},
		{Number: 4, WidthMax: sourceColumnWidth},
	})

	t.AppendHeader(table.Row{"#", "Title", "Price", "Source", "URL"})

	for i, result := range results {
		t.AppendRow(table.Row{i + 1, result.Title, formatPrice(result.Price), result.Source, result.URL})
	}

	t.Render()
	fmt.Fprintf(os.Stdout, "%d result(s) for %q\n", len(results), query)
}

// formatPrice renders a price cell.
func formatPrice(p domain.Price) string {
	if p.IsAbsent() {
		return "-"
	}
	return fmt.Sprintf("%s %s", p.Currency, price.FormatAmount(p.Amount))
}
