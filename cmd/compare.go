package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/lukman83/pricehub/internal/catalog"
	"github.com/lukman83/pricehub/internal/compare"
	"github.com/lukman83/pricehub/internal/ui"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare [product-id...]",
	Short: "Compare up to 3 products side by side",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().StringSlice("categories", compare.DefaultCategories, "Categories to look the products up in")
	compareCmd.Flags().String("format", "table", "Output format: json, table")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	categories, _ := cmd.Flags().GetStringSlice("categories")
	format, _ := cmd.Flags().GetString("format")

	src, err := currentSource()
	if err != nil {
		return err
	}

	spin := ui.NewSpinner(os.Stderr)
	spin.Start("Looking up products...")
	ctx := catalog.WithProgress(context.Background(), spin.Update)
	products, err := compare.Lookup(ctx, src, categories, args)
	spin.Stop()
	if err != nil {
		return err
	}

	sel := compare.NewSelection()
	for _, p := range products {
		if err := sel.Add(p); err != nil {
			fmt.Fprintf(os.Stderr, "Skipping %s: %s\n", p.DisplayName(), compare.Message(err))
		}
	}

	table := sel.Table()
	if format == "json" {
		return printJSON(os.Stdout, map[string]any{
			"breadcrumb": sel.Breadcrumb(),
			"table":      table,
		})
	}
	return printCompareTable(os.Stdout, sel.Breadcrumb(), table)
}
