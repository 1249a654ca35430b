package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/lukman83/pricehub/internal/catalog"
	"github.com/lukman83/pricehub/internal/listing"
	"github.com/lukman83/pricehub/internal/ui"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "List products in a category (laptops, gaming, smartphones, ...)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "Search products by keyword",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	for _, c := range []*cobra.Command{listCmd, searchCmd} {
		addListingFlags(c)
		rootCmd.AddCommand(c)
	}
}

func addListingFlags(c *cobra.Command) {
	c.Flags().StringSlice("brand", nil, "Brand filter (repeatable or comma separated)")
	c.Flags().StringSlice("processor", nil, "Processor filter, e.g. i7, ryzen-5, m2")
	c.Flags().StringSlice("screen", nil, "Screen size filter, e.g. 13, 15.6")
	c.Flags().String("price", "", "Price range: 500-1000, under-800, over-1500 or 2000+")
	c.Flags().String("sort", "", "Sort: relevance, name, price-low, price-high")
	c.Flags().Int("page", 1, "Page number")
	c.Flags().Bool("facets", false, "Also print the available filter options")
	c.Flags().String("format", "table", "Output format: json, table")
}

func runList(cmd *cobra.Command, args []string) error {
	category := listing.CategoryLaptops
	if len(args) == 1 {
		category = args[0]
	}
	q, err := queryFromFlags(cmd, url.Values{"category": {category}})
	if err != nil {
		return err
	}
	return runListing(cmd, q, fmt.Sprintf("Loading %s...", listing.Title(listing.NormalizeCategory(category))))
}

func runSearch(cmd *cobra.Command, args []string) error {
	keyword := strings.Join(args, " ")
	q, err := queryFromFlags(cmd, url.Values{"q": {keyword}})
	if err != nil {
		return err
	}
	return runListing(cmd, q, fmt.Sprintf("Searching '%s'...", keyword))
}

// queryFromFlags maps the listing flags onto the same URL parameters the
// storefront pages use.
func queryFromFlags(cmd *cobra.Command, v url.Values) (listing.Query, error) {
	for _, name := range []string{"brand", "processor", "screen"} {
		vals, _ := cmd.Flags().GetStringSlice(name)
		v[name] = vals
	}
	price, _ := cmd.Flags().GetString("price")
	sortKey, _ := cmd.Flags().GetString("sort")
	page, _ := cmd.Flags().GetInt("page")
	v.Set("price", price)
	v.Set("sort", sortKey)
	v.Set("page", strconv.Itoa(page))
	return listing.QueryFromValues(v)
}

func runListing(cmd *cobra.Command, q listing.Query, progress string) error {
	format, _ := cmd.Flags().GetString("format")
	showFacets, _ := cmd.Flags().GetBool("facets")

	src, err := currentSource()
	if err != nil {
		return err
	}
	ctrl := listing.NewController(src, cfg.ProductsPerPage)

	spin := ui.NewSpinner(os.Stderr)
	spin.Start(progress)
	ctx := catalog.WithProgress(context.Background(), spin.Update)
	err = ctrl.Open(ctx, q)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	view := ctrl.View()
	switch format {
	case "json":
		return printJSON(os.Stdout, view)
	default:
		printListing(os.Stdout, view)
		if showFacets {
			fmt.Fprintln(os.Stdout)
			printFacets(os.Stdout, view.Facets)
		}
	}
	return nil
}
