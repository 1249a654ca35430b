package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/lukman83/pricehub/config"
	"github.com/lukman83/pricehub/internal/catalog"
	"github.com/lukman83/pricehub/internal/catalogapi"
	"github.com/lukman83/pricehub/internal/httputil"
	"github.com/lukman83/pricehub/internal/transport"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "pricehub",
	Short: "PriceHub - price comparison storefront CLI & MCP server",
	Long:  "Browse, filter and compare electronics prices, manage price alerts, business profiles and chats from the terminal.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("source", "", "Catalog source: api, file (default from $PRICEHUB_SOURCE or api)")
	rootCmd.PersistentFlags().String("catalog-url", "", "Catalog API base URL")
	rootCmd.PersistentFlags().String("catalog-file", "", "Path to a JSON catalog dump (for --source file)")
	rootCmd.PersistentFlags().String("proxy", "", "HTTP proxy URL for backend calls")
	rootCmd.PersistentFlags().String("state-file", "", "Path to the local session and cache file")
}

func initConfig() {
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	// Override from flags
	if v, _ := rootCmd.PersistentFlags().GetString("source"); v != "" {
		cfg.Source = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("catalog-url"); v != "" {
		cfg.CatalogURL = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("catalog-file"); v != "" {
		cfg.CatalogFile = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("proxy"); v != "" {
		cfg.ProxyURL = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("state-file"); v != "" {
		cfg.StateFile = v
	}
}

// buildHTTPClient creates the rate-limited HTTP client shared by every backend.
func buildHTTPClient() (*http.Client, error) {
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)
	rt, err := transport.New(limiter, cfg.ProxyURL)
	if err != nil {
		return nil, err
	}
	return httputil.NewHTTPClient(rt, cfg.RequestTimeout), nil
}

// initSources registers all available catalog sources.
func initSources(client *http.Client) {
	catalog.Register("api", catalogapi.NewAPISource(client, cfg.CatalogURL, cfg.MaxConcurrent))
	if cfg.CatalogFile != "" {
		catalog.Register("file", catalogapi.NewFileSource(cfg.CatalogFile))
	}
}

// currentSource returns the configured catalog source.
func currentSource() (catalog.Source, error) {
	client, err := buildHTTPClient()
	if err != nil {
		return nil, err
	}
	return sourceFor(client)
}

func sourceFor(client *http.Client) (catalog.Source, error) {
	initSources(client)
	return catalog.Get(cfg.Source)
}
