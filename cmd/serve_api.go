package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lukman83/pricehub/internal/gateway"
	"github.com/spf13/cobra"
)

var serveAPICmd = &cobra.Command{
	Use:   "serve-api",
	Short: "Start the JSON API gateway for listing, search and compare pages",
	RunE:  runServeAPI,
}

func init() {
	serveAPICmd.Flags().String("port", "", "HTTP port (default from $PRICEHUB_GATEWAY_PORT or 8081)")
	serveAPICmd.Flags().String("origins", "", "Allowed CORS origins (default from $PRICEHUB_ALLOWED_ORIGINS or *)")
	rootCmd.AddCommand(serveAPICmd)
}

func runServeAPI(cmd *cobra.Command, args []string) error {
	src, err := currentSource()
	if err != nil {
		return err
	}

	port := cfg.GatewayPort
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}
	origins := cfg.AllowedOrigins
	if o, _ := cmd.Flags().GetString("origins"); o != "" {
		origins = o
	}

	app := gateway.New(gateway.Config{
		Source:         src,
		PerPage:        cfg.ProductsPerPage,
		AllowedOrigins: origins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Println("[gateway] shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("[gateway] shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%s", port)
	log.Printf("[gateway] PriceHub API listening on %s (source %s)", addr, src.Name())
	return app.Listen(addr)
}
