package cmd

import (
	"fmt"
	"log"

	mcpserver "github.com/lukman83/pricehub/mcp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP stdio server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// mcpDeps builds the read-only backends exposed over MCP. No user session is
// attached: MCP clients only see public data.
func mcpDeps() (mcpserver.Deps, error) {
	svc, err := newServices()
	if err != nil {
		return mcpserver.Deps{}, err
	}
	return mcpserver.Deps{
		Source:   svc.source,
		Business: svc.business,
		PerPage:  cfg.ProductsPerPage,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	deps, err := mcpDeps()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting PriceHub MCP server on stdio...")

	if err := mcpserver.Serve(deps); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
	return nil
}
