package mcp

import (
	"github.com/mark3labs/mcp-go/server"
)

func newServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"pricehub",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	registerTools(s, deps)
	return s
}

// Serve starts the MCP stdio server with all tools registered.
func Serve(deps Deps) error {
	return server.ServeStdio(newServer(deps))
}
