package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studymate/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so an AI assistant can ingest
documents and ask questions about them.

By default the server communicates over stdio. Use --port to serve
streamable HTTP instead, for example to test with the MCP Inspector.

Examples:
  # Stdio mode (default)
  studymate mcp serve

  # HTTP mode on a course collection
  studymate mcp serve --port 8080 --collection biology

Client configuration:
  {
    "mcpServers": {
      "studymate": {
        "command": "/path/to/studymate",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	p, err := requirePipeline(cmd.Context())
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Study:      p.Study,
		Sessions:   p.Sessions,
		Collection: collectionName(),
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.PrintErrf("MCP server listening on http://localhost%s (collection %s)\n", addr, server.Collection())
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
