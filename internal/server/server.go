// Package server adapts the operation registry onto the MCP protocol.
// Wiring only; dispatch semantics live in internal/dispatch.
package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"dealdesk/internal/dispatch"
)

// New builds the MCP server and registers every operation of the
// dispatcher's registry as a tool.
func New(name, version string, d *dispatch.Dispatcher) (*server.MCPServer, error) {
	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	for _, op := range d.Registry.Describe() {
		schema, err := json.Marshal(op.Schema)
		if err != nil {
			return nil, fmt.Errorf("schema for %s: %w", op.Name, err)
		}
		tool := mcp.NewToolWithRawSchema(op.Name, op.Description, schema)
		opName := op.Name
		s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			env := d.Handle(ctx, opName, req.GetArguments())
			return toCallToolResult(env), nil
		})
	}
	return s, nil
}

// ServeStdio blocks serving the MCP stdio transport.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// toCallToolResult converts a dispatch envelope into the protocol
// result. Every dispatch outcome maps to a result, never to a
// protocol-level error.
func toCallToolResult(env dispatch.Envelope) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(env.Content))
	for _, c := range env.Content {
		content = append(content, mcp.NewTextContent(c.Text))
	}
	return &mcp.CallToolResult{Content: content, IsError: env.IsError}
}
