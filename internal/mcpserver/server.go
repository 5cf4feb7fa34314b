// Package mcpserver implements an MCP (Model Context Protocol) server that
// exposes branch naming and creation as typed tools over stdio JSON-RPC.
// create_branch is only offered when creation is enabled.
package mcpserver

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/joestump/branchsmith/internal/config"
	"github.com/joestump/branchsmith/internal/creator"
)

// Redactor scrubs secrets from text returned to the client.
type Redactor interface {
	Redact(string) string
}

// Server holds the MCP server state and configuration.
type Server struct {
	creator       *creator.Service
	createEnabled bool
	redactor      Redactor
}

// NewServer creates an MCP server backed by svc. redactor may be nil.
func NewServer(svc *creator.Service, createEnabled bool, redactor Redactor) *Server {
	return &Server{
		creator:       svc,
		createEnabled: createEnabled,
		redactor:      redactor,
	}
}

// Tools returns the tools this server offers.
func (s *Server) Tools() []server.ServerTool {
	tools := []server.ServerTool{
		{Tool: previewBranchNameTool(), Handler: s.handlePreviewBranchName},
		{Tool: validateBranchNameTool(), Handler: s.handleValidateBranchName},
	}
	if s.createEnabled {
		tools = append(tools, server.ServerTool{Tool: createBranchTool(), Handler: s.handleCreateBranch})
	}
	return tools
}

// Run serves the tools over stdin/stdout. It blocks until ctx is cancelled
// or stdin is closed.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves the tools over the given streams.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	mcpServer := server.NewMCPServer(
		"branchsmith",
		config.Version,
		server.WithToolCapabilities(true),
	)
	mcpServer.AddTools(s.Tools()...)

	stdio := server.NewStdioServer(mcpServer)
	stdio.SetErrorLogger(log.New(os.Stderr, "[mcp] ", log.LstdFlags))

	return stdio.Listen(ctx, in, out)
}
