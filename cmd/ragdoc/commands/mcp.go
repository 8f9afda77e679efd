// ABOUTME: MCP command starts the Model Context Protocol server
// ABOUTME: Exposes ingest, search, ask, and clear tools to LLM agents over stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/ragdoc/internal/app"
	"github.com/harper/ragdoc/internal/logger"
	"github.com/harper/ragdoc/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs ragdoc as an MCP (Model Context Protocol) server so LLM agents
can ingest documents, search them, and ask grounded questions via stdio.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by the agent host)
  ragdoc mcp

  # Configure in the host's MCP config:
  # {
  #   "mcpServers": {
  #     "ragdoc": {
  #       "command": "ragdoc",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cmd, cfg)

	// stdout carries the protocol, so progress output is not attached
	a, err := app.New(commandContext(cmd), cfg, log)
	if err != nil {
		return err
	}

	return serveMCP(commandContext(cmd), a, log)
}

// serveMCP serves the tools over stdio until a signal or server error
func serveMCP(parent context.Context, a *app.App, log logger.Logger) error {
	server := mcpserver.NewMCPServer(
		"ragdoc",
		versionInfo.Version,
		mcpserver.WithToolCapabilities(true),
	)

	handlers := mcp.RegisterTools(server, a.Pipeline, a.Retriever, log)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("MCP server starting on stdio", "store", a.Config.Store, "collection", a.Store.Collection())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		handlers.Shutdown()
		if err := a.Close(); err != nil {
			log.Warn("error closing store", "error", err)
		}
		log.Info("shutdown complete")
	case err := <-serverErr:
		handlers.Shutdown()
		_ = a.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
