// ABOUTME: Main entry point for the ragdoc MCP server with stdio transport
// ABOUTME: Assembles the pipeline from config and serves the document tools
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/ragdoc/internal/app"
	"github.com/harper/ragdoc/internal/config"
	"github.com/harper/ragdoc/internal/logger"
	"github.com/harper/ragdoc/internal/mcp"
)

func main() {
	log := logger.New(logger.DefaultConfig())

	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found", "error", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log = logger.New(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	server := mcpserver.NewMCPServer(
		"ragdoc",
		"0.1.0",
		mcpserver.WithToolCapabilities(true),
	)

	handlers := mcp.RegisterTools(server, a.Pipeline, a.Retriever, log)
	defer handlers.Shutdown()

	log.Info("ragdoc MCP server starting on stdio", "store", cfg.Store, "collection", cfg.Collection)
	if err := mcpserver.ServeStdio(server); err != nil {
		log.Error("server error", "error", err)
	}
}
