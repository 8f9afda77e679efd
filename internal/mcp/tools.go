// ABOUTME: MCP tool definitions and registration for the ragdoc server
// ABOUTME: Declares JSON schemas for the ingest, search, ask, and clear document tools
package mcp

import (
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/ragdoc/internal/ingest"
	"github.com/harper/ragdoc/internal/logger"
	"github.com/harper/ragdoc/internal/retrieve"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, pipeline *ingest.Pipeline, retriever *retrieve.Retriever, log logger.Logger) *Handlers {
	handlers := NewHandlers(pipeline, retriever, log)

	// 1. ingest_document - chunk, embed, and store a PDF or text file
	server.AddTool(mcp.Tool{
		Name:        "ingest_document",
		Description: "Ingest a PDF or plain-text file into the document collection. The text is split into semantically coherent chunks, embedded, and stored for retrieval.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path of the file to ingest",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Optional source name stored with each chunk (default: file name)",
				},
			},
			Required: []string{"path"},
		},
	}, handlers.track(handlers.IngestDocument))

	// 2. search_documents - nearest chunks for a query
	server.AddTool(mcp.Tool{
		Name:        "search_documents",
		Description: "Search ingested documents and return the most similar chunks with their scores.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of chunks to return (default: 7)",
					"default":     retrieve.DefaultLimit,
				},
			},
			Required: []string{"query"},
		},
	}, handlers.track(handlers.SearchDocuments))

	// 3. ask_documents - answer grounded on retrieved chunks
	server.AddTool(mcp.Tool{
		Name:        "ask_documents",
		Description: "Answer a question using only the chunks retrieved from ingested documents. Returns the answer and its sources.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question to answer",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.track(handlers.AskDocuments))

	// 4. clear_documents - drop the collection
	server.AddTool(mcp.Tool{
		Name:        "clear_documents",
		Description: "Delete every ingested chunk by dropping the document collection. Requires confirm=true.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"confirm": map[string]interface{}{
					"type":        "boolean",
					"description": "Must be true to delete the collection",
				},
			},
			Required: []string{"confirm"},
		},
	}, handlers.track(handlers.ClearDocuments))

	return handlers
}

// NewHandlers builds the tool handlers without registering them
func NewHandlers(pipeline *ingest.Pipeline, retriever *retrieve.Retriever, log logger.Logger) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	return &Handlers{
		pipeline:   pipeline,
		retriever:  retriever,
		log:        log.With("component", "mcp"),
		shutdownWg: &sync.WaitGroup{},
	}
}
