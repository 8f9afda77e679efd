// ABOUTME: MCP tool handler implementations for the ragdoc server
// ABOUTME: Handlers report failures as tool errors and return JSON text results
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/ragdoc/internal/ingest"
	"github.com/harper/ragdoc/internal/logger"
	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/retrieve"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	pipeline   *ingest.Pipeline
	retriever  *retrieve.Retriever
	log        logger.Logger
	shutdownWg *sync.WaitGroup // Track in-flight tool calls
}

type searchResponse struct {
	Query   string                `json:"query"`
	Results []models.SearchResult `json:"results"`
}

// track counts a tool call as in flight until it returns
func (h *Handlers) track(fn mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		h.shutdownWg.Add(1)
		defer h.shutdownWg.Done()
		return fn(ctx, request)
	}
}

// IngestDocument handles the ingest_document tool
func (h *Handlers) IngestDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil || path == "" {
		return mcp.NewToolResultError("path argument is required and must be a string"), nil
	}
	source := request.GetString("source", "")

	info, err := os.Stat(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot read %s: %v", path, err)), nil
	}
	if info.IsDir() {
		return mcp.NewToolResultError(fmt.Sprintf("%s is a directory", path)), nil
	}

	res, err := h.pipeline.IngestFile(ctx, path, source)
	if err != nil {
		h.log.Warn("ingest failed", "path", path, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("ingest failed: %v", err)), nil
	}
	return jsonResult(res)
}

// SearchDocuments handles the search_documents tool
func (h *Handlers) SearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	maxResults := request.GetInt("max_results", h.retriever.Limit())

	results, err := h.retriever.SearchN(ctx, query, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	return jsonResult(searchResponse{Query: query, Results: results})
}

// AskDocuments handles the ask_documents tool
func (h *Handlers) AskDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}

	answer, err := h.retriever.Ask(ctx, question, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answer failed: %v", err)), nil
	}
	if answer.Sources == nil {
		answer.Sources = []models.SearchResult{}
	}
	return jsonResult(answer)
}

// ClearDocuments handles the clear_documents tool
func (h *Handlers) ClearDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !request.GetBool("confirm", false) {
		return mcp.NewToolResultError("confirm must be true to delete the collection"), nil
	}
	if err := h.pipeline.Clear(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clear failed: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{"cleared": true})
}

// Shutdown waits for in-flight tool calls to complete
func (h *Handlers) Shutdown() {
	h.log.Info("waiting for pending tool calls")
	h.shutdownWg.Wait()
	h.log.Info("all tool calls completed")
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
