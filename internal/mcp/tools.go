// ABOUTME: MCP tool definitions and registration for the memory server
// ABOUTME: Declares JSON schemas for the record, retrieve, context, compress, health and list tools
package mcp

import (
	"sync"

	"github.com/harper/factmemory/internal/app"
	"github.com/harper/factmemory/internal/logging"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ServerName and ServerVersion identify the MCP server to clients
const (
	ServerName    = "Fact Memory"
	ServerVersion = "0.2.0"
)

var categoryEnum = []string{"personal", "food", "travel", "misc"}

// NewServer creates an MCP server with every memory tool registered
func NewServer(a *app.App) (*mcpserver.MCPServer, *Handlers) {
	server := mcpserver.NewMCPServer(ServerName, ServerVersion)
	return server, RegisterTools(server, a)
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, a *app.App) *Handlers {
	handlers := &Handlers{
		curator:    a.Curator,
		hydrator:   a.Hydrator,
		store:      a.Store,
		logger:     logging.Component(a.Logger, "mcp"),
		shutdownWg: &sync.WaitGroup{},
	}

	// 1. record_turn - extract and store facts from a user message
	server.AddTool(mcp.Tool{
		Name:        "record_turn",
		Description: "Extract durable facts from a user message and store them as categorized memories. Works even when the reasoning service is down.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "User message to learn from",
				},
			},
			Required: []string{"message"},
		},
	}, handlers.track(handlers.RecordTurn))

	// 2. retrieve_memory - category-scoped semantic search
	server.AddTool(mcp.Tool{
		Name:        "retrieve_memory",
		Description: "Retrieve memories relevant to a query. The category is inferred unless given; scoped hits rank first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query for memory retrieval",
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of results to return (default: 5)",
					"default":     5,
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Optional category to scope the search to",
					"enum":        categoryEnum,
				},
			},
			Required: []string{"query"},
		},
	}, handlers.track(handlers.RetrieveMemory))

	// 3. get_context - prompt-ready context block
	server.AddTool(mcp.Tool{
		Name:        "get_context",
		Description: "Build a prompt context block with memories relevant to a message and the recent conversation, trimmed to a token budget.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Current user message",
				},
				"recent": map[string]interface{}{
					"type":        "array",
					"description": "Recent conversation, oldest first",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"role":    map[string]interface{}{"type": "string", "enum": []string{"user", "assistant"}},
							"content": map[string]interface{}{"type": "string"},
						},
					},
				},
				"max_tokens": map[string]interface{}{
					"type":        "number",
					"description": "Approximate token budget (0 for unlimited)",
					"default":     0,
				},
			},
			Required: []string{"message"},
		},
	}, handlers.track(handlers.GetContext))

	// 4. compress_memory - summarize the oldest memories
	server.AddTool(mcp.Tool{
		Name:        "compress_memory",
		Description: "Summarize the oldest memories into one compressed memory if the store is over its threshold.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.track(handlers.CompressMemory))

	// 5. memory_health - reasoning service status
	server.AddTool(mcp.Tool{
		Name:        "memory_health",
		Description: "Report whether the reasoning service is healthy, degraded or not yet used.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.track(handlers.MemoryHealth))

	// 6. list_memories - stored memories, optionally by category
	server.AddTool(mcp.Tool{
		Name:        "list_memories",
		Description: "List stored memories in the order they were remembered, optionally for one category.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Optional category filter",
					"enum":        categoryEnum,
				},
			},
		},
	}, handlers.track(handlers.ListMemories))

	return handlers
}
