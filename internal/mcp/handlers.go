// ABOUTME: MCP tool handler implementations for the memory server
// ABOUTME: Each handler returns JSON text; bad input becomes a tool error, not a protocol error
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harper/factmemory/internal/core"
	"github.com/harper/factmemory/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const defaultMaxResults = 5

// MemoryLister lists stored memories
type MemoryLister interface {
	List(category models.Category) ([]models.Memory, error)
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	curator    *core.Curator
	hydrator   *core.ContextHydrator
	store      MemoryLister
	logger     *slog.Logger
	shutdownWg *sync.WaitGroup // in-flight tool calls
}

// track counts a call as in flight until it returns so Shutdown can wait for it
func (h *Handlers) track(fn mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		h.shutdownWg.Add(1)
		defer h.shutdownWg.Done()
		return fn(ctx, request)
	}
}

// RecordTurn handles the record_turn tool
func (h *Handlers) RecordTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message argument is required and must be a string"), nil
	}

	stored, err := h.curator.RecordTurn(ctx, message)
	if err != nil {
		h.logger.Warn("record_turn failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to record turn: %v", err)), nil
	}

	memories := make([]memoryView, len(stored))
	for i, m := range stored {
		memories[i] = newMemoryView(m)
	}
	return jsonResult(map[string]interface{}{
		"stored":   memories,
		"count":    len(memories),
		"degraded": h.curator.Health().State == models.HealthDegraded,
	})
}

// RetrieveMemory handles the retrieve_memory tool
func (h *Handlers) RetrieveMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	maxResults := request.GetInt("max_results", defaultMaxResults)
	if maxResults <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("max_results must be positive, got %d", maxResults)), nil
	}

	var results []models.ScoredMemory
	if raw := request.GetString("category", ""); raw != "" {
		category, err := models.ParseCategory(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		results, err = h.curator.RetrieveInCategory(ctx, query, category, maxResults)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("memory search failed: %v", err)), nil
		}
	} else {
		results, err = h.curator.Retrieve(ctx, query, maxResults)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("memory search failed: %v", err)), nil
		}
	}

	views := make([]scoredView, len(results))
	for i, r := range results {
		views[i] = scoredView{memoryView: newMemoryView(r.Memory), Score: r.Score, Scoped: r.Scoped}
	}
	return jsonResult(map[string]interface{}{
		"memories": views,
	})
}

// GetContext handles the get_context tool
func (h *Handlers) GetContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message argument is required and must be a string"), nil
	}
	maxTokens := request.GetInt("max_tokens", 0)

	var recent []core.ChatMessage
	if args, ok := request.Params.Arguments.(map[string]any); ok {
		if raw, exists := args["recent"]; exists {
			recent, err = parseMessages(raw)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
	}

	out, err := h.hydrator.Hydrate(ctx, message, recent, maxTokens)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build context: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{
		"context": out,
	})
}

// CompressMemory handles the compress_memory tool
func (h *Handlers) CompressMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	outcome := h.curator.MaybeCompress(ctx)

	response := map[string]interface{}{
		"status":  outcome.Status,
		"removed": outcome.Removed,
		"reason":  outcome.Reason,
	}
	if outcome.Summary != nil {
		response["summary"] = newMemoryView(*outcome.Summary)
	}
	return jsonResult(response)
}

// MemoryHealth handles the memory_health tool
func (h *Handlers) MemoryHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.curator.Health())
}

// ListMemories handles the list_memories tool
func (h *Handlers) ListMemories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var category models.Category
	if raw := request.GetString("category", ""); raw != "" {
		c, err := models.ParseCategory(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		category = c
	}

	stored, err := h.store.List(category)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list memories: %v", err)), nil
	}

	memories := make([]memoryView, len(stored))
	for i, m := range stored {
		memories[i] = newMemoryView(m)
	}
	return jsonResult(map[string]interface{}{
		"memories": memories,
		"count":    len(memories),
	})
}

// Shutdown waits for in-flight tool calls to finish
func (h *Handlers) Shutdown() {
	h.logger.Info("waiting for in-flight tool calls")
	h.shutdownWg.Wait()
	h.logger.Info("tool calls drained")
}

// memoryView is a memory without its embedding
type memoryView struct {
	ID         string          `json:"id"`
	Content    string          `json:"content"`
	Category   models.Category `json:"category"`
	CreatedAt  string          `json:"created_at"`
	Compressed bool            `json:"compressed"`
}

type scoredView struct {
	memoryView
	Score  float64 `json:"score"`
	Scoped bool    `json:"scoped"`
}

func newMemoryView(m models.Memory) memoryView {
	return memoryView{
		ID:         m.ID,
		Content:    m.Content,
		Category:   m.Category,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
		Compressed: m.Compressed,
	}
}

func parseMessages(raw interface{}) ([]core.ChatMessage, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("recent must be an array of {role, content} objects")
	}
	msgs := make([]core.ChatMessage, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("recent[%d] must be an object", i)
		}
		role, _ := obj["role"].(string)
		content, _ := obj["content"].(string)
		if content == "" {
			continue
		}
		msgs = append(msgs, core.ChatMessage{Role: role, Content: content})
	}
	return msgs, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
