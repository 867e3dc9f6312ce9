// ABOUTME: ContextHydrator assembles prompt context from retrieved memories and recent conversation
// ABOUTME: Enforces a token budget by dropping the oldest turns and weakest memories first
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/factmemory/internal/models"
)

const (
	memoriesHeader     = "Relevant memories:"
	conversationHeader = "Recent conversation:"
	noMessages         = "(No previous messages)"
	charsPerToken      = 4
)

// ChatMessage is one line of the short-term conversation buffer
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Searcher finds memories relevant to a query
type Searcher interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.ScoredMemory, error)
}

// ContextHydrator builds the context block handed to a chat model
type ContextHydrator struct {
	searcher Searcher
	topK     int
}

// NewContextHydrator creates a hydrator that retrieves up to topK memories
func NewContextHydrator(searcher Searcher, topK int) *ContextHydrator {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &ContextHydrator{searcher: searcher, topK: topK}
}

// Hydrate retrieves memories for message and renders them with the recent
// conversation. maxTokens <= 0 means no limit.
func (ch *ContextHydrator) Hydrate(ctx context.Context, message string, recent []ChatMessage, maxTokens int) (string, error) {
	var memories []models.ScoredMemory
	if ch.searcher != nil && strings.TrimSpace(message) != "" {
		found, err := ch.searcher.Retrieve(ctx, message, ch.topK)
		if err != nil {
			return "", fmt.Errorf("failed to retrieve memories: %w", err)
		}
		memories = found
	}
	return RenderContext(memories, recent, maxTokens), nil
}

// RenderContext formats memories and conversation. Memories are assumed to
// be ordered best first. Over budget, older messages go first, then trailing
// memories, then the latest message; the conversation header always remains.
func RenderContext(memories []models.ScoredMemory, recent []ChatMessage, maxTokens int) string {
	render := func(mems []models.ScoredMemory, msgs []ChatMessage) string {
		var parts []string
		if len(mems) > 0 {
			parts = append(parts, memoriesHeader+"\n"+formatMemories(mems))
		}
		parts = append(parts, conversationHeader+"\n"+formatConversation(msgs))
		return strings.Join(parts, "\n\n")
	}

	out := render(memories, recent)
	if maxTokens <= 0 {
		return out
	}

	maxChars := maxTokens * charsPerToken
	for len(out) > maxChars && len(recent) > 1 {
		recent = recent[1:]
		out = render(memories, recent)
	}
	for len(out) > maxChars && len(memories) > 0 {
		memories = memories[:len(memories)-1]
		out = render(memories, recent)
	}
	if len(out) > maxChars && len(recent) > 0 {
		out = render(memories, nil)
	}
	return out
}

func formatMemories(memories []models.ScoredMemory) string {
	lines := make([]string, len(memories))
	for i, m := range memories {
		lines[i] = fmt.Sprintf("- [%s] %s", m.Memory.Category, m.Memory.Content)
	}
	return strings.Join(lines, "\n")
}

func formatConversation(msgs []ChatMessage) string {
	if len(msgs) == 0 {
		return noMessages
	}
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		prefix := "User:"
		if m.Role != "user" {
			prefix = "Assistant:"
		}
		lines[i] = prefix + " " + m.Content
	}
	return strings.Join(lines, "\n")
}
