// ABOUTME: Fact extraction strategies: reasoning service, local rules, and the fallback composition
// ABOUTME: Service output is parsed leniently and repaired with jsonrepair before giving up
package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/harper/factmemory/internal/logging"
	"github.com/harper/factmemory/internal/models"
	"github.com/kaptinlin/jsonrepair"
)

// ErrMalformedOutput means the service answered but the answer could not be parsed
var ErrMalformedOutput = errors.New("malformed service output")

// Extractor turns a conversation turn into candidate facts. It never persists.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]models.Fact, error)
}

const extractionSystemPrompt = "You extract durable facts about the user from chat messages. You answer with JSON only."

const extractionPromptTemplate = `From this user message, extract important factual information about the user.
Output ONLY a JSON array of objects, each with "content" and "category".
Categories must be one of: %s.
If nothing factual, return [].
Example: [{"content": "likes Thai food", "category": "food"}, {"content": "allergic to peanuts", "category": "personal"}]

User message: %s`

// ServiceExtractor asks the reasoning service for facts
type ServiceExtractor struct {
	coord *Coordinator
}

// NewServiceExtractor creates a ServiceExtractor that calls through coord
func NewServiceExtractor(coord *Coordinator) *ServiceExtractor {
	return &ServiceExtractor{coord: coord}
}

// Extract returns ErrServiceUnavailable or ErrMalformedOutput on failure
func (e *ServiceExtractor) Extract(ctx context.Context, text string) ([]models.Fact, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []models.Fact{}, nil
	}

	categories, _ := json.Marshal(models.Categories)
	prompt := fmt.Sprintf(extractionPromptTemplate, categories, text)

	out, err := e.coord.Complete(ctx, "extract", extractionSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	facts, err := ParseFacts(out)
	if err != nil {
		e.coord.RecordFailure("extract", err)
		return nil, err
	}
	return facts, nil
}

type serviceFact struct {
	Content  string `json:"content"`
	Category string `json:"category"`
}

var codeFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// ParseFacts decodes a service answer into facts. It accepts a bare array or
// an object with a "facts" array, strips Markdown fences and repairs broken JSON.
// Unknown categories become misc; empty and duplicate contents are dropped.
func ParseFacts(raw string) ([]models.Fact, error) {
	raw = strings.TrimSpace(raw)
	if m := codeFence.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	if raw == "" {
		return nil, fmt.Errorf("%w: empty answer", ErrMalformedOutput)
	}

	items, err := decodeFacts(raw)
	if err != nil {
		if start, end := strings.Index(raw, "["), strings.LastIndex(raw, "]"); start >= 0 && end > start {
			items, err = decodeFacts(raw[start : end+1])
		}
	}
	if err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(raw)
		if repairErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
		items, err = decodeFacts(repaired)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
	}

	facts := make([]models.Fact, 0, len(items))
	for _, item := range items {
		facts = append(facts, models.Fact{
			Content:  item.Content,
			Category: models.NormalizeCategory(item.Category),
		})
	}
	return models.DedupeFacts(facts), nil
}

func decodeFacts(raw string) ([]serviceFact, error) {
	var items []serviceFact
	arrErr := json.Unmarshal([]byte(raw), &items)
	if arrErr == nil {
		return items, nil
	}

	var wrapper struct {
		Facts *[]serviceFact `json:"facts"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapper); err == nil && wrapper.Facts != nil {
		return *wrapper.Facts, nil
	}
	return nil, arrErr
}

// FallbackExtractor tries the service when the coordinator allows it and
// falls back to local rules on any failure or empty answer
type FallbackExtractor struct {
	coord   *Coordinator
	service Extractor
	local   Extractor
	logger  *slog.Logger
}

// NewFallbackExtractor composes the service and local strategies around coord
func NewFallbackExtractor(coord *Coordinator, logger *slog.Logger) *FallbackExtractor {
	return &FallbackExtractor{
		coord:   coord,
		service: NewServiceExtractor(coord),
		local:   NewLocalExtractor(),
		logger:  logging.Component(logger, "extractor"),
	}
}

// Extract always succeeds unless ctx is cancelled
func (e *FallbackExtractor) Extract(ctx context.Context, text string) ([]models.Fact, error) {
	if e.coord.ShouldAttempt() {
		facts, err := e.service.Extract(ctx, text)
		switch {
		case err == nil && len(facts) > 0:
			e.logger.Debug("service extraction", "facts", len(facts))
			return facts, nil
		case err == nil:
			e.logger.Debug("service found no facts, trying local rules")
		default:
			e.logger.Info("service extraction failed, using local rules", "error", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	facts, _ := e.local.Extract(ctx, text)
	e.logger.Debug("local extraction", "facts", len(facts))
	return facts, nil
}
