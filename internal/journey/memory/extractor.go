package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/founderloop/compass/internal/journey"
)

// ExtractDecisionsPrompt asks the model for the durable decision fields of
// one turn. Fields the conversation did not decide must be omitted.
const ExtractDecisionsPrompt = `Analyze the following coaching conversation and extract any durable product decisions the founder made this turn.

Return a JSON object with any of these keys, all optional — omit a key entirely if that decision was not made or changed in this conversation:
- "problem_statement": the validated problem being solved
- "target_audience": who the product is for
- "value_proposition": why users would choose it
- "mvp_scope": what the MVP does and does not include
- "tech_stack": the chosen technologies
- "current_focus": what the founder is working on right now

Skip greetings, speculation, and options that were merely discussed. Only include decisions that were actually settled.

Conversation to analyze:
%s

Respond ONLY with valid JSON, no other text.`

// Extractor extracts decision fields from a conversation using the
// Anthropic API. It is the model-backed counterpart to the heuristic
// summarizer: same inputs, richer output, an API call per turn.
type Extractor struct {
	client anthropic.Client
	model  string
}

// NewExtractor creates an extractor. Model comes from config, not hardcoded.
func NewExtractor(apiKey, model string) *Extractor {
	return &Extractor{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Extract asks the model for decisions made in messages. A conversation
// with no decisions yields an empty (all-nil) result, not an error.
func (e *Extractor) Extract(ctx context.Context, messages []journey.Message) (*journey.ExtractedDecisions, error) {
	if len(messages) == 0 {
		return &journey.ExtractedDecisions{}, nil
	}

	var conv strings.Builder
	for _, msg := range messages {
		if msg.Content != "" {
			fmt.Fprintf(&conv, "[%s]: %s\n\n", msg.Role, msg.Content)
		}
	}

	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(ExtractDecisionsPrompt, conv.String()))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(b.Text)
		}
	}

	raw := extractJSONObject(text.String())
	if raw == "" {
		// Model returned prose instead of JSON — treat as no decisions
		return &journey.ExtractedDecisions{}, nil
	}

	var decisions journey.ExtractedDecisions
	if err := json.Unmarshal([]byte(raw), &decisions); err != nil {
		return nil, fmt.Errorf("failed to parse extracted decisions: %w", err)
	}
	return &decisions, nil
}

// extractJSONObject pulls the first balanced JSON object out of a model
// response, stripping markdown code fences. Returns "" if none is found.
func extractJSONObject(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	s = strings.Trim(s, "`")

	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
