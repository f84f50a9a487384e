// Package memory distills conversations into durable project memory: an
// extractive summarizer for decision-bearing replies, a cross-persona
// compressor, and the memory updater that folds both into ProjectMemory
// after each turn.
package memory

import (
	"strings"
	"time"

	"github.com/founderloop/compass/internal/journey"
	"github.com/founderloop/compass/internal/persona"
)

const (
	// MaxInsightChars truncates individual extracted insights
	MaxInsightChars = 150
	// MaxCrossSummaryChars truncates cross-persona one-liners
	MaxCrossSummaryChars = 100
	// UpdateMaxInsights is how many insights one turn may contribute
	UpdateMaxInsights = 3
)

// SummarizeConversation walks messages in (user, assistant) pairs in
// chronological order and collects assistant replies that contain any of the
// decision markers, each truncated to MaxInsightChars with newlines
// flattened and a trailing ellipsis. Stops at maxInsights. Returns fewer if
// not enough qualifying pairs exist; never errors.
//
// This is a heuristic extractive summarizer — no model call. The LLM-backed
// Extractor in this package implements the same contract for deployments
// that want it.
func SummarizeConversation(messages []journey.Message, markers []string, maxInsights int) []string {
	var insights []string
	if maxInsights <= 0 {
		return insights
	}

	for i := 0; i+1 < len(messages); i++ {
		if messages[i].Role != "user" || messages[i+1].Role != "assistant" {
			continue
		}
		reply := messages[i+1].Content
		if !containsMarker(reply, markers) {
			continue
		}
		insights = append(insights, truncateInsight(reply))
		if len(insights) >= maxInsights {
			break
		}
	}
	return insights
}

// containsMarker reports whether text contains any marker, case-insensitively.
func containsMarker(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if m == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// truncateInsight flattens newlines and truncates to MaxInsightChars with a
// trailing ellipsis.
func truncateInsight(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	if len(flat) > MaxInsightChars {
		flat = flat[:MaxInsightChars]
	}
	return flat + "..."
}

// CompressHelperConversations reduces each helper's recent conversation to
// its most recent assistant message's first sentence, truncated to
// MaxCrossSummaryChars. Entries with no assistant message emit no key.
// Deterministic, no side effects.
func CompressHelperConversations(conversations []journey.HelperConversation) map[persona.Helper]string {
	out := make(map[persona.Helper]string)

	for _, conv := range conversations {
		if len(conv.RecentMessages) == 0 {
			continue
		}
		var last string
		for i := len(conv.RecentMessages) - 1; i >= 0; i-- {
			if conv.RecentMessages[i].Role == "assistant" {
				last = conv.RecentMessages[i].Content
				break
			}
		}
		if last == "" {
			continue
		}
		out[conv.Helper] = firstSentence(last, MaxCrossSummaryChars)
	}
	return out
}

// firstSentence returns the text before the first sentence-terminal
// punctuation mark, trimmed and capped at maxChars.
func firstSentence(text string, maxChars int) string {
	if idx := strings.IndexAny(text, ".!?"); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return text
}

// Update returns a new ProjectMemory with this turn folded in: extracted
// decisions overwrite the corresponding fields, new insights from the
// summarizer are appended to the helper's list, and the combined list is
// trimmed to the most recent MaxInsightsPerHelper entries. The input memory
// is not mutated.
func Update(current journey.ProjectMemory, helper persona.Helper, newMessages []journey.Message, decisions *journey.ExtractedDecisions, markers []string) journey.ProjectMemory {
	next := current.Clone()
	if next.HelperInsights == nil {
		next.HelperInsights = journey.NewProjectMemory().HelperInsights
	}

	if decisions != nil {
		if decisions.ProblemStatement != nil {
			next.ProblemStatement = *decisions.ProblemStatement
		}
		if decisions.TargetAudience != nil {
			next.TargetAudience = *decisions.TargetAudience
		}
		if decisions.ValueProposition != nil {
			next.ValueProposition = *decisions.ValueProposition
		}
		if decisions.MVPScope != nil {
			next.MVPScope = *decisions.MVPScope
		}
		if decisions.TechStack != nil {
			next.TechStack = *decisions.TechStack
		}
		if decisions.CurrentFocus != nil {
			next.CurrentFocus = *decisions.CurrentFocus
		}
	}

	insights := SummarizeConversation(newMessages, markers, UpdateMaxInsights)
	if len(insights) > 0 {
		key := helper.String()
		combined := append(next.HelperInsights[key], insights...)
		if len(combined) > journey.MaxInsightsPerHelper {
			combined = combined[len(combined)-journey.MaxInsightsPerHelper:]
		}
		next.HelperInsights[key] = combined
	}

	next.LastUpdated = time.Now()
	return next
}
