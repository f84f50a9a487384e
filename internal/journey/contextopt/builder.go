package contextopt

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/founderloop/compass/internal/journey"
	"github.com/founderloop/compass/internal/journey/memory"
	"github.com/founderloop/compass/internal/tokens"
)

// Build assembles a tiered context from raw inputs and attaches the initial
// structural token estimate. Never errors: absent inputs become empty
// collections.
func Build(params BuildParams) *OptimizedContext {
	mem := journey.NewProjectMemory()
	if params.Memory != nil {
		mem = params.Memory.Clone()
	}
	mem.CompletedMilestones = groupMilestones(params.CompletedTasks)

	ctx := &OptimizedContext{
		CoreProject: CoreProject{
			Name:        params.ProjectName,
			Description: truncate(params.ProjectDescription, MaxDescriptionChars),
			Goal:        truncate(params.ProjectGoal, MaxGoalChars),
		},
		Memory: mem,
		CurrentSession: SessionContext{
			Helper:         params.CurrentHelper,
			HelperID:       params.CurrentHelper.String(),
			ActiveTasks:    summarizeTasks(params.ActiveTasks),
			RecentMessages: lastN(params.RecentMessages, MaxRecentMessages),
		},
		CrossHelperSummaries: compressOthers(params.OtherHelpers),
	}

	ctx.EstimatedTokens = structuralEstimate(ctx)
	return ctx
}

// groupMilestones counts completed tasks per level and formats the counts as
// compact progress strings, keeping the MaxMilestones most recent levels in
// ascending level order.
func groupMilestones(completed []journey.CompletedTask) []string {
	if len(completed) == 0 {
		return nil
	}

	counts := make(map[int]int)
	for _, t := range completed {
		counts[t.Level]++
	}

	levels := make([]int, 0, len(counts))
	for lvl := range counts {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)

	// Most recent level groups only
	if len(levels) > journey.MaxMilestones {
		levels = levels[len(levels)-journey.MaxMilestones:]
	}

	out := make([]string, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, fmt.Sprintf("L%d: %d tasks", lvl, counts[lvl]))
	}
	return out
}

// summarizeTasks keeps tasks that are required or already started, capped at
// MaxActiveTasks with descriptions truncated.
func summarizeTasks(active []journey.Task) []TaskSummary {
	var out []TaskSummary
	for _, t := range active {
		if !t.Required && t.Status == journey.TaskTodo {
			continue
		}
		out = append(out, TaskSummary{
			ID:          t.ID,
			Title:       t.Title,
			Description: truncate(t.Description, MaxTaskDescChars),
			Required:    t.Required,
			Status:      t.Status,
		})
		if len(out) >= MaxActiveTasks {
			break
		}
	}
	return out
}

// compressOthers compresses at most the first MaxCrossSummaries helper
// conversations into one-line summaries keyed by helper identifier.
func compressOthers(others []journey.HelperConversation) map[string]string {
	if len(others) > MaxCrossSummaries {
		others = others[:MaxCrossSummaries]
	}
	compressed := memory.CompressHelperConversations(others)
	out := make(map[string]string, len(compressed))
	for h, summary := range compressed {
		out[h.String()] = summary
	}
	return out
}

// structuralEstimate sums the token estimates of each JSON-serialized tier.
// This is the cheap first-phase estimate; Select replaces it with a
// rendered-text estimate once eviction settles.
func structuralEstimate(ctx *OptimizedContext) int {
	total := 0
	for _, section := range []any{ctx.CoreProject, ctx.Memory, ctx.CurrentSession, ctx.CrossHelperSummaries} {
		data, err := json.Marshal(section)
		if err != nil {
			continue
		}
		total += tokens.Estimate(string(data))
	}
	return total
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func lastN(msgs []journey.Message, n int) []journey.Message {
	if len(msgs) <= n {
		return append([]journey.Message(nil), msgs...)
	}
	return append([]journey.Message(nil), msgs[len(msgs)-n:]...)
}
