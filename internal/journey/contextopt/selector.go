package contextopt

import (
	"sort"

	"github.com/founderloop/compass/internal/tokens"
)

// DefaultTokenBudget is the ceiling used when no deployment override is
// configured.
const DefaultTokenBudget = 3500

// Eviction floor sizes. The selector never shrinks below these.
const (
	evictedRecentMessages = 4
	evictedActiveTasks    = 3
)

// RenderFunc renders a context into the instruction text that will actually
// be sent, used for the precise second-phase token estimate. The prompt
// package supplies it; a nil RenderFunc keeps the structural estimate.
type RenderFunc func(*OptimizedContext) string

// Select enforces the token budget over a built context. While the estimate
// exceeds maxTokens it applies one eviction step per pass, in strict
// priority order, re-estimating after each step:
//
//  1. drop one cross-helper summary (lexically last key)
//  2. shrink recent messages to the last 4
//  3. shrink active tasks to the first 3
//
// When no step can make progress the loop stops at the floor: core project,
// memory, and a minimal session are preserved as-is even if still over
// budget. The returned EstimatedTokens is then recomputed from the rendered
// instruction string and is informational, not a guarantee — callers must
// not assume it is within the requested ceiling.
//
// The input context is not modified; a pruned copy is returned. The loop
// terminates for any maxTokens, including 0.
func Select(full *OptimizedContext, maxTokens int, render RenderFunc) *OptimizedContext {
	ctx := cloneContext(full)

	for ctx.EstimatedTokens > maxTokens {
		if !evictOne(ctx) {
			break // irreducible floor reached, return best effort
		}
		ctx.EstimatedTokens = structuralEstimate(ctx)
	}

	if render != nil {
		ctx.EstimatedTokens = tokens.Estimate(render(ctx))
	}
	return ctx
}

// evictOne applies the single cheapest eviction step that still makes
// progress. Returns false when nothing above the floor remains.
func evictOne(ctx *OptimizedContext) bool {
	if len(ctx.CrossHelperSummaries) > 0 {
		delete(ctx.CrossHelperSummaries, lastKey(ctx.CrossHelperSummaries))
		return true
	}

	if recent := ctx.CurrentSession.RecentMessages; len(recent) > evictedRecentMessages {
		ctx.CurrentSession.RecentMessages = recent[len(recent)-evictedRecentMessages:]
		return true
	}

	if len(ctx.CurrentSession.ActiveTasks) > evictedActiveTasks {
		ctx.CurrentSession.ActiveTasks = ctx.CurrentSession.ActiveTasks[:evictedActiveTasks]
		return true
	}

	return false
}

// lastKey returns the lexically last key, making eviction order
// deterministic despite map iteration order.
func lastKey(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[len(keys)-1]
}

// cloneContext copies the tiers the selector may shrink so the caller's
// context survives intact.
func cloneContext(src *OptimizedContext) *OptimizedContext {
	dst := *src
	dst.Memory = src.Memory.Clone()
	dst.CurrentSession.ActiveTasks = append([]TaskSummary(nil), src.CurrentSession.ActiveTasks...)
	dst.CurrentSession.RecentMessages = lastN(src.CurrentSession.RecentMessages, len(src.CurrentSession.RecentMessages))
	dst.CrossHelperSummaries = make(map[string]string, len(src.CrossHelperSummaries))
	for k, v := range src.CrossHelperSummaries {
		dst.CrossHelperSummaries[k] = v
	}
	return &dst
}
