// Package contextopt assembles and budgets the per-turn context sent to the
// LLM. Build produces a tiered context with a cheap structural token
// estimate; Select evicts lower-priority tiers in strict order until the
// estimate fits the budget, then recomputes the estimate from the rendered
// instruction text. Cheap filtering first, accurate accounting last.
package contextopt

import (
	"github.com/founderloop/compass/internal/journey"
	"github.com/founderloop/compass/internal/persona"
)

// Tier limits applied by the builder.
const (
	MaxDescriptionChars = 300
	MaxGoalChars        = 200
	MaxTaskDescChars    = 150
	MaxActiveTasks      = 5
	MaxRecentMessages   = 6
	MaxCrossSummaries   = 3
)

// CoreProject is the always-present floor of the context. The selector
// never touches it.
type CoreProject struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Goal        string `json:"goal,omitempty"`
}

// TaskSummary is the budgeted view of one active task.
type TaskSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Status      string `json:"status"`
}

// SessionContext is the current-session tier.
type SessionContext struct {
	Helper         persona.Helper    `json:"-"`
	HelperID       string            `json:"helper"`
	ActiveTasks    []TaskSummary     `json:"active_tasks,omitempty"`
	RecentMessages []journey.Message `json:"recent_messages,omitempty"`
}

// OptimizedContext is the disposable per-turn context payload. Constructed
// fresh each turn, consumed by the instruction templater, never persisted.
type OptimizedContext struct {
	CoreProject          CoreProject           `json:"core_project"`
	Memory               journey.ProjectMemory `json:"memory"`
	CurrentSession       SessionContext        `json:"current_session"`
	CrossHelperSummaries map[string]string     `json:"cross_helper_summaries,omitempty"`
	EstimatedTokens      int                   `json:"estimated_tokens"`
}

// BuildParams are the raw inputs to the builder. Missing optional inputs
// default to empty collections; no field may cause a nil dereference.
type BuildParams struct {
	ProjectName        string
	ProjectDescription string
	ProjectGoal        string
	CurrentHelper      persona.Helper
	ActiveTasks        []journey.Task
	RecentMessages     []journey.Message
	Memory             *journey.ProjectMemory // nil synthesizes an empty memory
	OtherHelpers       []journey.HelperConversation
	CompletedTasks     []journey.CompletedTask
}
