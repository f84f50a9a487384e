// Package journey holds the domain types shared by the context budgeting
// pipeline: conversation messages, tasks, and the durable project memory.
package journey

import (
	"time"

	"github.com/founderloop/compass/internal/persona"
)

// Message is one conversation message. Append-only within a session;
// immutable once created.
type Message struct {
	Role      string    `json:"role"` // user, assistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Task is one journey task as read from the task collaborator.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Status      string `json:"status"` // todo, in_progress, done
	XPReward    int    `json:"xp_reward"`
}

// Task status values.
const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
)

// CompletedTask records an all-time completed task tagged with its level.
type CompletedTask struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Level int    `json:"level"`
}

// HelperConversation carries another helper's recent messages, the input to
// cross-persona compression.
type HelperConversation struct {
	Helper         persona.Helper
	RecentMessages []Message
}

// ProjectMemory is the durable, evolving distillation of one project. It is
// read at the start of a turn and written back at the end; last write wins.
type ProjectMemory struct {
	ProblemStatement string `json:"problem_statement,omitempty"`
	TargetAudience   string `json:"target_audience,omitempty"`
	ValueProposition string `json:"value_proposition,omitempty"`
	MVPScope         string `json:"mvp_scope,omitempty"`
	TechStack        string `json:"tech_stack,omitempty"`

	// HelperInsights maps helper identifier to its extracted insights,
	// capped at MaxInsightsPerHelper (oldest evicted first).
	HelperInsights map[string][]string `json:"helper_insights"`

	// CompletedMilestones holds compact level-grouped progress strings
	// like "L2: 3 tasks", capped at MaxMilestones.
	CompletedMilestones []string `json:"completed_milestones,omitempty"`

	CurrentFocus string    `json:"current_focus,omitempty"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Memory caps.
const (
	MaxInsightsPerHelper = 5
	MaxMilestones        = 5
)

// NewProjectMemory returns an empty memory with every helper mapped to an
// empty insight list.
func NewProjectMemory() ProjectMemory {
	insights := make(map[string][]string, len(persona.All()))
	for _, h := range persona.All() {
		insights[h.String()] = []string{}
	}
	return ProjectMemory{
		HelperInsights: insights,
		LastUpdated:    time.Now(),
	}
}

// Clone returns a deep copy so updaters can return new values without
// mutating their input.
func (m ProjectMemory) Clone() ProjectMemory {
	out := m
	out.HelperInsights = make(map[string][]string, len(m.HelperInsights))
	for k, v := range m.HelperInsights {
		out.HelperInsights[k] = append([]string(nil), v...)
	}
	out.CompletedMilestones = append([]string(nil), m.CompletedMilestones...)
	return out
}

// ExtractedDecisions carries decision fields a turn may have produced.
// Nil pointers leave the corresponding memory field untouched.
type ExtractedDecisions struct {
	ProblemStatement *string `json:"problem_statement,omitempty"`
	TargetAudience   *string `json:"target_audience,omitempty"`
	ValueProposition *string `json:"value_proposition,omitempty"`
	MVPScope         *string `json:"mvp_scope,omitempty"`
	TechStack        *string `json:"tech_stack,omitempty"`
	CurrentFocus     *string `json:"current_focus,omitempty"`
}
