// Package turn orchestrates one helper conversation turn: assemble the
// budgeted context, render instructions, and fold the turn's outcome back
// into project memory.
package turn

import (
	"context"
	"sync"

	"github.com/founderloop/compass/internal/db"
	"github.com/founderloop/compass/internal/journey"
	"github.com/founderloop/compass/internal/journey/contextopt"
	"github.com/founderloop/compass/internal/journey/memory"
	"github.com/founderloop/compass/internal/journey/prompt"
	"github.com/founderloop/compass/internal/logging"
	"github.com/founderloop/compass/internal/persona"
)

// DecisionExtractor pulls structured decisions out of a turn's messages.
// The marker-based summarizer always runs; an extractor is an optional
// higher-quality source for the memory decision fields.
type DecisionExtractor interface {
	Extract(ctx context.Context, messages []journey.Message) (*journey.ExtractedDecisions, error)
}

// Engine wires the store, templater and optional extractor into the
// per-turn pipeline.
type Engine struct {
	Store       *db.Store
	Templater   *prompt.Templater
	Extractor   DecisionExtractor // nil disables LLM extraction
	TokenBudget int
	Markers     []string

	// locks serializes memory read-modify-write per project.
	locks sync.Map // map[string]*sync.Mutex
}

// Prepared is the outcome of preparing a turn: the budgeted context and
// the instruction text for the requested helper.
type Prepared struct {
	Context      *contextopt.OptimizedContext
	Instructions string
}

// Prepare assembles the optimized context for one helper turn and renders
// its instructions. Read-only; no state changes.
func (e *Engine) Prepare(ctx context.Context, projectID string, helper persona.Helper) (*Prepared, error) {
	project, err := e.Store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	mem, err := e.Store.GetMemory(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := e.Store.ListTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	recent, err := e.Store.RecentMessages(ctx, projectID, helper.String(), contextopt.MaxRecentMessages)
	if err != nil {
		return nil, err
	}
	others, err := e.Store.HelperConversations(ctx, projectID, helper.String(), contextopt.MaxRecentMessages)
	if err != nil {
		return nil, err
	}
	completed, err := e.Store.CompletedTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}

	full := contextopt.Build(contextopt.BuildParams{
		ProjectName:        project.Name,
		ProjectDescription: project.Description,
		ProjectGoal:        project.Goal,
		CurrentHelper:      helper,
		ActiveTasks:        tasks,
		RecentMessages:     recent,
		Memory:             &mem,
		OtherHelpers:       others,
		CompletedTasks:     completed,
	})

	budget := e.TokenBudget
	if budget <= 0 {
		budget = contextopt.DefaultTokenBudget
	}
	selected := contextopt.Select(full, budget, e.Templater.RenderFor(helper))

	return &Prepared{
		Context:      selected,
		Instructions: e.Templater.BuildPersonaInstructions(helper, selected),
	}, nil
}

// Record persists a completed turn and folds it into project memory. The
// user and assistant messages are appended to the helper's conversation,
// decisions are extracted (LLM extractor when configured, with the marker
// summarizer always contributing insights), and the updated memory is
// written back. Memory updates for one project are serialized; the last
// write wins across projects.
func (e *Engine) Record(ctx context.Context, projectID string, helper persona.Helper, userMsg, assistantMsg journey.Message) (journey.ProjectMemory, error) {
	if _, err := e.Store.GetProject(ctx, projectID); err != nil {
		return journey.ProjectMemory{}, err
	}

	mu := e.projectLock(projectID)
	mu.Lock()
	defer mu.Unlock()

	for _, msg := range []journey.Message{userMsg, assistantMsg} {
		if err := e.Store.AppendMessage(ctx, projectID, helper.String(), msg); err != nil {
			return journey.ProjectMemory{}, err
		}
	}

	turnMessages := []journey.Message{userMsg, assistantMsg}

	var decisions *journey.ExtractedDecisions
	if e.Extractor != nil {
		extracted, err := e.Extractor.Extract(ctx, turnMessages)
		if err != nil {
			// Extraction is best-effort; the marker summarizer still runs.
			logging.Warnf("decision extraction failed for project %s: %v", projectID, err)
		} else {
			decisions = extracted
		}
	}

	mem, err := e.Store.GetMemory(ctx, projectID)
	if err != nil {
		return journey.ProjectMemory{}, err
	}
	updated := memory.Update(mem, helper, turnMessages, decisions, e.Markers)
	if err := e.Store.SaveMemory(ctx, projectID, updated); err != nil {
		return journey.ProjectMemory{}, err
	}
	return updated, nil
}

func (e *Engine) projectLock(projectID string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(projectID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
