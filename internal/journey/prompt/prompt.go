// Package prompt renders an optimized context into the instruction text a
// helper receives. Rendering is deterministic: fixed section order, each
// section emitted only when it has content.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/founderloop/compass/internal/guidance"
	"github.com/founderloop/compass/internal/journey/contextopt"
	"github.com/founderloop/compass/internal/persona"
)

// Templater assembles helper instructions from optimized context plus the
// static task guidance tables.
type Templater struct {
	Guidance *guidance.Store
}

// NewTemplater returns a templater backed by the given guidance store.
// A nil store is allowed; task guidance sections are then omitted.
func NewTemplater(store *guidance.Store) *Templater {
	return &Templater{Guidance: store}
}

// BuildContextString renders the shared project context. Sections appear
// in a fixed order and are skipped entirely when empty.
func BuildContextString(ctx *contextopt.OptimizedContext) string {
	if ctx == nil {
		return ""
	}

	var parts []string

	parts = append(parts, projectHeader(ctx))

	if s := decisionLines(ctx); s != "" {
		parts = append(parts, s)
	}
	if len(ctx.Memory.CompletedMilestones) > 0 {
		parts = append(parts, "Progress: "+strings.Join(ctx.Memory.CompletedMilestones, ", "))
	}
	if ctx.Memory.CurrentFocus != "" {
		parts = append(parts, "Current focus: "+ctx.Memory.CurrentFocus)
	}
	if s := activeTaskLines(ctx); s != "" {
		parts = append(parts, s)
	}
	if s := ownInsightLines(ctx); s != "" {
		parts = append(parts, s)
	}
	if s := crossHelperLines(ctx); s != "" {
		parts = append(parts, s)
	}

	return strings.Join(parts, "\n\n")
}

// BuildPersonaInstructions renders the full instruction text for one
// helper: its identity block, then the project context with the
// cross-helper section filtered to the helper's relevant peers, then the
// guidance for its active tasks subject to the helper's guidance limits.
//
// The relevance filter is semantic and independent of token eviction: a
// peer summary that survived eviction is still dropped here when the
// peer's stage has nothing to say to this helper's work.
func (t *Templater) BuildPersonaInstructions(h persona.Helper, ctx *contextopt.OptimizedContext) string {
	parts := []string{h.Identity()}

	filtered := filterPeers(h, ctx)
	if s := BuildContextString(filtered); s != "" {
		parts = append(parts, s)
	}

	if t.Guidance != nil && filtered != nil {
		limits := h.Guidance()
		ids := make([]string, 0, len(filtered.CurrentSession.ActiveTasks))
		for _, task := range filtered.CurrentSession.ActiveTasks {
			ids = append(ids, task.ID)
		}
		if s := t.Guidance.BuildTaskAwarePrompt(ids, guidance.PromptOptions{
			MaxTasks:  limits.MaxTasks,
			MaxTokens: limits.MaxTokens,
		}); s != "" {
			parts = append(parts, "Task guidance:\n"+s)
		}
	}

	return strings.Join(parts, "\n\n")
}

// RenderFor returns a render callback for token selection, bound to one
// helper. The selector re-estimates against exactly the text the helper
// will receive.
func (t *Templater) RenderFor(h persona.Helper) contextopt.RenderFunc {
	return func(ctx *contextopt.OptimizedContext) string {
		return t.BuildPersonaInstructions(h, ctx)
	}
}

func filterPeers(h persona.Helper, ctx *contextopt.OptimizedContext) *contextopt.OptimizedContext {
	if ctx == nil {
		return nil
	}
	out := *ctx
	out.CrossHelperSummaries = make(map[string]string, len(ctx.CrossHelperSummaries))
	for id, summary := range ctx.CrossHelperSummaries {
		peer, err := persona.Parse(id)
		if err != nil {
			continue
		}
		if h.IsRelevantPeer(peer) {
			out.CrossHelperSummaries[id] = summary
		}
	}
	return &out
}

func projectHeader(ctx *contextopt.OptimizedContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Project: %s", ctx.CoreProject.Name)
	if ctx.CoreProject.Description != "" {
		sb.WriteString("\n" + ctx.CoreProject.Description)
	}
	if ctx.CoreProject.Goal != "" {
		sb.WriteString("\nGoal: " + ctx.CoreProject.Goal)
	}
	return sb.String()
}

func decisionLines(ctx *contextopt.OptimizedContext) string {
	m := ctx.Memory
	var lines []string
	if m.ProblemStatement != "" {
		lines = append(lines, "Problem: "+m.ProblemStatement)
	}
	if m.TargetAudience != "" {
		lines = append(lines, "Audience: "+m.TargetAudience)
	}
	if m.ValueProposition != "" {
		lines = append(lines, "Value proposition: "+m.ValueProposition)
	}
	if m.MVPScope != "" {
		lines = append(lines, "MVP scope: "+m.MVPScope)
	}
	if m.TechStack != "" {
		lines = append(lines, "Tech stack: "+m.TechStack)
	}
	if len(lines) == 0 {
		return ""
	}
	return "Decisions so far:\n" + strings.Join(lines, "\n")
}

func activeTaskLines(ctx *contextopt.OptimizedContext) string {
	tasks := ctx.CurrentSession.ActiveTasks
	if len(tasks) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Active tasks:")
	for _, task := range tasks {
		sb.WriteString("\n- " + task.Title)
		if task.Required {
			sb.WriteString(" (Required)")
		}
		if task.Description != "" {
			sb.WriteString(": " + task.Description)
		}
	}
	return sb.String()
}

func ownInsightLines(ctx *contextopt.OptimizedContext) string {
	insights := ctx.Memory.HelperInsights[ctx.CurrentSession.HelperID]
	if len(insights) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Your earlier insights:")
	for _, in := range insights {
		sb.WriteString("\n- " + in)
	}
	return sb.String()
}

func crossHelperLines(ctx *contextopt.OptimizedContext) string {
	if len(ctx.CrossHelperSummaries) == 0 {
		return ""
	}
	ids := make([]string, 0, len(ctx.CrossHelperSummaries))
	for id := range ctx.CrossHelperSummaries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sb strings.Builder
	sb.WriteString("From the other helpers:")
	for _, id := range ids {
		name := id
		if peer, err := persona.Parse(id); err == nil {
			name = peer.DisplayName()
		}
		sb.WriteString("\n- " + name + ": " + ctx.CrossHelperSummaries[id])
	}
	return sb.String()
}
