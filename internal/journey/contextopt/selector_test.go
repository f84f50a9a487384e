package contextopt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/founderloop/compass/internal/journey"
	"github.com/founderloop/compass/internal/persona"
)

// fullContext builds a context with every tier populated: 3 cross-helper
// summaries, 6 recent messages, 5 active tasks.
func fullContext(t *testing.T) *OptimizedContext {
	t.Helper()

	var msgs []journey.Message
	for i := 0; i < 6; i++ {
		msgs = append(msgs, journey.Message{Role: "user", Content: fmt.Sprintf("message number %d with some padding text", i)})
	}
	var tasks []journey.Task
	for i := 0; i < 5; i++ {
		tasks = append(tasks, journey.Task{
			ID: fmt.Sprintf("t%d", i), Title: "task", Description: strings.Repeat("work ", 20),
			Required: true, Status: journey.TaskTodo,
		})
	}
	reply := []journey.Message{{Role: "assistant", Content: "We selected an approach. Details follow."}}
	others := []journey.HelperConversation{
		{Helper: persona.Muse, RecentMessages: reply},
		{Helper: persona.Atlas, RecentMessages: reply},
		{Helper: persona.Iris, RecentMessages: reply},
	}

	ctx := Build(BuildParams{
		ProjectName:        "Compass",
		ProjectDescription: strings.Repeat("a founder coaching app ", 10),
		ProjectGoal:        "ship the MVP",
		CurrentHelper:      persona.Forge,
		ActiveTasks:        tasks,
		RecentMessages:     msgs,
		OtherHelpers:       others,
	})
	if len(ctx.CrossHelperSummaries) != 3 || len(ctx.CurrentSession.RecentMessages) != 6 || len(ctx.CurrentSession.ActiveTasks) != 5 {
		t.Fatalf("fixture not fully populated: %d summaries, %d messages, %d tasks",
			len(ctx.CrossHelperSummaries), len(ctx.CurrentSession.RecentMessages), len(ctx.CurrentSession.ActiveTasks))
	}
	return ctx
}

func TestSelect_NoEvictionWhenUnderBudget(t *testing.T) {
	full := fullContext(t)
	got := Select(full, full.EstimatedTokens+1000, nil)

	if len(got.CrossHelperSummaries) != 3 {
		t.Fatal("nothing should be evicted under budget")
	}
	if len(got.CurrentSession.RecentMessages) != 6 {
		t.Fatal("messages should be untouched under budget")
	}
}

func TestSelect_SummariesEvictFirst(t *testing.T) {
	full := fullContext(t)

	// Budget just below the initial estimate: a single eviction step should
	// land it back under.
	got := Select(full, full.EstimatedTokens-1, nil)

	if len(got.CrossHelperSummaries) >= 3 {
		t.Fatalf("expected at least one summary evicted, still have %d", len(got.CrossHelperSummaries))
	}
	if len(got.CurrentSession.RecentMessages) != 6 {
		t.Fatal("recent messages must not shrink before summaries are exhausted")
	}
	if len(got.CurrentSession.ActiveTasks) != 5 {
		t.Fatal("active tasks must not shrink before summaries are exhausted")
	}
}

func TestSelect_DropsLexicallyLastSummaryFirst(t *testing.T) {
	full := fullContext(t)
	got := Select(full, full.EstimatedTokens-1, nil)

	// Keys are muse/atlas/iris; "muse" sorts last and goes first.
	if _, ok := got.CrossHelperSummaries["muse"]; ok && len(got.CrossHelperSummaries) == 2 {
		t.Fatal("lexically last key should be dropped first")
	}
}

func TestSelect_FullEvictionOrder(t *testing.T) {
	full := fullContext(t)

	// Impossible budget: every tier must collapse to the floor, in order.
	got := Select(full, 1, nil)

	if len(got.CrossHelperSummaries) != 0 {
		t.Fatalf("summaries should be fully evicted, have %d", len(got.CrossHelperSummaries))
	}
	if len(got.CurrentSession.RecentMessages) != 4 {
		t.Fatalf("recent messages should shrink to 4, have %d", len(got.CurrentSession.RecentMessages))
	}
	if len(got.CurrentSession.ActiveTasks) != 3 {
		t.Fatalf("active tasks should shrink to 3, have %d", len(got.CurrentSession.ActiveTasks))
	}
}

func TestSelect_TerminatesAtZeroBudget(t *testing.T) {
	full := fullContext(t)

	got := Select(full, 0, nil) // hangs here if the eviction loop cannot terminate
	if got.EstimatedTokens <= 0 {
		t.Fatal("best-effort context should still report a positive estimate")
	}
}

func TestSelect_CoreProjectFloorSurvives(t *testing.T) {
	full := fullContext(t)
	for _, budget := range []int{0, 1, 50} {
		got := Select(full, budget, nil)
		if got.CoreProject != full.CoreProject {
			t.Fatalf("budget %d: core project was altered: %+v", budget, got.CoreProject)
		}
	}
}

func TestSelect_DoesNotMutateInput(t *testing.T) {
	full := fullContext(t)
	before := len(full.CrossHelperSummaries)

	_ = Select(full, 0, nil)

	if len(full.CrossHelperSummaries) != before {
		t.Fatal("input context was mutated")
	}
	if len(full.CurrentSession.RecentMessages) != 6 {
		t.Fatal("input messages were mutated")
	}
}

func TestSelect_RenderedEstimateWins(t *testing.T) {
	full := fullContext(t)

	rendered := "final instruction text"
	got := Select(full, full.EstimatedTokens+1000, func(*OptimizedContext) string { return rendered })

	want := (len(rendered) + 3) / 4
	if got.EstimatedTokens != want {
		t.Fatalf("final estimate should come from rendered text: got %d, want %d", got.EstimatedTokens, want)
	}
}
