package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/founderloop/compass/internal/guidance"
	"github.com/founderloop/compass/internal/journey"
	"github.com/founderloop/compass/internal/journey/contextopt"
	"github.com/founderloop/compass/internal/persona"
)

func sampleContext() *contextopt.OptimizedContext {
	mem := journey.NewProjectMemory()
	mem.ProblemStatement = "Indie founders drown in generic advice"
	mem.TechStack = "Next.js and Postgres"
	mem.CurrentFocus = "Ship the MVP"
	mem.CompletedMilestones = []string{"L1: 2 tasks", "L2: 3 tasks"}
	mem.HelperInsights["iris"] = []string{"Decided on a single-column layout..."}
	mem.HelperInsights["atlas"] = []string{"Chose Postgres over Mongo..."}

	return &contextopt.OptimizedContext{
		CoreProject: contextopt.CoreProject{
			Name:        "Foo",
			Description: "A tool for indie founders",
			Goal:        "Reach first revenue",
		},
		Memory: mem,
		CurrentSession: contextopt.SessionContext{
			Helper:   persona.Iris,
			HelperID: "iris",
			ActiveTasks: []contextopt.TaskSummary{
				{ID: "wireframe-core", Title: "Wireframe the core journey", Required: true, Status: journey.TaskInProgress},
				{ID: "design-landing", Title: "Design the landing page", Description: "Headline plus CTA", Status: journey.TaskTodo},
			},
			RecentMessages: []journey.Message{
				{Role: "user", Content: "Where do I start?", CreatedAt: time.Now()},
			},
		},
		CrossHelperSummaries: map[string]string{
			"muse":   "The problem is generic advice.",
			"atlas":  "Stack is Next.js and Postgres.",
			"summit": "Retention is the metric.",
		},
	}
}

func TestBuildContextString_SectionOrder(t *testing.T) {
	out := BuildContextString(sampleContext())

	order := []string{
		"# Project: Foo",
		"Decisions so far:",
		"Progress: L1: 2 tasks, L2: 3 tasks",
		"Current focus: Ship the MVP",
		"Active tasks:",
		"Your earlier insights:",
		"From the other helpers:",
	}
	last := -1
	for _, marker := range order {
		idx := strings.Index(out, marker)
		if idx < 0 {
			t.Fatalf("missing section %q in:\n%s", marker, out)
		}
		if idx < last {
			t.Fatalf("section %q out of order in:\n%s", marker, out)
		}
		last = idx
	}
}

func TestBuildContextString_OmitsEmptySections(t *testing.T) {
	ctx := &contextopt.OptimizedContext{
		CoreProject: contextopt.CoreProject{Name: "Bare"},
		Memory:      journey.NewProjectMemory(),
	}
	out := BuildContextString(ctx)

	if !strings.HasPrefix(out, "# Project: Bare") {
		t.Fatalf("missing header: %q", out)
	}
	for _, absent := range []string{"Decisions so far", "Progress:", "Current focus", "Active tasks", "insights", "other helpers"} {
		if strings.Contains(out, absent) {
			t.Errorf("empty section %q leaked into:\n%s", absent, out)
		}
	}
}

func TestBuildContextString_TaskRendering(t *testing.T) {
	out := BuildContextString(sampleContext())

	if !strings.Contains(out, "- Wireframe the core journey (Required)") {
		t.Fatalf("required marker missing:\n%s", out)
	}
	if !strings.Contains(out, "- Design the landing page: Headline plus CTA") {
		t.Fatalf("task description missing:\n%s", out)
	}
}

func TestBuildContextString_OnlyCurrentHelperInsights(t *testing.T) {
	out := BuildContextString(sampleContext())

	if !strings.Contains(out, "Decided on a single-column layout...") {
		t.Fatalf("own insight missing:\n%s", out)
	}
	if strings.Contains(out, "Chose Postgres over Mongo...") {
		t.Fatalf("other helper's insight leaked:\n%s", out)
	}
}

func TestBuildContextString_CrossHelperNamesSorted(t *testing.T) {
	out := BuildContextString(sampleContext())

	atlas := strings.Index(out, "Atlas:")
	muse := strings.Index(out, "Muse:")
	summit := strings.Index(out, "Summit:")
	if atlas < 0 || muse < 0 || summit < 0 {
		t.Fatalf("cross-helper entries missing:\n%s", out)
	}
	if !(atlas < muse && muse < summit) {
		t.Fatalf("cross-helper entries not sorted:\n%s", out)
	}
}

func TestBuildContextString_Nil(t *testing.T) {
	if got := BuildContextString(nil); got != "" {
		t.Fatalf("nil context rendered %q", got)
	}
}

func newTestTemplater(t *testing.T) *Templater {
	t.Helper()
	store, err := guidance.NewStore()
	if err != nil {
		t.Fatalf("guidance store: %v", err)
	}
	return NewTemplater(store)
}

func TestBuildPersonaInstructions_IdentityFirst(t *testing.T) {
	tmpl := newTestTemplater(t)
	out := tmpl.BuildPersonaInstructions(persona.Iris, sampleContext())

	if !strings.HasPrefix(out, persona.Iris.Identity()) {
		t.Fatalf("identity block not first:\n%s", out)
	}
}

func TestBuildPersonaInstructions_RelevanceFilter(t *testing.T) {
	// Iris hears from Muse and Atlas but never Summit, even though the
	// Summit summary survived token selection.
	tmpl := newTestTemplater(t)
	out := tmpl.BuildPersonaInstructions(persona.Iris, sampleContext())

	if !strings.Contains(out, "Muse: The problem is generic advice.") {
		t.Fatalf("relevant peer Muse filtered out:\n%s", out)
	}
	if !strings.Contains(out, "Atlas: Stack is Next.js and Postgres.") {
		t.Fatalf("relevant peer Atlas filtered out:\n%s", out)
	}
	if strings.Contains(out, "Retention is the metric.") {
		t.Fatalf("irrelevant peer Summit leaked:\n%s", out)
	}
}

func TestBuildPersonaInstructions_FilterDoesNotMutateInput(t *testing.T) {
	tmpl := newTestTemplater(t)
	ctx := sampleContext()
	tmpl.BuildPersonaInstructions(persona.Iris, ctx)

	if len(ctx.CrossHelperSummaries) != 3 {
		t.Fatalf("input summaries mutated: %v", ctx.CrossHelperSummaries)
	}
}

func TestBuildPersonaInstructions_TaskGuidanceRespectsMaxTasks(t *testing.T) {
	tmpl := newTestTemplater(t)
	ctx := sampleContext()
	out := tmpl.BuildPersonaInstructions(persona.Iris, ctx)

	// Iris allows 2 guidance entries; both active tasks have records.
	if !strings.Contains(out, "Task guidance:") {
		t.Fatalf("guidance section missing:\n%s", out)
	}
	if !strings.Contains(out, "paper or a single artboard") {
		t.Fatalf("wireframe guidance missing:\n%s", out)
	}
	if !strings.Contains(out, "restates the value proposition") {
		t.Fatalf("landing guidance missing:\n%s", out)
	}
}

func TestBuildPersonaInstructions_NoGuidanceStore(t *testing.T) {
	tmpl := NewTemplater(nil)
	out := tmpl.BuildPersonaInstructions(persona.Iris, sampleContext())

	if strings.Contains(out, "Task guidance:") {
		t.Fatalf("guidance section rendered without a store:\n%s", out)
	}
}

func TestRenderFor_MatchesBuildPersonaInstructions(t *testing.T) {
	tmpl := newTestTemplater(t)
	ctx := sampleContext()

	render := tmpl.RenderFor(persona.Iris)
	if render(ctx) != tmpl.BuildPersonaInstructions(persona.Iris, ctx) {
		t.Fatal("render callback diverges from direct assembly")
	}
}
