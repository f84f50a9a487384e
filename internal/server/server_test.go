package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/founderloop/compass/internal/config"
	"github.com/founderloop/compass/internal/svc"
	"github.com/founderloop/compass/internal/types"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	c := *config.DefaultConfig()
	c.DataDir = t.TempDir()

	svcCtx, err := svc.NewServiceContext(c)
	if err != nil {
		t.Fatalf("service context: %v", err)
	}
	t.Cleanup(svcCtx.Close)

	return buildRouter(svcCtx, true)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec
}

func createProject(t *testing.T, router http.Handler) types.ProjectResponse {
	t.Helper()
	var p types.ProjectResponse
	rec := doJSON(t, router, "POST", "/api/v1/projects", types.CreateProjectRequest{
		Name:        "Foo",
		Description: "A founder tool",
		Goal:        "First revenue",
	}, &p)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: %d %s", rec.Code, rec.Body.String())
	}
	return p
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, "GET", "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
}

func TestProjectRoutes(t *testing.T) {
	router := newTestRouter(t)
	p := createProject(t, router)
	if p.Id == "" || p.Level != 1 {
		t.Fatalf("project = %+v", p)
	}

	var got types.ProjectResponse
	rec := doJSON(t, router, "GET", "/api/v1/projects/"+p.Id, nil, &got)
	if rec.Code != http.StatusOK || got.Name != "Foo" {
		t.Fatalf("get project: %d %+v", rec.Code, got)
	}

	rec = doJSON(t, router, "GET", "/api/v1/projects/missing", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing project: %d", rec.Code)
	}

	rec = doJSON(t, router, "POST", "/api/v1/projects", types.CreateProjectRequest{}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty name: %d", rec.Code)
	}
}

func TestContextRoute(t *testing.T) {
	router := newTestRouter(t)
	p := createProject(t, router)

	var resp types.GetContextResponse
	rec := doJSON(t, router, "GET", "/api/v1/projects/"+p.Id+"/context?helper=muse", nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("context: %d %s", rec.Code, rec.Body.String())
	}
	if resp.Helper != "muse" || resp.Instructions == "" {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Context.CoreProject.Name != "Foo" {
		t.Fatalf("core = %+v", resp.Context.CoreProject)
	}

	rec = doJSON(t, router, "GET", "/api/v1/projects/"+p.Id+"/context?helper=wizard", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown helper: %d", rec.Code)
	}
}

func TestTurnRoute(t *testing.T) {
	router := newTestRouter(t)
	p := createProject(t, router)

	var resp types.RecordTurnResponse
	rec := doJSON(t, router, "POST", "/api/v1/projects/"+p.Id+"/turns", types.RecordTurnRequest{
		Helper:           "atlas",
		UserMessage:      "What stack?",
		AssistantMessage: "We decided to use Next.js and Postgres.",
	}, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("turn: %d %s", rec.Code, rec.Body.String())
	}
	if len(resp.Memory.HelperInsights["atlas"]) != 1 {
		t.Fatalf("insights = %v", resp.Memory.HelperInsights)
	}

	rec = doJSON(t, router, "POST", "/api/v1/projects/"+p.Id+"/turns", types.RecordTurnRequest{
		Helper:      "atlas",
		UserMessage: "no assistant message",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("partial turn: %d", rec.Code)
	}
}

func TestMessageRoute(t *testing.T) {
	router := newTestRouter(t)
	p := createProject(t, router)
	base := "/api/v1/projects/" + p.Id

	rec := doJSON(t, router, "POST", base+"/messages", types.AppendMessageRequest{
		Helper:  "muse",
		Role:    "user",
		Content: "Where do I start?",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("append: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, "POST", base+"/messages", types.AppendMessageRequest{
		Helper:  "muse",
		Role:    "tool",
		Content: "nope",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad role: %d", rec.Code)
	}

	var resp types.GetContextResponse
	doJSON(t, router, "GET", base+"/context?helper=muse", nil, &resp)
	if len(resp.Context.CurrentSession.RecentMessages) != 1 {
		t.Fatalf("recent = %+v", resp.Context.CurrentSession.RecentMessages)
	}
}

func TestMemoryRoutes(t *testing.T) {
	router := newTestRouter(t)
	p := createProject(t, router)

	var got types.GetMemoryResponse
	rec := doJSON(t, router, "GET", "/api/v1/projects/"+p.Id+"/memory", nil, &got)
	if rec.Code != http.StatusOK {
		t.Fatalf("get memory: %d", rec.Code)
	}

	got.Memory.TechStack = "Next.js"
	rec = doJSON(t, router, "PUT", "/api/v1/projects/"+p.Id+"/memory", types.PutMemoryRequest{Memory: got.Memory}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("put memory: %d %s", rec.Code, rec.Body.String())
	}

	var after types.GetMemoryResponse
	doJSON(t, router, "GET", "/api/v1/projects/"+p.Id+"/memory", nil, &after)
	if after.Memory.TechStack != "Next.js" {
		t.Fatalf("memory = %+v", after.Memory)
	}
}

func TestTaskRoutes(t *testing.T) {
	router := newTestRouter(t)
	p := createProject(t, router)
	base := "/api/v1/projects/" + p.Id

	rec := doJSON(t, router, "POST", base+"/tasks", types.UpsertTaskRequest{
		Id:       "define-problem",
		Title:    "Define the problem",
		Required: true,
		XpReward: 50,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert: %d %s", rec.Code, rec.Body.String())
	}

	var list types.ListTasksResponse
	doJSON(t, router, "GET", base+"/tasks", nil, &list)
	if len(list.Tasks) != 1 || list.Tasks[0].Status != "todo" {
		t.Fatalf("tasks = %+v", list.Tasks)
	}

	rec = doJSON(t, router, "PUT", base+"/tasks/define-problem/status",
		types.UpdateTaskStatusRequest{Status: "in_progress"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}

	rec = doJSON(t, router, "PUT", base+"/tasks/define-problem/status",
		types.UpdateTaskStatusRequest{Status: "bogus"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus status: %d", rec.Code)
	}

	rec = doJSON(t, router, "POST", base+"/tasks/define-problem/complete",
		types.CompleteTaskRequest{Level: 2}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: %d", rec.Code)
	}

	var done types.CompletedTasksResponse
	doJSON(t, router, "GET", base+"/completed-tasks", nil, &done)
	if len(done.Completed) != 1 || done.Completed[0].Level != 2 {
		t.Fatalf("completed = %+v", done.Completed)
	}
}

func TestGuidanceRoute(t *testing.T) {
	router := newTestRouter(t)

	var g types.TaskGuidanceResponse
	rec := doJSON(t, router, "GET", "/api/v1/guidance/define-problem", nil, &g)
	if rec.Code != http.StatusOK || g.Helper != "muse" {
		t.Fatalf("guidance: %d %+v", rec.Code, g)
	}

	rec = doJSON(t, router, "GET", "/api/v1/guidance/no-such-task", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing guidance: %d", rec.Code)
	}
}
