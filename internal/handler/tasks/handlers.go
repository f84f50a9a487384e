package tasks

import (
	"errors"
	"net/http"
	"strings"

	"github.com/founderloop/compass/internal/db"
	"github.com/founderloop/compass/internal/httputil"
	"github.com/founderloop/compass/internal/journey"
	"github.com/founderloop/compass/internal/logging"
	"github.com/founderloop/compass/internal/svc"
	"github.com/founderloop/compass/internal/types"
)

// UpsertTaskHandler creates or replaces a task definition
func UpsertTaskHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.UpsertTaskRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if strings.TrimSpace(req.Id) == "" || strings.TrimSpace(req.Title) == "" {
			httputil.ErrorWithCode(w, http.StatusBadRequest, "id and title are required")
			return
		}
		if req.Status != "" && !validStatus(req.Status) {
			httputil.ErrorWithCode(w, http.StatusBadRequest, "invalid status")
			return
		}
		if _, err := svcCtx.DB.GetProject(r.Context(), req.ProjectId); errors.Is(err, db.ErrNotFound) {
			httputil.NotFound(w, "project not found")
			return
		}

		task := journey.Task{
			ID:          req.Id,
			Title:       req.Title,
			Description: req.Description,
			Required:    req.Required,
			Status:      req.Status,
			XPReward:    req.XpReward,
		}
		if err := svcCtx.DB.UpsertTask(r.Context(), req.ProjectId, task); err != nil {
			logging.Errorf("Failed to upsert task %s: %v", req.Id, err)
			httputil.InternalError(w, "failed to save task")
			return
		}
		httputil.OkJSON(w, types.SuccessResponse{Success: true})
	}
}

// ListTasksHandler returns all tasks for a project
func ListTasksHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := httputil.PathVar(r, "projectId")
		tasks, err := svcCtx.DB.ListTasks(r.Context(), projectID)
		if err != nil {
			logging.Errorf("Failed to list tasks for project %s: %v", projectID, err)
			httputil.InternalError(w, "failed to list tasks")
			return
		}
		if tasks == nil {
			tasks = []journey.Task{}
		}
		httputil.OkJSON(w, types.ListTasksResponse{Tasks: tasks})
	}
}

// UpdateTaskStatusHandler moves a task between statuses
func UpdateTaskStatusHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.UpdateTaskStatusRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if !validStatus(req.Status) {
			httputil.ErrorWithCode(w, http.StatusBadRequest, "invalid status")
			return
		}

		err := svcCtx.DB.UpdateTaskStatus(r.Context(), req.ProjectId, req.TaskId, req.Status)
		if errors.Is(err, db.ErrNotFound) {
			httputil.NotFound(w, "task not found")
			return
		}
		if err != nil {
			logging.Errorf("Failed to update task %s: %v", req.TaskId, err)
			httputil.InternalError(w, "failed to update task")
			return
		}
		httputil.OkJSON(w, types.SuccessResponse{Success: true})
	}
}

// CompleteTaskHandler marks a task done and records the milestone
func CompleteTaskHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CompleteTaskRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if req.Level <= 0 {
			req.Level = 1
		}

		err := svcCtx.DB.CompleteTask(r.Context(), req.ProjectId, req.TaskId, req.Level)
		if errors.Is(err, db.ErrNotFound) {
			httputil.NotFound(w, "task not found")
			return
		}
		if err != nil {
			logging.Errorf("Failed to complete task %s: %v", req.TaskId, err)
			httputil.InternalError(w, "failed to complete task")
			return
		}
		httputil.OkJSON(w, types.SuccessResponse{Success: true})
	}
}

// CompletedTasksHandler returns the project's completed milestones
func CompletedTasksHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := httputil.PathVar(r, "projectId")
		done, err := svcCtx.DB.CompletedTasks(r.Context(), projectID)
		if err != nil {
			logging.Errorf("Failed to list completed tasks for project %s: %v", projectID, err)
			httputil.InternalError(w, "failed to list completed tasks")
			return
		}
		if done == nil {
			done = []journey.CompletedTask{}
		}
		httputil.OkJSON(w, types.CompletedTasksResponse{Completed: done})
	}
}

// TaskGuidanceHandler returns the static guidance record for one task
func TaskGuidanceHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := httputil.PathVar(r, "taskId")
		g, ok := svcCtx.Guidance.Lookup(taskID)
		if !ok {
			httputil.NotFound(w, "no guidance for task")
			return
		}
		httputil.OkJSON(w, types.TaskGuidanceResponse{
			TaskId:               g.TaskID,
			Helper:               g.Helper,
			Guidance:             g.Guidance,
			CompletionCriteria:   g.CompletionCriteria,
			ProactiveSuggestions: g.ProactiveSuggestions,
		})
	}
}

func validStatus(s string) bool {
	switch s {
	case journey.TaskTodo, journey.TaskInProgress, journey.TaskDone:
		return true
	}
	return false
}
