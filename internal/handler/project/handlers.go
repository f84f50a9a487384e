package project

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/founderloop/compass/internal/db"
	"github.com/founderloop/compass/internal/httputil"
	"github.com/founderloop/compass/internal/logging"
	"github.com/founderloop/compass/internal/persona"
	"github.com/founderloop/compass/internal/svc"
	"github.com/founderloop/compass/internal/types"
)

// CreateProjectHandler creates a new founder project
func CreateProjectHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CreateProjectRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			httputil.ErrorWithCode(w, http.StatusBadRequest, "name is required")
			return
		}

		p, err := svcCtx.DB.CreateProject(r.Context(), req.Name, req.Description, req.Goal)
		if err != nil {
			logging.Errorf("Failed to create project: %v", err)
			httputil.InternalError(w, "failed to create project")
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, toResponse(p))
	}
}

// ListProjectsHandler returns all projects, most recently updated first
func ListProjectsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := svcCtx.DB.ListProjects(r.Context())
		if err != nil {
			logging.Errorf("Failed to list projects: %v", err)
			httputil.InternalError(w, "failed to list projects")
			return
		}

		resp := types.ListProjectsResponse{Projects: make([]types.ProjectResponse, len(projects))}
		for i := range projects {
			resp.Projects[i] = toResponse(&projects[i])
		}
		httputil.OkJSON(w, resp)
	}
}

// GetProjectHandler returns a single project by ID
func GetProjectHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := httputil.PathVar(r, "projectId")
		p, err := svcCtx.DB.GetProject(r.Context(), id)
		if errors.Is(err, db.ErrNotFound) {
			httputil.NotFound(w, "project not found")
			return
		}
		if err != nil {
			logging.Errorf("Failed to load project %s: %v", id, err)
			httputil.InternalError(w, "failed to load project")
			return
		}
		httputil.OkJSON(w, toResponse(p))
	}
}

// GetContextHandler assembles the budgeted context and instruction text
// for one helper
func GetContextHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.GetContextRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		helper, err := persona.Parse(req.Helper)
		if err != nil {
			httputil.Error(w, err)
			return
		}

		prep, err := svcCtx.Engine.Prepare(r.Context(), req.ProjectId, helper)
		if errors.Is(err, db.ErrNotFound) {
			httputil.NotFound(w, "project not found")
			return
		}
		if err != nil {
			logging.Errorf("Failed to prepare context for project %s: %v", req.ProjectId, err)
			httputil.InternalError(w, "failed to prepare context")
			return
		}

		httputil.OkJSON(w, types.GetContextResponse{
			Helper:       helper.String(),
			Context:      prep.Context,
			Instructions: prep.Instructions,
		})
	}
}

func toResponse(p *db.Project) types.ProjectResponse {
	return types.ProjectResponse{
		Id:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Goal:        p.Goal,
		Level:       p.Level,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}
