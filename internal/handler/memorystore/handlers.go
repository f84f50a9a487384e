package memorystore

import (
	"errors"
	"net/http"

	"github.com/founderloop/compass/internal/db"
	"github.com/founderloop/compass/internal/httputil"
	"github.com/founderloop/compass/internal/logging"
	"github.com/founderloop/compass/internal/svc"
	"github.com/founderloop/compass/internal/types"
)

// GetMemoryHandler returns the project's durable memory document
func GetMemoryHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := httputil.PathVar(r, "projectId")
		if _, err := svcCtx.DB.GetProject(r.Context(), projectID); errors.Is(err, db.ErrNotFound) {
			httputil.NotFound(w, "project not found")
			return
		}

		mem, err := svcCtx.DB.GetMemory(r.Context(), projectID)
		if err != nil {
			logging.Errorf("Failed to load memory for project %s: %v", projectID, err)
			httputil.InternalError(w, "failed to load memory")
			return
		}
		httputil.OkJSON(w, types.GetMemoryResponse{Memory: mem})
	}
}

// PutMemoryHandler replaces the project's memory document. Last write
// wins; intended for admin correction, not the turn pipeline.
func PutMemoryHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.PutMemoryRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if _, err := svcCtx.DB.GetProject(r.Context(), req.ProjectId); errors.Is(err, db.ErrNotFound) {
			httputil.NotFound(w, "project not found")
			return
		}

		if err := svcCtx.DB.SaveMemory(r.Context(), req.ProjectId, req.Memory); err != nil {
			logging.Errorf("Failed to save memory for project %s: %v", req.ProjectId, err)
			httputil.InternalError(w, "failed to save memory")
			return
		}
		httputil.OkJSON(w, types.SuccessResponse{Success: true})
	}
}
