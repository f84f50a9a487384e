package turn

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/founderloop/compass/internal/db"
	"github.com/founderloop/compass/internal/httputil"
	"github.com/founderloop/compass/internal/journey"
	"github.com/founderloop/compass/internal/logging"
	"github.com/founderloop/compass/internal/persona"
	"github.com/founderloop/compass/internal/svc"
	"github.com/founderloop/compass/internal/types"
)

// AppendMessageHandler appends a single message to a helper conversation
// without touching memory. Used by clients that stream a turn and finalize
// it later via RecordTurnHandler.
func AppendMessageHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AppendMessageRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		helper, err := persona.Parse(req.Helper)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		if req.Role != "user" && req.Role != "assistant" {
			httputil.ErrorWithCode(w, http.StatusBadRequest, "role must be user or assistant")
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			httputil.ErrorWithCode(w, http.StatusBadRequest, "content is required")
			return
		}
		if _, err := svcCtx.DB.GetProject(r.Context(), req.ProjectId); errors.Is(err, db.ErrNotFound) {
			httputil.NotFound(w, "project not found")
			return
		}

		msg := journey.Message{Role: req.Role, Content: req.Content, CreatedAt: time.Now().UTC()}
		if err := svcCtx.DB.AppendMessage(r.Context(), req.ProjectId, helper.String(), msg); err != nil {
			logging.Errorf("Failed to append message for project %s: %v", req.ProjectId, err)
			httputil.InternalError(w, "failed to append message")
			return
		}
		httputil.OkJSON(w, types.SuccessResponse{Success: true})
	}
}

// RecordTurnHandler persists one completed helper turn and returns the
// updated project memory
func RecordTurnHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.RecordTurnRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		helper, err := persona.Parse(req.Helper)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		if strings.TrimSpace(req.UserMessage) == "" || strings.TrimSpace(req.AssistantMessage) == "" {
			httputil.ErrorWithCode(w, http.StatusBadRequest, "userMessage and assistantMessage are required")
			return
		}

		now := time.Now().UTC()
		mem, err := svcCtx.Engine.Record(r.Context(), req.ProjectId, helper,
			journey.Message{Role: "user", Content: req.UserMessage, CreatedAt: now},
			journey.Message{Role: "assistant", Content: req.AssistantMessage, CreatedAt: now})
		if errors.Is(err, db.ErrNotFound) {
			httputil.NotFound(w, "project not found")
			return
		}
		if err != nil {
			logging.Errorf("Failed to record turn for project %s: %v", req.ProjectId, err)
			httputil.InternalError(w, "failed to record turn")
			return
		}

		httputil.OkJSON(w, types.RecordTurnResponse{Memory: mem})
	}
}
