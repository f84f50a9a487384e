package handler

import (
	"net/http"

	"github.com/founderloop/compass/internal/httputil"
	"github.com/founderloop/compass/internal/svc"
	"github.com/founderloop/compass/internal/types"
)

func HealthCheckHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.OkJSON(w, &types.HealthResponse{
			Status:  "healthy",
			Version: svcCtx.Version,
		})
	}
}
