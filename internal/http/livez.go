package http

import (
	"net/http"
	"time"

	"github.com/taskdock/taskdock/pkg/httpx"
	"github.com/taskdock/taskdock/pkg/sdk"
)

// LivezHandler is the liveness probe. It returns 200 whenever the process
// is running, with uptime and build version for operators.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, sdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
