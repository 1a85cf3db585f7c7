package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/recon/internal/core"
	"github.com/JonMunkholm/recon/internal/logging"
	"github.com/JonMunkholm/recon/internal/storage"
)

type healthResponse struct {
	Status    string             `json:"status"`
	Database  string             `json:"database"`
	Pipelines core.LimiterStatus `json:"pipelines"`
	Pool      storage.PoolStats  `json:"pool"`
}

// handleHealth pings the database and reports pipeline slot and connection usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Database:  "ok",
		Pipelines: s.pipeline.LimiterStatus(),
		Pool:      s.db.Stats(),
	}
	status := http.StatusOK
	if err := s.db.Ping(ctx); err != nil {
		logging.FromContext(ctx).Warn("health check failed", "error", err)
		resp.Status, resp.Database = "unavailable", "unreachable"
		status = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, status, resp)
}
