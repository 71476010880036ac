package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HealthHandler responds with a simple status check.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "health"
	const method = "GET"

	status := http.StatusOK
	body := map[string]string{"status": "ok"}
	if s.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Ready(ctx); err != nil {
			s.Logger.Warn("health check failed", zap.Error(err))
			status = http.StatusServiceUnavailable
			body = map[string]string{"status": "degraded", "error": err.Error()}
		}
	}
	writeJSON(w, status, body)
	s.observe(endpoint, method, status, start)
}
