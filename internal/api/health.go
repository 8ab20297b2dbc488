package api

import (
	"net/http"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// handleHealthz reports whether the simulator can reach its store. It sits
// outside the api-version and fault middleware.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	info := s.engine.SystemInfo()
	if err := s.engine.Ping(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Version: info.Version})
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: info.Version})
}
