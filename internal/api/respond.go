package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/seantiz/edgemgmt/internal/engine"
	"github.com/seantiz/edgemgmt/internal/mgmtapi"
	"github.com/seantiz/edgemgmt/internal/store"
)

const maxBodySize = 1 << 20 // 1 MB

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes the runtime's structured error body.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, mgmtapi.ErrorResponse{Message: message})
}

// writeEngineError maps an engine or store failure onto an HTTP status.
func (s *Server) writeEngineError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, engine.ErrNotModified):
		w.WriteHeader(http.StatusNotModified)
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict), errors.Is(err, engine.ErrInvalidTransition):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrInvalidSpec):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error(op, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to "+op)
	}
}

// decodeBody reads a bounded JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}
