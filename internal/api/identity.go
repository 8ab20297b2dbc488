package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/edgemgmt/internal/mapping"
	"github.com/seantiz/edgemgmt/internal/mgmtapi"
)

const authTypeSas = "sas"

func wireIdentity(id mgmtapi.Identity) mgmtapi.Identity {
	id.AuthType = authTypeSas
	return id
}

func (s *Server) handleCreateIdentity(w http.ResponseWriter, r *http.Request) {
	var req mgmtapi.IdentitySpec
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ModuleID == "" {
		s.writeError(w, http.StatusBadRequest, "moduleId is required")
		return
	}

	id, err := s.engine.CreateIdentity(r.Context(), req.ModuleID, req.ManagedBy)
	if err != nil {
		s.writeEngineError(w, "create identity", err)
		return
	}

	s.writeJSON(w, http.StatusOK, wireIdentity(mapping.ToWireIdentity(id)))
}

func (s *Server) handleUpdateIdentity(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req mgmtapi.UpdateIdentity
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := s.engine.UpdateIdentity(r.Context(), name, req.GenerationID, req.ManagedBy)
	if err != nil {
		s.writeEngineError(w, "update identity", err)
		return
	}

	s.writeJSON(w, http.StatusOK, wireIdentity(mapping.ToWireIdentity(id)))
}

func (s *Server) handleDeleteIdentity(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteIdentity(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeEngineError(w, "delete identity", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListIdentities(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.ListIdentities(r.Context())
	if err != nil {
		s.writeEngineError(w, "list identities", err)
		return
	}

	resp := mgmtapi.IdentityList{Identities: make([]mgmtapi.Identity, 0, len(ids))}
	for _, id := range ids {
		resp.Identities = append(resp.Identities, wireIdentity(mapping.ToWireIdentity(id)))
	}
	s.writeJSON(w, http.StatusOK, resp)
}
