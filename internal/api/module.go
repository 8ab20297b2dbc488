package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/edgemgmt/internal/mapping"
	"github.com/seantiz/edgemgmt/internal/mgmtapi"
	"github.com/seantiz/edgemgmt/internal/model"
	"github.com/seantiz/edgemgmt/internal/store"
)

// moduleDetails renders a stored module in the runtime's wire shape.
func moduleDetails(m *store.Module) mgmtapi.ModuleDetails {
	status := &mgmtapi.Status{
		StartTime: m.StartTime,
		RuntimeStatus: &mgmtapi.RuntimeStatus{
			Status:      m.Status.String(),
			Description: m.Description,
		},
	}
	if m.ExitCode != nil && m.ExitTime != nil {
		status.ExitStatus = &mgmtapi.ExitStatus{
			ExitTime:   *m.ExitTime,
			StatusCode: strconv.FormatInt(*m.ExitCode, 10),
		}
	}

	wire := mapping.ToWireModuleSpec(m.Spec)
	return mgmtapi.ModuleDetails{
		ID:     m.ID,
		Name:   wire.Name,
		Type:   wire.Type,
		Config: wire.Config,
		Status: status,
	}
}

// decodeModuleSpec reads a module spec body. For named routes the body name
// may be omitted but must match the path when present.
func (s *Server) decodeModuleSpec(w http.ResponseWriter, r *http.Request, name string) (model.ModuleSpec, bool) {
	var req mgmtapi.ModuleSpec
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return model.ModuleSpec{}, false
	}
	if name != "" {
		if req.Name != "" && req.Name != name {
			s.writeError(w, http.StatusBadRequest, "module name in body does not match path")
			return model.ModuleSpec{}, false
		}
		req.Name = name
	}
	return mapping.FromWireModuleSpec(req), true
}

func (s *Server) handleCreateModule(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.decodeModuleSpec(w, r, "")
	if !ok {
		return
	}

	m, err := s.engine.CreateModule(r.Context(), spec)
	if err != nil {
		s.writeEngineError(w, "create module", err)
		return
	}

	s.writeJSON(w, http.StatusCreated, moduleDetails(m))
}

func (s *Server) handleGetModule(w http.ResponseWriter, r *http.Request) {
	m, err := s.engine.GetModule(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeEngineError(w, "get module", err)
		return
	}
	s.writeJSON(w, http.StatusOK, moduleDetails(m))
}

func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := s.engine.ListModules(r.Context())
	if err != nil {
		s.writeEngineError(w, "list modules", err)
		return
	}

	resp := mgmtapi.ModuleList{Modules: make([]mgmtapi.ModuleDetails, 0, len(modules))}
	for _, m := range modules {
		resp.Modules = append(resp.Modules, moduleDetails(m))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateModule(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.decodeModuleSpec(w, r, chi.URLParam(r, "name"))
	if !ok {
		return
	}
	start, _ := strconv.ParseBool(r.URL.Query().Get("start"))

	m, err := s.engine.UpdateModule(r.Context(), spec, start)
	if err != nil {
		s.writeEngineError(w, "update module", err)
		return
	}

	s.writeJSON(w, http.StatusOK, moduleDetails(m))
}

func (s *Server) handlePrepareUpdate(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.decodeModuleSpec(w, r, chi.URLParam(r, "name"))
	if !ok {
		return
	}

	if err := s.engine.PrepareUpdate(r.Context(), spec); err != nil {
		s.writeEngineError(w, "prepare update", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteModule(w http.ResponseWriter, r *http.Request) {
	s.moduleAction(w, r, "delete module", s.engine.DeleteModule)
}

func (s *Server) handleStartModule(w http.ResponseWriter, r *http.Request) {
	s.moduleAction(w, r, "start module", s.engine.StartModule)
}

func (s *Server) handleStopModule(w http.ResponseWriter, r *http.Request) {
	s.moduleAction(w, r, "stop module", s.engine.StopModule)
}

func (s *Server) handleRestartModule(w http.ResponseWriter, r *http.Request) {
	s.moduleAction(w, r, "restart module", s.engine.RestartModule)
}

// moduleAction runs a by-name engine call that answers 204 on success.
func (s *Server) moduleAction(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, string) error) {
	if err := fn(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeEngineError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, mapping.ToWireSystemInfo(s.engine.SystemInfo()))
}
