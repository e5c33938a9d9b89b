package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Tcordeir0/vpsurge-fin/internal/vps"
)

type vpsListResponse struct {
	Configs  []vps.Config `json:"configs"`
	Statuses []vps.Status `json:"statuses"`
}

func (s *Server) handleListVPS(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, vpsListResponse{
		Configs:  s.vps.Configs(),
		Statuses: s.vps.Statuses(),
	})
}

func (s *Server) handleCreateVPS(w http.ResponseWriter, r *http.Request) {
	var cfg vps.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	saved, err := s.vps.AddConfig(r.Context(), cfg)
	if err != nil {
		writeError(w, r, badRequestf(err.Error()))
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateVPS(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var cfg vps.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	if err := s.vps.UpdateConfig(r.Context(), id, cfg); err != nil {
		s.writeVPSError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteVPS(w http.ResponseWriter, r *http.Request) {
	if err := s.vps.DeleteConfig(r.Context(), r.PathValue("id")); err != nil {
		s.writeVPSError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleTestVPS(w http.ResponseWriter, r *http.Request) {
	st, err := s.vps.TestConnection(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeVPSError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleRestartVPS(w http.ResponseWriter, r *http.Request) {
	st, err := s.vps.Restart(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeVPSError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleToggleVPS(w http.ResponseWriter, r *http.Request) {
	st, err := s.vps.Toggle(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeVPSError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleRefreshVPS(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.vps.RefreshAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if statuses == nil {
		statuses = []vps.Status{}
	}
	writeJSON(w, http.StatusOK, statuses)
}

// writeVPSError keeps not-found as 404 and treats everything else from the
// manager as a validation problem; there is no remote backend behind it.
func (s *Server) writeVPSError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, vps.ErrNotFound) {
		writeError(w, r, err)
		return
	}
	writeError(w, r, badRequestf(err.Error()))
}
