package httpapi

import (
	"net/http"

	"github.com/skyfield/missionforge/internal/infrastructure/config"
	"github.com/skyfield/missionforge/pkg/domain/generation"
)

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MissionType string `json:"mission_type"`
		generation.Params
	}
	if !decodeBody(w, r, &req) {
		return
	}
	svc, err := s.container.Generation()
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := svc.Generate(r.Context(), r.PathValue("id"), req.MissionType, req.Params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleHubPush(w http.ResponseWriter, r *http.Request) {
	svc, err := s.container.Hub()
	if err != nil {
		writeError(w, err)
		return
	}
	ref, err := svc.Push(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ref": ref})
}

func (s *Server) handleHubPull(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ref string `json:"ref"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	svc, err := s.container.Hub()
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := svc.Pull(r.Context(), req.Ref)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.container.Settings().Redacted())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings config.Settings
	if !decodeBody(w, r, &settings) {
		return
	}
	if err := s.container.UpdateSettings(r.Context(), &settings); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings.Redacted())
}
