package httpapi

import (
	"io"
	"net/http"

	"github.com/skyfield/missionforge/pkg/domain/mission"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.container.ProjectSvc.ListProjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := s.container.ProjectSvc.CreateProject(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.container.ProjectSvc.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	var p mission.Project
	if !decodeBody(w, r, &p) {
		return
	}
	p.ID = r.PathValue("id")
	if err := s.container.ProjectSvc.SaveProject(r.Context(), &p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.container.ProjectSvc.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddMission(w http.ResponseWriter, r *http.Request) {
	var m mission.Mission
	if !decodeBody(w, r, &m) {
		return
	}
	added, err := s.container.ProjectSvc.AddMission(r.Context(), r.PathValue("id"), m)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateMission(w http.ResponseWriter, r *http.Request) {
	var m mission.Mission
	if !decodeBody(w, r, &m) {
		return
	}
	m.ID = r.PathValue("missionID")
	if err := s.container.ProjectSvc.UpdateMission(r.Context(), r.PathValue("id"), m); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMission(w http.ResponseWriter, r *http.Request) {
	if err := s.container.ProjectSvc.DeleteMission(r.Context(), r.PathValue("id"), r.PathValue("missionID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateWaypoint(w http.ResponseWriter, r *http.Request) {
	var wp mission.Waypoint
	if !decodeBody(w, r, &wp) {
		return
	}
	wp.ID = r.PathValue("waypointID")
	if err := s.container.ProjectSvc.UpdateWaypoint(r.Context(), r.PathValue("id"), r.PathValue("missionID"), wp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wp)
}

func (s *Server) handleAttachMedia(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 32<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read media body: " + err.Error()})
		return
	}
	relPath, err := s.container.ProjectSvc.AttachMedia(r.Context(),
		r.PathValue("id"), r.PathValue("missionID"), r.PathValue("waypointID"),
		r.URL.Query().Get("label"), r.URL.Query().Get("filename"), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": relPath})
}

func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	data, err := s.container.ProjectSvc.Media(r.Context(), r.PathValue("id"), r.PathValue("path"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	_, _ = w.Write(data)
}
