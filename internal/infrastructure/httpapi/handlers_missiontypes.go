package httpapi

import (
	"net/http"

	"github.com/skyfield/missionforge/pkg/domain/missiontype"
)

func (s *Server) handleListMissionTypes(w http.ResponseWriter, r *http.Request) {
	names, err := s.container.TypeSvc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleGetMissionType(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.container.TypeSvc.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleDeleteMissionType(w http.ResponseWriter, r *http.Request) {
	if err := s.container.TypeSvc.Delete(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartDraft(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.container.TypeSvc.StartDraft(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.container.TypeSvc.DraftConfiguration(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.container.TypeSvc.DiscardDraft(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCommitDraft(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.container.TypeSvc.CommitDraft(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleDraftAddState(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		missiontype.State
	}
	if !decodeBody(w, r, &req) {
		return
	}
	err := s.container.TypeSvc.EditDraft(r.Context(), r.PathValue("name"), func(d *missiontype.Draft) error {
		return d.AddState(req.Name, req.State)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleDraftUpdateState(w http.ResponseWriter, r *http.Request) {
	var state missiontype.State
	if !decodeBody(w, r, &state) {
		return
	}
	err := s.container.TypeSvc.EditDraft(r.Context(), r.PathValue("name"), func(d *missiontype.Draft) error {
		return d.UpdateState(r.PathValue("state"), state)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDraftRemoveState(w http.ResponseWriter, r *http.Request) {
	err := s.container.TypeSvc.EditDraft(r.Context(), r.PathValue("name"), func(d *missiontype.Draft) error {
		return d.RemoveState(r.PathValue("state"), r.URL.Query().Get("replacement_initial"))
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDraftSetInitial(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	err := s.container.TypeSvc.EditDraft(r.Context(), r.PathValue("name"), func(d *missiontype.Draft) error {
		return d.SetInitial(req.Name)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDraftSetDescription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	err := s.container.TypeSvc.EditDraft(r.Context(), r.PathValue("name"), func(d *missiontype.Draft) error {
		d.SetDescription(req.Description)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDraftAddTransition(w http.ResponseWriter, r *http.Request) {
	var t missiontype.Transition
	if !decodeBody(w, r, &t) {
		return
	}
	err := s.container.TypeSvc.EditDraft(r.Context(), r.PathValue("name"), func(d *missiontype.Draft) error {
		return d.AddTransition(t)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleDraftRemoveTransition(w http.ResponseWriter, r *http.Request) {
	var t missiontype.Transition
	if !decodeBody(w, r, &t) {
		return
	}
	err := s.container.TypeSvc.EditDraft(r.Context(), r.PathValue("name"), func(d *missiontype.Draft) error {
		return d.RemoveTransition(t)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
