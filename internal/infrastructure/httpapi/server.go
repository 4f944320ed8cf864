// Package httpapi exposes the editor over HTTP: project and mission CRUD,
// the mission-type draft editor, generation, hub sync, settings, and the
// event feeds.
package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/skyfield/missionforge/internal/infrastructure/sse"
	"github.com/skyfield/missionforge/internal/infrastructure/wiring"
)

// Server is the editor's HTTP server.
type Server struct {
	addr      string
	container *wiring.Container
	events    *sse.Handler
	ws        *wsHandler
	server    *http.Server
}

// NewServer creates a server bound to the given address.
func NewServer(addr string, container *wiring.Container) *Server {
	return &Server{
		addr:      addr,
		container: container,
		events:    sse.NewHandler(container.Publisher),
		ws:        newWSHandler(container.Publisher),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	mux.HandleFunc("PUT /api/projects/{id}", s.handleSaveProject)
	mux.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)

	mux.HandleFunc("POST /api/projects/{id}/missions", s.handleAddMission)
	mux.HandleFunc("PUT /api/projects/{id}/missions/{missionID}", s.handleUpdateMission)
	mux.HandleFunc("DELETE /api/projects/{id}/missions/{missionID}", s.handleDeleteMission)
	mux.HandleFunc("PUT /api/projects/{id}/missions/{missionID}/waypoints/{waypointID}", s.handleUpdateWaypoint)
	mux.HandleFunc("POST /api/projects/{id}/missions/{missionID}/waypoints/{waypointID}/media", s.handleAttachMedia)
	mux.HandleFunc("GET /api/projects/{id}/media/{path...}", s.handleGetMedia)

	mux.HandleFunc("POST /api/projects/{id}/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/projects/{id}/hub/push", s.handleHubPush)
	mux.HandleFunc("POST /api/hub/pull", s.handleHubPull)

	mux.HandleFunc("GET /api/mission-types", s.handleListMissionTypes)
	mux.HandleFunc("GET /api/mission-types/{name}", s.handleGetMissionType)
	mux.HandleFunc("DELETE /api/mission-types/{name}", s.handleDeleteMissionType)

	mux.HandleFunc("POST /api/mission-types/{name}/draft", s.handleStartDraft)
	mux.HandleFunc("GET /api/mission-types/{name}/draft", s.handleGetDraft)
	mux.HandleFunc("DELETE /api/mission-types/{name}/draft", s.handleDiscardDraft)
	mux.HandleFunc("POST /api/mission-types/{name}/draft/commit", s.handleCommitDraft)
	mux.HandleFunc("POST /api/mission-types/{name}/draft/states", s.handleDraftAddState)
	mux.HandleFunc("PUT /api/mission-types/{name}/draft/states/{state}", s.handleDraftUpdateState)
	mux.HandleFunc("DELETE /api/mission-types/{name}/draft/states/{state}", s.handleDraftRemoveState)
	mux.HandleFunc("PUT /api/mission-types/{name}/draft/initial", s.handleDraftSetInitial)
	mux.HandleFunc("PUT /api/mission-types/{name}/draft/description", s.handleDraftSetDescription)
	mux.HandleFunc("POST /api/mission-types/{name}/draft/transitions", s.handleDraftAddTransition)
	mux.HandleFunc("DELETE /api/mission-types/{name}/draft/transitions", s.handleDraftRemoveTransition)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)

	mux.Handle("GET /api/events", s.events)
	mux.HandleFunc("GET /api/events/ws", s.ws.serve)

	return mux
}

// Start runs the server until it is shut down. Event streams stay open
// indefinitely, so only the read side is bounded.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       120 * time.Second,
	}
	log.Printf("mission editor listening on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
