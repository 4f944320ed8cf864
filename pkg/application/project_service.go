// Package application wires the domain model to storage and external
// adapters, one service per concern.
package application

import (
	"context"
	"fmt"
	"math/rand"
	"path"
	"strings"
	"time"

	"github.com/skyfield/missionforge/pkg/domain"
	"github.com/skyfield/missionforge/pkg/domain/events"
	"github.com/skyfield/missionforge/pkg/domain/mission"
	"github.com/skyfield/missionforge/pkg/storage"
)

// ProjectService manages the project/mission/waypoint graph. All mutations
// for one project are serialized through the shared lock registry.
type ProjectService struct {
	store     *storage.ProjectStore
	types     *storage.MissionTypeRepository
	locks     *storage.ProjectLocks
	publisher events.Publisher
}

func NewProjectService(store *storage.ProjectStore, types *storage.MissionTypeRepository, locks *storage.ProjectLocks, publisher events.Publisher) *ProjectService {
	return &ProjectService{store: store, types: types, locks: locks, publisher: publisher}
}

// CreateProject creates an empty project directory. Fails with ErrConflict
// when a project with the same name already exists.
func (s *ProjectService) CreateProject(ctx context.Context, name string) (*mission.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("project", []error{fmt.Errorf("project name is required")})
	}
	p, err := s.store.Create(name)
	if err != nil {
		return nil, err
	}
	_ = s.publisher.Publish(events.New(events.TypeProjectSaved, p.ID, map[string]string{"name": p.Name}))
	return p, nil
}

func (s *ProjectService) GetProject(ctx context.Context, id string) (*mission.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.Open(id)
}

func (s *ProjectService) ListProjects(ctx context.Context) ([]*mission.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.List()
}

// SaveProject validates and persists the full object graph.
func (s *ProjectService) SaveProject(ctx context.Context, p *mission.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.locks.Lock(p.ID)
	defer unlock()

	if err := s.store.Save(p); err != nil {
		return err
	}
	_ = s.publisher.Publish(events.New(events.TypeProjectSaved, p.ID, map[string]string{"name": p.Name}))
	return nil
}

// DeleteProject removes the project directory including all missions,
// waypoints, and attached media.
func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.store.Delete(id); err != nil {
		return err
	}
	_ = s.publisher.Publish(events.New(events.TypeProjectDeleted, id, nil))
	return nil
}

// AddMission appends a manually authored mission to the project. A missing
// mission id is generated; waypoint ids are renumbered in order.
func (s *ProjectService) AddMission(ctx context.Context, projectID string, m mission.Mission) (*mission.Mission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Type == "" {
		return nil, domain.NewValidationError("mission", []error{fmt.Errorf("mission type is required")})
	}
	if _, err := s.types.Load(m.Type); err != nil {
		return nil, fmt.Errorf("mission type %q: %w", m.Type, err)
	}

	unlock := s.locks.Lock(projectID)
	defer unlock()

	p, err := s.store.Open(projectID)
	if err != nil {
		return nil, err
	}
	if m.ID == "" {
		m.ID = mission.NewMissionID(time.Now(), rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	if p.Mission(m.ID) != nil {
		return nil, fmt.Errorf("mission %s already exists: %w", m.ID, domain.ErrConflict)
	}
	if m.CreationSource == "" {
		m.CreationSource = mission.SourceManual
	}
	renumberWaypoints(&m)

	p.Missions = append(p.Missions, m)
	p.RecordMissionType(m.Type)
	if err := s.store.Save(p); err != nil {
		return nil, err
	}
	_ = s.publisher.Publish(events.New(events.TypeProjectSaved, p.ID, map[string]string{"mission": m.ID}))
	return p.Mission(m.ID), nil
}

// UpdateMission replaces a mission in place, keyed by its id.
func (s *ProjectService) UpdateMission(ctx context.Context, projectID string, m mission.Mission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.Type != "" {
		if _, err := s.types.Load(m.Type); err != nil {
			return fmt.Errorf("mission type %q: %w", m.Type, err)
		}
	}

	unlock := s.locks.Lock(projectID)
	defer unlock()

	p, err := s.store.Open(projectID)
	if err != nil {
		return err
	}
	existing := p.Mission(m.ID)
	if existing == nil {
		return fmt.Errorf("mission %s: %w", m.ID, domain.ErrNotFound)
	}
	renumberWaypoints(&m)
	*existing = m
	p.RecordMissionType(m.Type)

	if err := s.store.Save(p); err != nil {
		return err
	}
	_ = s.publisher.Publish(events.New(events.TypeProjectSaved, p.ID, map[string]string{"mission": m.ID}))
	return nil
}

// DeleteMission removes a mission from the project.
func (s *ProjectService) DeleteMission(ctx context.Context, projectID, missionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.locks.Lock(projectID)
	defer unlock()

	p, err := s.store.Open(projectID)
	if err != nil {
		return err
	}
	kept := p.Missions[:0]
	found := false
	for _, m := range p.Missions {
		if m.ID == missionID {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return fmt.Errorf("mission %s: %w", missionID, domain.ErrNotFound)
	}
	p.Missions = kept

	if err := s.store.Save(p); err != nil {
		return err
	}
	_ = s.publisher.Publish(events.New(events.TypeProjectSaved, p.ID, map[string]string{"deleted_mission": missionID}))
	return nil
}

// UpdateWaypoint replaces one waypoint of a mission, keyed by its id.
func (s *ProjectService) UpdateWaypoint(ctx context.Context, projectID, missionID string, wp mission.Waypoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.locks.Lock(projectID)
	defer unlock()

	p, err := s.store.Open(projectID)
	if err != nil {
		return err
	}
	m := p.Mission(missionID)
	if m == nil {
		return fmt.Errorf("mission %s: %w", missionID, domain.ErrNotFound)
	}
	replaced := false
	for i := range m.Waypoints {
		if m.Waypoints[i].ID == wp.ID {
			m.Waypoints[i] = wp
			replaced = true
			break
		}
	}
	if !replaced {
		return fmt.Errorf("waypoint %s: %w", wp.ID, domain.ErrNotFound)
	}

	if err := s.store.Save(p); err != nil {
		return err
	}
	_ = s.publisher.Publish(events.New(events.TypeProjectSaved, p.ID, map[string]string{"mission": missionID, "waypoint": wp.ID}))
	return nil
}

// AttachMedia stores an image under the project's media directory and
// records it on the waypoint under the given label.
func (s *ProjectService) AttachMedia(ctx context.Context, projectID, missionID, waypointID, label, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if label == "" {
		return "", domain.NewValidationError("media", []error{fmt.Errorf("media label is required")})
	}
	ext := path.Ext(filename)
	if ext == "" {
		ext = ".png"
	}
	relPath := path.Join(storage.ImagesDir, fmt.Sprintf("%s_%s_%s%s", missionID, waypointID, label, ext))

	unlock := s.locks.Lock(projectID)
	defer unlock()

	p, err := s.store.Open(projectID)
	if err != nil {
		return "", err
	}
	m := p.Mission(missionID)
	if m == nil {
		return "", fmt.Errorf("mission %s: %w", missionID, domain.ErrNotFound)
	}
	var wp *mission.Waypoint
	for i := range m.Waypoints {
		if m.Waypoints[i].ID == waypointID {
			wp = &m.Waypoints[i]
			break
		}
	}
	if wp == nil {
		return "", fmt.Errorf("waypoint %s: %w", waypointID, domain.ErrNotFound)
	}

	if err := s.store.PutMedia(projectID, relPath, data); err != nil {
		return "", err
	}
	if wp.Media == nil {
		wp.Media = make(map[string]string)
	}
	wp.Media[label] = relPath

	if err := s.store.Save(p); err != nil {
		return "", err
	}
	_ = s.publisher.Publish(events.New(events.TypeProjectSaved, p.ID, map[string]string{"mission": missionID, "waypoint": waypointID, "media": label}))
	return relPath, nil
}

// Media reads one media file attached to the project.
func (s *ProjectService) Media(ctx context.Context, projectID, relPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.Media(projectID, relPath)
}

func renumberWaypoints(m *mission.Mission) {
	for i := range m.Waypoints {
		if m.Waypoints[i].ID == "" {
			m.Waypoints[i].ID = mission.WaypointID(i + 1)
		}
	}
}
