package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/skyfield/missionforge/pkg/domain"
	"github.com/skyfield/missionforge/pkg/domain/events"
	"github.com/skyfield/missionforge/pkg/domain/missiontype"
	"github.com/skyfield/missionforge/pkg/storage"
)

// MissionTypeService manages stored state-machine configurations and the
// in-memory draft sessions of the visual editor. Drafts never touch disk
// until they are committed.
type MissionTypeService struct {
	repo      *storage.MissionTypeRepository
	projects  *storage.ProjectStore
	publisher events.Publisher

	mu     sync.Mutex
	drafts map[string]*missiontype.Draft
}

func NewMissionTypeService(repo *storage.MissionTypeRepository, projects *storage.ProjectStore, publisher events.Publisher) *MissionTypeService {
	return &MissionTypeService{
		repo:      repo,
		projects:  projects,
		publisher: publisher,
		drafts:    make(map[string]*missiontype.Draft),
	}
}

// Initialize seeds the built-in configurations when the configs directory
// is empty.
func (s *MissionTypeService) Initialize() error {
	return s.repo.Initialize()
}

func (s *MissionTypeService) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.repo.List()
}

func (s *MissionTypeService) Get(ctx context.Context, name string) (*missiontype.Configuration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.repo.Load(name)
}

// Save validates and persists a configuration directly, bypassing the draft
// flow. Used for imports.
func (s *MissionTypeService) Save(ctx context.Context, cfg *missiontype.Configuration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := missiontype.Verify(cfg); err != nil {
		return err
	}
	if err := s.repo.Save(cfg); err != nil {
		return err
	}
	_ = s.publisher.Publish(events.New(events.TypeMissionTypeSaved, cfg.Name, nil))
	return nil
}

// Delete removes a stored configuration. It fails with ErrInUse when any
// mission in any project references the type.
func (s *MissionTypeService) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	projects, err := s.projects.List()
	if err != nil {
		return fmt.Errorf("scan projects: %w", err)
	}
	for _, p := range projects {
		if p.UsesMissionType(name) {
			return fmt.Errorf("mission type %q is referenced by project %q: %w", name, p.Name, domain.ErrInUse)
		}
	}
	if err := s.repo.Delete(name); err != nil {
		return err
	}
	_ = s.publisher.Publish(events.New(events.TypeMissionTypeDeleted, name, nil))
	return nil
}

// StartDraft opens an editing session. An existing stored configuration
// becomes the draft base; an absent name starts a blank draft.
func (s *MissionTypeService) StartDraft(ctx context.Context, name string) (*missiontype.Configuration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base, err := s.repo.Load(name)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, active := s.drafts[name]; active {
		return nil, fmt.Errorf("draft for %q already active: %w", name, domain.ErrConflict)
	}
	d := missiontype.NewDraft(name, base)
	s.drafts[name] = d
	return d.Configuration(), nil
}

// DraftConfiguration returns the current staged configuration of an active
// session.
func (s *MissionTypeService) DraftConfiguration(ctx context.Context, name string) (*missiontype.Configuration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, err := s.draft(name)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return d.Configuration(), nil
}

// EditDraft applies one mutation to an active session. Mutations violating
// the state-machine invariants are rejected and leave the draft unchanged.
func (s *MissionTypeService) EditDraft(ctx context.Context, name string, edit func(*missiontype.Draft) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d, err := s.draft(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return edit(d)
}

// CommitDraft validates the staged configuration, persists it, and closes
// the session.
func (s *MissionTypeService) CommitDraft(ctx context.Context, name string) (*missiontype.Configuration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, err := s.draft(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	cfg, err := d.Finalize()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(cfg); err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.drafts, name)
	s.mu.Unlock()

	_ = s.publisher.Publish(events.New(events.TypeMissionTypeSaved, cfg.Name, nil))
	return cfg, nil
}

// DiscardDraft closes a session without persisting anything.
func (s *MissionTypeService) DiscardDraft(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[name]; !ok {
		return fmt.Errorf("no active draft for %q: %w", name, domain.ErrNotFound)
	}
	delete(s.drafts, name)
	return nil
}

func (s *MissionTypeService) draft(name string) (*missiontype.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[name]
	if !ok {
		return nil, fmt.Errorf("no active draft for %q: %w", name, domain.ErrNotFound)
	}
	return d, nil
}
