package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skyfield/missionforge/pkg/domain"
	"github.com/skyfield/missionforge/pkg/domain/events"
	hubdomain "github.com/skyfield/missionforge/pkg/domain/hub"
	"github.com/skyfield/missionforge/pkg/domain/mission"
	"github.com/skyfield/missionforge/pkg/domain/missiontype"
	"github.com/skyfield/missionforge/pkg/hub"
	"github.com/skyfield/missionforge/pkg/storage"
)

// datasetPrefix is where datasets live on every host backend.
const datasetPrefix = "datasets"

// HubService pushes projects to a dataset host and pulls them back. There
// is no conflict resolution: the per-project lock enforces a single writer
// per process, and the remote dataset is overwritten wholesale on push.
type HubService struct {
	projects  *storage.ProjectStore
	types     *storage.MissionTypeRepository
	locks     *storage.ProjectLocks
	host      hub.Host
	publisher events.Publisher
}

func NewHubService(projects *storage.ProjectStore, types *storage.MissionTypeRepository, locks *storage.ProjectLocks, host hub.Host, publisher events.Publisher) *HubService {
	return &HubService{projects: projects, types: types, locks: locks, host: host, publisher: publisher}
}

// Push serializes the project, its referenced mission-type configurations,
// and every attached media file into the portable dataset layout and
// uploads it. It returns the remote reference of the dataset.
func (s *HubService) Push(ctx context.Context, projectID string) (string, error) {
	unlock := s.locks.Lock(projectID)
	defer unlock()

	p, err := s.projects.Open(projectID)
	if err != nil {
		return "", err
	}

	types := make([]*missiontype.Configuration, 0, len(p.MissionTypes))
	for _, name := range p.MissionTypes {
		cfg, err := s.types.Load(name)
		if err != nil {
			return "", fmt.Errorf("referenced mission type %q: %w", name, err)
		}
		types = append(types, cfg)
	}

	doc := hubdomain.Export(p, types)
	data, err := doc.Encode()
	if err != nil {
		return "", err
	}

	prefix := datasetPrefix + "/" + storage.DirName(p.Name)
	for _, mediaPath := range doc.MediaPaths() {
		blob, err := s.projects.Media(projectID, mediaPath)
		if err != nil {
			return "", fmt.Errorf("referenced media %q: %w", mediaPath, err)
		}
		if err := s.host.Upload(ctx, prefix+"/"+mediaPath, blob); err != nil {
			return "", err
		}
	}
	if err := s.host.Upload(ctx, prefix+"/"+hubdomain.DocumentFile, data); err != nil {
		return "", err
	}

	ref := s.host.ID() + "/" + prefix
	_ = s.publisher.Publish(events.New(events.TypeHubPushed, projectID, map[string]string{"ref": ref}))
	return ref, nil
}

// Pull downloads a dataset and imports it as a new local project. The
// payload is schema-validated before any object is constructed; mission
// types missing locally are saved, locally edited ones are left alone.
// All media is staged in memory before the first local write, and every
// later failure rolls the stub project and freshly saved mission types
// back, so a failed pull leaves no trace and can simply be retried.
func (s *HubService) Pull(ctx context.Context, ref string) (*mission.Project, error) {
	prefix := strings.TrimPrefix(ref, s.host.ID()+"/")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return nil, domain.NewValidationError("hub reference", []error{fmt.Errorf("empty remote reference")})
	}

	data, err := s.host.Download(ctx, prefix+"/"+hubdomain.DocumentFile)
	if err != nil {
		return nil, err
	}
	doc, err := hubdomain.Decode(ref, data)
	if err != nil {
		return nil, err
	}
	imported, types := doc.Import()

	staged := make(map[string][]byte)
	for _, mediaPath := range doc.MediaPaths() {
		blob, err := s.host.Download(ctx, prefix+"/"+mediaPath)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		staged[mediaPath] = blob
	}

	var savedTypes []string
	undoTypes := func() {
		for _, name := range savedTypes {
			_ = s.types.Delete(name)
		}
	}
	for _, cfg := range types {
		if _, err := s.types.Load(cfg.Name); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			undoTypes()
			return nil, err
		}
		if err := s.types.Save(cfg); err != nil {
			undoTypes()
			return nil, err
		}
		savedTypes = append(savedTypes, cfg.Name)
	}

	created, err := s.projects.Create(imported.Name)
	if err != nil {
		undoTypes()
		return nil, err
	}
	imported.ID = created.ID
	if imported.CreatedAt.IsZero() {
		imported.CreatedAt = created.CreatedAt
	}

	unlock := s.locks.Lock(imported.ID)
	defer unlock()

	undoAll := func() {
		_ = s.projects.Delete(imported.ID)
		undoTypes()
	}
	for mediaPath, blob := range staged {
		if err := s.projects.PutMedia(imported.ID, mediaPath, blob); err != nil {
			undoAll()
			return nil, err
		}
	}
	if err := s.projects.Save(imported); err != nil {
		undoAll()
		return nil, err
	}

	for _, name := range savedTypes {
		_ = s.publisher.Publish(events.New(events.TypeMissionTypeSaved, name, map[string]string{"source": "hub"}))
	}
	_ = s.publisher.Publish(events.New(events.TypeHubPulled, imported.ID, map[string]string{"ref": ref}))
	return imported, nil
}
