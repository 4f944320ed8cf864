package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/skyfield/missionforge/pkg/domain"
	"github.com/skyfield/missionforge/pkg/domain/mission"
)

const (
	// MetadataFile is the project document inside each project directory.
	MetadataFile = "metadata.json"
	// ImagesDir holds the media attachments of a project.
	ImagesDir = "images"
)

var projectDirPattern = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ProjectStore persists one directory per project under a projects root.
// All mutations are local-filesystem writes; it never touches the network.
type ProjectStore struct {
	root        string
	retryConfig retry.Config
}

// NewProjectStore creates a store rooted at the given directory.
func NewProjectStore(root string) *ProjectStore {
	return &ProjectStore{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the projects root directory.
func (s *ProjectStore) Root() string {
	return s.root
}

// Initialize creates the projects root.
func (s *ProjectStore) Initialize() error {
	if err := os.MkdirAll(s.root, 0o700); err != nil {
		return fmt.Errorf("failed to create projects root: %w", err)
	}
	return nil
}

// DirName maps a project name onto its directory name.
func DirName(name string) string {
	return projectDirPattern.ReplaceAllString(name, "_")
}

// Create makes a new empty project. It fails with ErrConflict before any
// write when a project with the same name already exists.
func (s *ProjectStore) Create(name string) (*mission.Project, error) {
	if name == "" {
		return nil, domain.NewValidationError("project", []error{fmt.Errorf("project name is required")})
	}
	dir := filepath.Join(s.root, DirName(name))
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("project %q: %w", name, domain.ErrConflict)
	}

	p := mission.NewProject(name)
	if err := os.MkdirAll(filepath.Join(dir, ImagesDir), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}
	if err := s.writeProject(dir, p); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return p, nil
}

// Open loads the project with the given id, failing with ErrNotFound when no
// project directory carries it.
func (s *ProjectStore) Open(id string) (*mission.Project, error) {
	dir, err := s.dirForID(id)
	if err != nil {
		return nil, err
	}
	return s.readProject(dir)
}

// OpenByName loads a project by its name.
func (s *ProjectStore) OpenByName(name string) (*mission.Project, error) {
	dir := filepath.Join(s.root, DirName(name))
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("project %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat project directory: %w", err)
	}
	return s.readProject(dir)
}

// Save persists the full object graph atomically. The prior document stays
// intact on any failure. A changed project name moves the directory; the
// move fails with ErrConflict when another project already claims the name.
func (s *ProjectStore) Save(p *mission.Project) error {
	if errs := p.Validate(); len(errs) > 0 {
		return domain.NewValidationError("project "+p.Name, errs)
	}
	dir, err := s.dirForID(p.ID)
	if err != nil {
		return err
	}
	target := filepath.Join(s.root, DirName(p.Name))
	if target != dir {
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("project %q: %w", p.Name, domain.ErrConflict)
		}
		if err := os.Rename(dir, target); err != nil {
			return fmt.Errorf("failed to rename project directory: %w", err)
		}
		dir = target
	}
	return s.writeProject(dir, p)
}

// Delete removes the project and everything it owns: missions, waypoints,
// and media.
func (s *ProjectStore) Delete(id string) error {
	dir, err := s.dirForID(id)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete project directory: %w", err)
	}
	return nil
}

// List returns all projects sorted by name. The directory is re-enumerated
// on every call.
func (s *ProjectStore) List() ([]*mission.Project, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read projects root: %w", err)
	}

	var projects []*mission.Project
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p, err := s.readProject(filepath.Join(s.root, entry.Name()))
		if err != nil {
			// Skip directories without a readable project document.
			continue
		}
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}

// PutMedia stores attachment bytes under the project's images tree. The
// relative path is confined to the project directory.
func (s *ProjectStore) PutMedia(projectID, relPath string, data []byte) error {
	dir, err := s.dirForID(projectID)
	if err != nil {
		return err
	}
	path, err := resolveWithin(dir, relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}
	return writeFileAtomic(path, data)
}

// DeleteMedia removes one attachment. Absent files are not an error; media
// cleanup must be idempotent.
func (s *ProjectStore) DeleteMedia(projectID, relPath string) error {
	dir, err := s.dirForID(projectID)
	if err != nil {
		return err
	}
	path, err := resolveWithin(dir, relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove media: %w", err)
	}
	return nil
}

// Media reads attachment bytes from the project's directory.
func (s *ProjectStore) Media(projectID, relPath string) ([]byte, error) {
	dir, err := s.dirForID(projectID)
	if err != nil {
		return nil, err
	}
	path, err := resolveWithin(dir, relPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("media %s: %w", relPath, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read media: %w", err)
	}
	return data, nil
}

func (s *ProjectStore) writeProject(dir string, p *mission.Project) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, MetadataFile), data)
}

func (s *ProjectStore) readProject(dir string) (*mission.Project, error) {
	retryer := retry.New[*mission.Project](s.retryConfig)

	return retryer.Do(context.Background(), func(ctx context.Context) (*mission.Project, error) {
		data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("project document in %s: %w", dir, domain.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to read project document: %w", err)
		}

		var p mission.Project
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, &domain.FormatError{Source: filepath.Join(dir, MetadataFile), Reason: err.Error()}
		}
		if migrated, ok := migrateLegacyDocument(data, &p); ok {
			return migrated, nil
		}
		return &p, nil
	})
}

func (s *ProjectStore) dirForID(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("project id: %w", domain.ErrNotFound)
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return "", fmt.Errorf("failed to read projects root: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(s.root, entry.Name())
		data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
		if err != nil {
			continue
		}
		var header struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &header); err != nil {
			continue
		}
		if header.ID == id {
			return dir, nil
		}
	}
	return "", fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
}

// migrateLegacyDocument folds the pre-mission document layout (a top-level
// waypoints array) into a single default mission. The migrated form is
// written back on the next save, not here.
func migrateLegacyDocument(data []byte, p *mission.Project) (*mission.Project, bool) {
	if len(p.Missions) > 0 {
		return nil, false
	}
	var legacy struct {
		Instruction string             `json:"instruction"`
		Waypoints   []mission.Waypoint `json:"waypoints"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil || len(legacy.Waypoints) == 0 {
		return nil, false
	}
	p.Missions = []mission.Mission{{
		ID:             "default_mission",
		Name:           "Default Mission",
		Type:           "locate_and_report",
		CreationSource: mission.SourceManual,
		Instruction:    legacy.Instruction,
		Waypoints:      legacy.Waypoints,
	}}
	p.RecordMissionType("locate_and_report")
	return p, true
}
