package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/skyfield/missionforge/pkg/domain"
	"github.com/skyfield/missionforge/pkg/domain/missiontype"
)

// configExtensions lists the accepted document formats, in preference order.
// YAML is the canonical format; JSON documents from the original tooling are
// still readable.
var configExtensions = []string{".yaml", ".yml", ".json"}

// MissionTypeRepository persists one configuration document per mission type
// under a configs root.
type MissionTypeRepository struct {
	root string
}

// NewMissionTypeRepository creates a repository rooted at the given
// directory.
func NewMissionTypeRepository(root string) *MissionTypeRepository {
	return &MissionTypeRepository{root: root}
}

// Root returns the configs root directory.
func (r *MissionTypeRepository) Root() string {
	return r.root
}

// Initialize creates the configs root and seeds the built-in mission types
// when the directory holds no configurations yet.
func (r *MissionTypeRepository) Initialize() error {
	if err := os.MkdirAll(r.root, 0o700); err != nil {
		return fmt.Errorf("failed to create configs root: %w", err)
	}
	names, err := r.List()
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return nil
	}
	for _, cfg := range missiontype.Defaults() {
		if err := r.Save(cfg); err != nil {
			return fmt.Errorf("failed to seed default %q: %w", cfg.Name, err)
		}
	}
	return nil
}

// Load reads and validates the configuration with the given name. It fails
// with ErrNotFound when absent and ErrValidation when the stored document
// violates the state-machine invariants.
func (r *MissionTypeRepository) Load(name string) (*missiontype.Configuration, error) {
	path, ext, err := r.find(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration %q: %w", name, err)
	}

	var cfg missiontype.Configuration
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, &domain.FormatError{Source: path, Reason: err.Error()}
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, &domain.FormatError{Source: path, Reason: err.Error()}
		}
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	if cfg.Name != name {
		return nil, domain.NewValidationError(name, []error{
			fmt.Errorf("document declares name %q but is stored as %q", cfg.Name, name),
		})
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, domain.NewValidationError(name, errs)
	}
	return &cfg, nil
}

// Save validates and persists the configuration with atomic replace. A save
// that fails validation leaves any prior stored document unchanged. A stale
// JSON twin from the original tooling is removed so the YAML document is the
// single source of truth.
func (r *MissionTypeRepository) Save(cfg *missiontype.Configuration) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return domain.NewValidationError(cfg.Name, errs)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	path := filepath.Join(r.root, cfg.Name+".yaml")
	if err := writeFileAtomic(path, data); err != nil {
		return err
	}
	os.Remove(filepath.Join(r.root, cfg.Name+".json"))
	return nil
}

// List returns the stored configuration names, sorted, re-enumerating the
// directory on each call.
func (r *MissionTypeRepository) List() ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read configs root: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !isConfigExtension(ext) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes every stored document for the name. Reference checking is
// the Mission-Type Manager's job; the repository only touches files.
func (r *MissionTypeRepository) Delete(name string) error {
	if _, _, err := r.find(name); err != nil {
		return err
	}
	for _, ext := range configExtensions {
		os.Remove(filepath.Join(r.root, name+ext))
	}
	return nil
}

func (r *MissionTypeRepository) find(name string) (path, ext string, err error) {
	if name == "" || name != filepath.Base(name) {
		return "", "", fmt.Errorf("mission type %q: %w", name, domain.ErrNotFound)
	}
	for _, ext := range configExtensions {
		path := filepath.Join(r.root, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, ext, nil
		}
	}
	return "", "", fmt.Errorf("mission type %q: %w", name, domain.ErrNotFound)
}

func isConfigExtension(ext string) bool {
	for _, known := range configExtensions {
		if ext == known {
			return true
		}
	}
	return false
}
