// Package wiring assembles stores, adapters, and services for the running
// application.
package wiring

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/skyfield/missionforge/internal/infrastructure/config"
	aiprovider "github.com/skyfield/missionforge/pkg/ai"
	"github.com/skyfield/missionforge/pkg/application"
	"github.com/skyfield/missionforge/pkg/domain"
	"github.com/skyfield/missionforge/pkg/hub"
	"github.com/skyfield/missionforge/pkg/storage"
)

// Container holds the wired services. The generation and hub services are
// rebuilt whenever settings change, because both depend on credentials.
type Container struct {
	Root       string
	ConfigsDir string

	Projects  *storage.ProjectStore
	Types     *storage.MissionTypeRepository
	Locks     *storage.ProjectLocks
	Publisher *storage.InMemoryEventPublisher

	ProjectSvc *application.ProjectService
	TypeSvc    *application.MissionTypeService

	mu       sync.RWMutex
	settings *config.Settings
	genSvc   *application.GenerationService
	hubSvc   *application.HubService
}

// Build wires the application rooted at the given workspace directory. The
// layout is projects/ for project data and configs/ for mission types and
// settings.
func Build(ctx context.Context, root string) (*Container, error) {
	c := &Container{
		Root:       root,
		ConfigsDir: filepath.Join(root, "configs"),
		Projects:   storage.NewProjectStore(filepath.Join(root, "projects")),
		Types:      storage.NewMissionTypeRepository(filepath.Join(root, "configs", "mission_types")),
		Locks:      storage.NewProjectLocks(),
		Publisher:  storage.NewInMemoryEventPublisher(),
	}
	if err := c.Projects.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize project store: %w", err)
	}
	if err := c.Types.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize mission types: %w", err)
	}

	c.ProjectSvc = application.NewProjectService(c.Projects, c.Types, c.Locks, c.Publisher)
	c.TypeSvc = application.NewMissionTypeService(c.Types, c.Projects, c.Publisher)

	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads settings from disk and rebuilds the credential-bearing
// services.
func (c *Container) Reload(ctx context.Context) error {
	settings, err := config.Load(c.ConfigsDir)
	if err != nil {
		return err
	}
	return c.apply(ctx, settings)
}

// UpdateSettings persists new settings and rewires the dependent services.
func (c *Container) UpdateSettings(ctx context.Context, settings *config.Settings) error {
	if err := config.Save(c.ConfigsDir, settings); err != nil {
		return err
	}
	return c.apply(ctx, settings)
}

func (c *Container) apply(ctx context.Context, settings *config.Settings) error {
	var genSvc *application.GenerationService
	if settings.GeminiAPIKey != "" {
		provider, err := aiprovider.NewGeminiProvider(ctx, settings.GeminiAPIKey, "")
		if err != nil {
			return err
		}
		genSvc = application.NewGenerationService(c.Projects, c.Types, c.Locks,
			aiprovider.NewResilientProvider(provider), c.Publisher)
	}

	host, err := buildHost(ctx, settings)
	if err != nil {
		return err
	}
	var hubSvc *application.HubService
	if host != nil {
		hubSvc = application.NewHubService(c.Projects, c.Types, c.Locks, host, c.Publisher)
	}

	c.mu.Lock()
	c.settings = settings
	c.genSvc = genSvc
	c.hubSvc = hubSvc
	c.mu.Unlock()
	return nil
}

func buildHost(ctx context.Context, settings *config.Settings) (hub.Host, error) {
	switch settings.HubBackend {
	case "s3":
		if settings.S3.Endpoint == "" {
			return nil, nil
		}
		return hub.NewS3Host(hub.S3Config{
			Endpoint:  settings.S3.Endpoint,
			Region:    settings.S3.Region,
			AccessKey: settings.S3.AccessKey,
			SecretKey: settings.S3.SecretKey,
			Bucket:    settings.S3.Bucket,
			UseSSL:    settings.S3.UseSSL,
		})
	case "github", "":
		if settings.GitHub.Owner == "" || settings.GitHub.Repo == "" || settings.HubToken == "" {
			return nil, nil
		}
		return hub.NewGitHubHost(ctx, hub.GitHubConfig{
			Owner:  settings.GitHub.Owner,
			Repo:   settings.GitHub.Repo,
			Branch: settings.GitHub.Branch,
			Token:  settings.HubToken,
		})
	default:
		return nil, fmt.Errorf("unknown hub backend %q", settings.HubBackend)
	}
}

// Settings returns the currently loaded settings.
func (c *Container) Settings() *config.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Generation returns the generation service, or ErrAuth when no generative
// credentials are configured.
func (c *Container) Generation() (*application.GenerationService, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.genSvc == nil {
		return nil, fmt.Errorf("gemini api key not configured: %w", domain.ErrAuth)
	}
	return c.genSvc, nil
}

// Hub returns the hub service, or ErrAuth when no dataset host is
// configured.
func (c *Container) Hub() (*application.HubService, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.hubSvc == nil {
		return nil, fmt.Errorf("dataset host not configured: %w", domain.ErrAuth)
	}
	return c.hubSvc, nil
}

// SetHubService overrides the hub wiring. Used by tests to inject a fake
// host.
func (c *Container) SetHubService(svc *application.HubService) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hubSvc = svc
}

// SetGenerationService overrides the generation wiring. Used by tests to
// inject a fake provider.
func (c *Container) SetGenerationService(svc *application.GenerationService) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.genSvc = svc
}
