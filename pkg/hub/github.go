package hub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/go-github/v69/github"
	"golang.org/x/oauth2"

	"github.com/skyfield/missionforge/pkg/domain"
)

// GitHubConfig identifies the dataset repository. Branch defaults to main.
type GitHubConfig struct {
	Owner  string
	Repo   string
	Branch string
	Token  string
}

// GitHubHost stores datasets as files in a GitHub repository, one commit
// per uploaded object.
type GitHubHost struct {
	client *github.Client
	owner  string
	repo   string
	branch string
}

// NewGitHubHost creates a host backed by a GitHub repository.
func NewGitHubHost(ctx context.Context, cfg GitHubConfig) (*GitHubHost, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("hub token not configured: %w", domain.ErrAuth)
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("hub repository not configured: %w", domain.ErrValidation)
	}
	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	return &GitHubHost{
		client: github.NewClient(oauth2.NewClient(ctx, ts)),
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		branch: branch,
	}, nil
}

// SetBaseURL points the client at a different API endpoint.
func (g *GitHubHost) SetBaseURL(raw string) error {
	cli, err := g.client.WithEnterpriseURLs(raw, raw)
	if err != nil {
		return err
	}
	g.client = cli
	return nil
}

func (g *GitHubHost) ID() string {
	return fmt.Sprintf("github:%s/%s", g.owner, g.repo)
}

// Upload creates the file at key or updates it in place when it already
// exists on the branch.
func (g *GitHubHost) Upload(ctx context.Context, key string, data []byte) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr("Update " + key),
		Content: data,
		Branch:  github.Ptr(g.branch),
	}

	existing, _, resp, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, key,
		&github.RepositoryContentGetOptions{Ref: g.branch})
	switch {
	case err == nil && existing != nil:
		opts.SHA = existing.SHA
		_, _, err = g.client.Repositories.UpdateFile(ctx, g.owner, g.repo, key, opts)
	case isGitHubNotFound(resp, err):
		_, _, err = g.client.Repositories.CreateFile(ctx, g.owner, g.repo, key, opts)
	default:
		return wrapGitHubErr(resp, err)
	}
	if err != nil {
		return wrapGitHubErr(nil, err)
	}
	return nil
}

func (g *GitHubHost) Download(ctx context.Context, key string) ([]byte, error) {
	file, _, resp, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, key,
		&github.RepositoryContentGetOptions{Ref: g.branch})
	if err != nil {
		return nil, wrapGitHubErr(resp, err)
	}
	if file == nil {
		return nil, fmt.Errorf("%s is a directory: %w", key, domain.ErrNotFound)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return []byte(content), nil
}

func (g *GitHubHost) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := g.list(ctx, strings.Trim(prefix, "/"))
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (g *GitHubHost) list(ctx context.Context, dir string) ([]string, error) {
	_, entries, resp, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, dir,
		&github.RepositoryContentGetOptions{Ref: g.branch})
	if err != nil {
		if isGitHubNotFound(resp, err) {
			return nil, nil
		}
		return nil, wrapGitHubErr(resp, err)
	}
	var keys []string
	for _, e := range entries {
		switch e.GetType() {
		case "dir":
			nested, err := g.list(ctx, e.GetPath())
			if err != nil {
				return nil, err
			}
			keys = append(keys, nested...)
		case "file":
			keys = append(keys, e.GetPath())
		}
	}
	return keys, nil
}

func isGitHubNotFound(resp *github.Response, err error) bool {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return true
	}
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}

func wrapGitHubErr(resp *github.Response, err error) error {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		status = ghErr.Response.StatusCode
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("github: %w: %v", domain.ErrAuth, err)
	case http.StatusNotFound:
		return fmt.Errorf("github: %w: %v", domain.ErrNotFound, err)
	}
	return fmt.Errorf("github: %w: %v", domain.ErrService, err)
}
