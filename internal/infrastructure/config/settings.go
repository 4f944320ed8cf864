// Package config stores process-wide credentials and hub parameters outside
// versioned project data.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const settingsFile = "app_config.json"

// Settings holds the credentials and hub parameters loaded at startup and
// edited through the settings surface. It is passed explicitly; there is no
// ambient global.
type Settings struct {
	GeminiAPIKey string `json:"gemini_api_key"`
	HubToken     string `json:"hf_token"`
	// HubBackend selects the dataset host: "github" or "s3".
	HubBackend string         `json:"hub_backend,omitempty"`
	GitHub     GitHubSettings `json:"github,omitempty"`
	S3         S3Settings     `json:"s3,omitempty"`
}

// GitHubSettings identifies the GitHub dataset repository.
type GitHubSettings struct {
	Owner  string `json:"owner,omitempty"`
	Repo   string `json:"repo,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// S3Settings identifies the S3-compatible dataset bucket.
type S3Settings struct {
	Endpoint  string `json:"endpoint,omitempty"`
	Region    string `json:"region,omitempty"`
	AccessKey string `json:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
	Bucket    string `json:"bucket,omitempty"`
	UseSSL    bool   `json:"use_ssl,omitempty"`
}

// Load reads the settings document from the configs directory. A missing
// file yields empty settings. Environment variables GEMINI_API_KEY and
// HUB_TOKEN override the stored credentials.
func Load(dir string) (*Settings, error) {
	s := &Settings{}
	data, err := os.ReadFile(filepath.Join(dir, settingsFile))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read settings: %w", err)
	default:
		if err := json.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
		}
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		s.GeminiAPIKey = v
	}
	if v := os.Getenv("HUB_TOKEN"); v != "" {
		s.HubToken = v
	}
	return s, nil
}

// Save writes the settings document atomically with owner-only permissions.
func Save(dir string, s *Settings) error {
	if s == nil {
		return fmt.Errorf("settings are nil")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create configs directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	path := filepath.Join(dir, settingsFile)
	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close settings file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to set settings permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

// Redacted returns a copy safe to expose over the API: credentials are
// replaced by presence flags.
func (s *Settings) Redacted() map[string]any {
	return map[string]any{
		"gemini_api_key_set": s.GeminiAPIKey != "",
		"hub_token_set":      s.HubToken != "",
		"hub_backend":        s.HubBackend,
		"github": map[string]any{
			"owner":  s.GitHub.Owner,
			"repo":   s.GitHub.Repo,
			"branch": s.GitHub.Branch,
		},
		"s3": map[string]any{
			"endpoint": s.S3.Endpoint,
			"region":   s.S3.Region,
			"bucket":   s.S3.Bucket,
			"use_ssl":  s.S3.UseSSL,
		},
	}
}
