// Package hub implements dataset-host backends for pushing and pulling
// portable project datasets.
package hub

import (
	"context"
	"strings"
)

// Host is a remote object store holding exported datasets. Keys are
// slash-separated paths relative to the host's dataset root.
type Host interface {
	// ID identifies the backend and its target, e.g. "s3:bucket" or
	// "github:owner/repo".
	ID() string
	Upload(ctx context.Context, key string, data []byte) error
	Download(ctx context.Context, key string) ([]byte, error)
	// List returns the keys under a prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// joinKey builds an object key from path segments, trimming stray slashes
// so both backends produce identical layouts.
func joinKey(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(strings.TrimSpace(s), "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}
