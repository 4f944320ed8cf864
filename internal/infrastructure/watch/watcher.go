package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/skyfield/missionforge/pkg/domain/events"
)

// MissionTypeWatcher watches the mission-type configs directory with
// fsnotify and publishes a debounced missiontype.changed event when a
// configuration document is created, written, removed, or renamed. This
// picks up edits made outside the editor, e.g. with a text editor.
type MissionTypeWatcher struct {
	dir       string
	debounce  time.Duration
	publisher events.Publisher
	watcher   *fsnotify.Watcher
}

// NewMissionTypeWatcher creates a watcher over the configs directory.
func NewMissionTypeWatcher(dir string, debounce time.Duration, publisher events.Publisher) (*MissionTypeWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce == 0 {
		debounce = 500 * time.Millisecond
	}
	return &MissionTypeWatcher{
		dir:       dir,
		debounce:  debounce,
		publisher: publisher,
		watcher:   w,
	}, nil
}

// Run starts the event loop. It blocks until the context is cancelled.
func (w *MissionTypeWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	debouncer := newChangeDebouncer(w.debounce, w.publishChange)
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			op := opName(event.Op)
			if op == "" || !isConfigDocument(event.Name) {
				continue
			}
			debouncer.Record(event.Name, op)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (w *MissionTypeWatcher) publishChange(path, op string) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	_ = w.publisher.Publish(events.New(events.TypeMissionTypeChanged, name, map[string]string{
		"path": path,
		"op":   op,
	}))
}

func isConfigDocument(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return ""
	}
}
