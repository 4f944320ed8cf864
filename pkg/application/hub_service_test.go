package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/skyfield/missionforge/pkg/domain"
	"github.com/skyfield/missionforge/pkg/domain/mission"
)

// memoryHost is an in-memory dataset host. fail breaks every call,
// failMedia only downloads of attachment blobs.
type memoryHost struct {
	objects   map[string][]byte
	fail      error
	failMedia error
}

func newMemoryHost() *memoryHost {
	return &memoryHost{objects: make(map[string][]byte)}
}

func (h *memoryHost) ID() string { return "mem:test" }

func (h *memoryHost) Upload(_ context.Context, key string, data []byte) error {
	if h.fail != nil {
		return h.fail
	}
	h.objects[key] = append([]byte(nil), data...)
	return nil
}

func (h *memoryHost) Download(_ context.Context, key string) ([]byte, error) {
	if h.fail != nil {
		return nil, h.fail
	}
	if h.failMedia != nil && strings.Contains(key, "/images/") {
		return nil, h.failMedia
	}
	data, ok := h.objects[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, domain.ErrNotFound)
	}
	return data, nil
}

func (h *memoryHost) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range h.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func seedHubProject(t *testing.T, f *fixture) (*ProjectService, string) {
	t.Helper()
	projects := newProjectService(f)
	ctx := context.Background()

	p, err := projects.CreateProject(ctx, "hub project")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	m, err := projects.AddMission(ctx, p.ID, mission.Mission{
		Type:        "locate_and_report",
		Instruction: "Find the house numbered 42",
		Waypoints: []mission.Waypoint{
			{IsTarget: true, GTEntities: map[string]string{"house_number": "42"}},
		},
	})
	if err != nil {
		t.Fatalf("AddMission() error = %v", err)
	}
	if _, err := projects.AttachMedia(ctx, p.ID, m.ID, "waypoint_01", "forward_image", "shot.png", []byte("png-bytes")); err != nil {
		t.Fatalf("AttachMedia() error = %v", err)
	}
	return projects, p.ID
}

func TestHubService_PushUploadsDatasetAndMedia(t *testing.T) {
	f := newFixture(t)
	_, projectID := seedHubProject(t, f)
	host := newMemoryHost()
	svc := NewHubService(f.projects, f.types, f.locks, host, f.publisher)

	ref, err := svc.Push(context.Background(), projectID)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if ref != "mem:test/datasets/hub_project" {
		t.Errorf("ref = %q", ref)
	}

	if _, ok := host.objects["datasets/hub_project/dataset.json"]; !ok {
		t.Error("dataset document was not uploaded")
	}
	mediaUploaded := false
	for key := range host.objects {
		if strings.Contains(key, "/images/") {
			mediaUploaded = true
		}
	}
	if !mediaUploaded {
		t.Errorf("media missing from upload: %v", host.objects)
	}

	doc := string(host.objects["datasets/hub_project/dataset.json"])
	if !containsAll(doc, `"schema_version"`, `"media_labels"`, `"initial_state"`) {
		t.Errorf("dataset document incomplete:\n%s", doc)
	}
}

func TestHubService_PushPullRoundTrip(t *testing.T) {
	f := newFixture(t)
	projects, projectID := seedHubProject(t, f)
	host := newMemoryHost()
	svc := NewHubService(f.projects, f.types, f.locks, host, f.publisher)
	ctx := context.Background()

	ref, err := svc.Push(ctx, projectID)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	// Pull into a fresh workspace.
	f2 := newFixture(t)
	for name := range map[string]bool{"locate_and_report": true, "locate_and_land_safely": true, "locate_and_track": true} {
		if err := f2.types.Delete(name); err != nil {
			t.Fatalf("clear seeded type: %v", err)
		}
	}
	svc2 := NewHubService(f2.projects, f2.types, f2.locks, host, f2.publisher)

	pulled, err := svc2.Pull(ctx, ref)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if pulled.Name != "hub project" {
		t.Errorf("Name = %q", pulled.Name)
	}
	if len(pulled.Missions) != 1 || pulled.Missions[0].Instruction != "Find the house numbered 42" {
		t.Errorf("missions = %+v", pulled.Missions)
	}
	wp := pulled.Missions[0].Waypoints[0]
	if !wp.IsTarget || wp.GTEntities["house_number"] != "42" {
		t.Errorf("waypoint = %+v", wp)
	}

	// The referenced mission type travelled with the dataset.
	if _, err := f2.types.Load("locate_and_report"); err != nil {
		t.Errorf("pulled mission type missing: %v", err)
	}

	// Media came back readable under the new project.
	relPath, ok := wp.Media["forward_image"]
	if !ok {
		t.Fatalf("media labels lost: %+v", wp.Media)
	}
	data, err := f2.projects.Media(pulled.ID, relPath)
	if err != nil {
		t.Fatalf("pulled media unreadable: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("media content = %q", data)
	}

	// Original project remains untouched.
	orig, _ := projects.GetProject(ctx, projectID)
	if len(orig.Missions) != 1 {
		t.Errorf("source project mutated by pull")
	}
}

func TestHubService_PullRejectsMalformedPayload(t *testing.T) {
	f := newFixture(t)
	host := newMemoryHost()
	host.objects["datasets/bad/dataset.json"] = []byte(`{"schema_version": 1, "project": {"id": "x", "name": "bad"}, "mission_types": [{"name": "broken", "states": {}}], "missions": []}`)
	svc := NewHubService(f.projects, f.types, f.locks, host, f.publisher)

	_, err := svc.Pull(context.Background(), "datasets/bad")
	if !errors.Is(err, domain.ErrFormat) {
		t.Errorf("error = %v, want ErrFormat", err)
	}
}

func TestHubService_PullUnknownRefIsNotFound(t *testing.T) {
	f := newFixture(t)
	svc := NewHubService(f.projects, f.types, f.locks, newMemoryHost(), f.publisher)

	_, err := svc.Pull(context.Background(), "datasets/absent")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestHubService_PullNameConflict(t *testing.T) {
	f := newFixture(t)
	_, projectID := seedHubProject(t, f)
	host := newMemoryHost()
	svc := NewHubService(f.projects, f.types, f.locks, host, f.publisher)
	ctx := context.Background()

	ref, err := svc.Push(ctx, projectID)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	// Pulling into the same store collides with the existing project name.
	if _, err := svc.Pull(ctx, ref); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestHubService_PullFailureLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	_, projectID := seedHubProject(t, f)
	host := newMemoryHost()
	svc := NewHubService(f.projects, f.types, f.locks, host, f.publisher)
	ctx := context.Background()

	ref, err := svc.Push(ctx, projectID)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	f2 := newFixture(t)
	for _, name := range []string{"locate_and_report", "locate_and_land_safely", "locate_and_track"} {
		if err := f2.types.Delete(name); err != nil {
			t.Fatalf("clear seeded type: %v", err)
		}
	}
	svc2 := NewHubService(f2.projects, f2.types, f2.locks, host, f2.publisher)

	host.failMedia = fmt.Errorf("connection reset: %w", domain.ErrService)
	if _, err := svc2.Pull(ctx, ref); !errors.Is(err, domain.ErrService) {
		t.Fatalf("Pull() error = %v, want ErrService", err)
	}

	// Nothing was committed locally.
	if projects, _ := f2.projects.List(); len(projects) != 0 {
		t.Errorf("failed pull left %d project(s) behind", len(projects))
	}
	if names, _ := f2.types.List(); len(names) != 0 {
		t.Errorf("failed pull left mission types behind: %v", names)
	}

	// The same reference imports cleanly once the transport recovers.
	host.failMedia = nil
	pulled, err := svc2.Pull(ctx, ref)
	if err != nil {
		t.Fatalf("retried Pull() error = %v", err)
	}
	if pulled.Name != "hub project" || len(pulled.Missions) != 1 {
		t.Errorf("pulled = %+v", pulled)
	}
}

func TestHubService_PushTransportFailure(t *testing.T) {
	f := newFixture(t)
	_, projectID := seedHubProject(t, f)
	host := newMemoryHost()
	host.fail = fmt.Errorf("connection reset: %w", domain.ErrService)
	svc := NewHubService(f.projects, f.types, f.locks, host, f.publisher)

	_, err := svc.Push(context.Background(), projectID)
	if !errors.Is(err, domain.ErrService) {
		t.Errorf("error = %v, want ErrService", err)
	}
}
