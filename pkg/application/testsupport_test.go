package application

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skyfield/missionforge/pkg/domain/ai"
	"github.com/skyfield/missionforge/pkg/storage"
)

type fixture struct {
	projects  *storage.ProjectStore
	types     *storage.MissionTypeRepository
	locks     *storage.ProjectLocks
	publisher *storage.InMemoryEventPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		projects:  storage.NewProjectStore(filepath.Join(root, "projects")),
		types:     storage.NewMissionTypeRepository(filepath.Join(root, "configs", "mission_types")),
		locks:     storage.NewProjectLocks(),
		publisher: storage.NewInMemoryEventPublisher(),
	}
	if err := f.projects.Initialize(); err != nil {
		t.Fatalf("initialize projects: %v", err)
	}
	if err := f.types.Initialize(); err != nil {
		t.Fatalf("initialize mission types: %v", err)
	}
	return f
}

// fakeProvider replays scripted responses in order and records every prompt
// it was sent.
type fakeProvider struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeProvider) ID() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, req.Prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.responses) {
		return nil, fmt.Errorf("fake provider exhausted after %d calls", i)
	}
	return &ai.CompletionResponse{Text: f.responses[i], Model: "fake"}, nil
}

// fakeImageProvider adds image synthesis on top of the scripted completions.
type fakeImageProvider struct {
	fakeProvider
	images int
}

func (f *fakeImageProvider) GenerateImage(_ context.Context, _ ai.ImageRequest) (*ai.Image, error) {
	f.images++
	return &ai.Image{MIMEType: "image/png", Data: []byte{0x89, 0x50}}, nil
}

const reviewOKJSON = `{"mission_is_valid": true, "confidence_score": 0.92, "needs_human_review": false, "reasoning": "coherent"}`

// sceneJSON builds a two-waypoint scene with the second waypoint as target.
func sceneJSON(instruction string) string {
	return fmt.Sprintf(`{
  "mission_type": "locate_and_report",
  "mission_instruction": %q,
  "waypoints": [
    {
      "forward_image": {
        "subject_description": "A weathered brick rowhouse",
        "environment_context": "Quiet suburban street at midday",
        "lighting_and_style": "Overcast, photorealistic",
        "landmarks": []
      },
      "ground_image": {
        "surface_texture": "cracked asphalt driveway",
        "obstacles_and_debris": "none",
        "lighting_angle": "diffuse"
      },
      "ground_is_obstructed": false,
      "is_target": false
    },
    {
      "forward_image": {
        "subject_description": "A two-story house with a red door",
        "environment_context": "Tree-lined cul-de-sac",
        "lighting_and_style": "Golden hour, photorealistic",
        "landmarks": [
          {"category": "house_number", "name": "house number plaque", "visual_attributes": "black iron digits mounted beside the door", "text_content": "42", "position": [0.4, 0.5]}
        ]
      },
      "ground_image": {
        "surface_texture": "mowed lawn",
        "obstacles_and_debris": "garden hose coiled near the path",
        "lighting_angle": "low west sun"
      },
      "ground_is_obstructed": false,
      "is_target": true
    }
  ]
}`, instruction)
}

// sceneBatch interleaves scene and review responses the way the pipeline
// consumes them.
func sceneBatch(count int) []string {
	var out []string
	for i := 0; i < count; i++ {
		out = append(out, sceneJSON(fmt.Sprintf("Find the house numbered 42 (run %d)", i+1)), reviewOKJSON)
	}
	return out
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
