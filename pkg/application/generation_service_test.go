package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/skyfield/missionforge/pkg/domain"
	"github.com/skyfield/missionforge/pkg/domain/generation"
	"github.com/skyfield/missionforge/pkg/domain/mission"
)

func newGenerationFixture(t *testing.T, provider *fakeProvider) (*GenerationService, *ProjectService, string) {
	t.Helper()
	f := newFixture(t)
	projects := newProjectService(f)
	p, err := projects.CreateProject(context.Background(), "genproj")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	svc := NewGenerationService(f.projects, f.types, f.locks, provider, f.publisher)
	return svc, projects, p.ID
}

func TestGenerate_AppendsRequestedCount(t *testing.T) {
	provider := &fakeProvider{responses: sceneBatch(3)}
	svc, projects, projectID := newGenerationFixture(t, provider)

	result, err := svc.Generate(context.Background(), projectID, "locate_and_report", generation.Params{
		Count:               3,
		WaypointsPerMission: 2,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(result.Missions) != 3 {
		t.Fatalf("result has %d missions, want 3", len(result.Missions))
	}

	p, _ := projects.GetProject(context.Background(), projectID)
	if len(p.Missions) != 3 {
		t.Fatalf("project has %d missions, want 3", len(p.Missions))
	}
	for _, m := range p.Missions {
		if m.CreationSource != mission.SourceGenerated {
			t.Errorf("CreationSource = %q, want generated", m.CreationSource)
		}
		if m.DatasetSplit != "sft_train" {
			t.Errorf("DatasetSplit = %q, want sft_train", m.DatasetSplit)
		}
		if m.TargetCount() != 1 {
			t.Errorf("mission %s has %d targets", m.ID, m.TargetCount())
		}
		if m.Waypoints[1].GTEntities["house_number"] != "42" {
			t.Errorf("gt house_number = %q, want 42", m.Waypoints[1].GTEntities["house_number"])
		}
		if m.Waypoints[0].GTEntities["house_number"] != "N/A" {
			t.Errorf("distractor gt = %q, want N/A", m.Waypoints[0].GTEntities["house_number"])
		}
	}
	if !p.UsesMissionType("locate_and_report") {
		t.Error("mission type not recorded")
	}
}

func TestGenerate_PromptCarriesConfigurationAndParams(t *testing.T) {
	provider := &fakeProvider{responses: sceneBatch(1)}
	svc, _, projectID := newGenerationFixture(t, provider)

	_, err := svc.Generate(context.Background(), projectID, "locate_and_report", generation.Params{
		Count:                1,
		WaypointsPerMission:  2,
		LandmarkDistribution: generation.DistributionClustered,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(provider.prompts) == 0 {
		t.Fatal("provider was never called")
	}
	if !containsAll(provider.prompts[0], "LOCATE_AND_REPORT", "exactly 2 waypoint candidates", "Cluster landmarks") {
		t.Errorf("scene prompt missing configuration material:\n%s", provider.prompts[0])
	}
}

func TestGenerate_ProviderFailureAppendsNothing(t *testing.T) {
	provider := &fakeProvider{
		responses: sceneBatch(2),
		errs:      []error{nil, nil, errors.New("quota exhausted")},
	}
	svc, projects, projectID := newGenerationFixture(t, provider)

	_, err := svc.Generate(context.Background(), projectID, "locate_and_report", generation.Params{
		Count:               2,
		WaypointsPerMission: 2,
	})
	if !errors.Is(err, domain.ErrService) {
		t.Fatalf("error = %v, want ErrService", err)
	}

	p, _ := projects.GetProject(context.Background(), projectID)
	if len(p.Missions) != 0 {
		t.Errorf("partial batch committed: %d missions", len(p.Missions))
	}
}

func TestGenerate_InvalidSceneIsValidationError(t *testing.T) {
	cases := map[string]string{
		"not json":            "the model rambled instead of returning JSON",
		"missing instruction": `{"waypoints": [{"forward_image": {"subject_description": "x"}, "ground_image": {}, "is_target": true}]}`,
		"no target": `{"mission_instruction": "find it", "waypoints": [
			{"forward_image": {"subject_description": "a"}, "ground_image": {}, "is_target": false},
			{"forward_image": {"subject_description": "b"}, "ground_image": {}, "is_target": false}]}`,
	}
	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			provider := &fakeProvider{responses: []string{response}}
			svc, projects, projectID := newGenerationFixture(t, provider)

			_, err := svc.Generate(context.Background(), projectID, "locate_and_report", generation.Params{
				Count:               1,
				WaypointsPerMission: 2,
			})
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
			p, _ := projects.GetProject(context.Background(), projectID)
			if len(p.Missions) != 0 {
				t.Errorf("invalid scene committed: %d missions", len(p.Missions))
			}
		})
	}
}

func TestGenerate_StripsCodeFences(t *testing.T) {
	fenced := "```json\n" + sceneJSON("Find the fenced house") + "\n```"
	provider := &fakeProvider{responses: []string{fenced, reviewOKJSON}}
	svc, _, projectID := newGenerationFixture(t, provider)

	result, err := svc.Generate(context.Background(), projectID, "locate_and_report", generation.Params{
		Count:               1,
		WaypointsPerMission: 2,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Missions[0].Mission.Instruction != "Find the fenced house" {
		t.Errorf("Instruction = %q", result.Missions[0].Mission.Instruction)
	}
}

func TestGenerate_LowConfidenceForcesReview(t *testing.T) {
	lowReview := `{"mission_is_valid": true, "confidence_score": 0.5, "needs_human_review": false, "reasoning": "uncertain"}`
	provider := &fakeProvider{responses: []string{sceneJSON("x"), lowReview}}
	svc, _, projectID := newGenerationFixture(t, provider)

	result, err := svc.Generate(context.Background(), projectID, "locate_and_report", generation.Params{
		Count:               1,
		WaypointsPerMission: 2,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !result.Missions[0].Review.NeedsReview {
		t.Error("confidence below threshold must force review")
	}
}

func TestGenerate_ReviewFailureDoesNotFailBatch(t *testing.T) {
	provider := &fakeProvider{
		responses: []string{sceneJSON("x"), "garbage that is not a review"},
	}
	svc, projects, projectID := newGenerationFixture(t, provider)

	result, err := svc.Generate(context.Background(), projectID, "locate_and_report", generation.Params{
		Count:               1,
		WaypointsPerMission: 2,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !result.Missions[0].Review.NeedsReview {
		t.Error("unreviewable mission must be flagged for human review")
	}
	p, _ := projects.GetProject(context.Background(), projectID)
	if len(p.Missions) != 1 {
		t.Errorf("mission lost: %d", len(p.Missions))
	}
}

func TestGenerate_SeedMakesIDsDeterministic(t *testing.T) {
	seed := int64(7)
	run := func() []string {
		provider := &fakeProvider{responses: sceneBatch(2)}
		svc, _, projectID := newGenerationFixture(t, provider)
		svc.now = func() time.Time { return time.Unix(1700000000, 0) }
		result, err := svc.Generate(context.Background(), projectID, "locate_and_report", generation.Params{
			Count:               2,
			WaypointsPerMission: 2,
			Seed:                &seed,
		})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		ids := make([]string, 0, 2)
		for _, gm := range result.Missions {
			ids = append(ids, gm.Mission.ID)
		}
		return ids
	}

	a, b := run(), run()
	if fmt.Sprint(a) != fmt.Sprint(b) {
		t.Errorf("seeded runs diverged: %v vs %v", a, b)
	}
}

func TestGenerate_SynthesizeMediaWritesPerWaypointImages(t *testing.T) {
	provider := &fakeImageProvider{fakeProvider: fakeProvider{responses: sceneBatch(1)}}
	f := newFixture(t)
	projects := newProjectService(f)
	p, _ := projects.CreateProject(context.Background(), "genproj")
	svc := NewGenerationService(f.projects, f.types, f.locks, provider, f.publisher)

	result, err := svc.Generate(context.Background(), p.ID, "locate_and_report", generation.Params{
		Count:               1,
		WaypointsPerMission: 2,
		SynthesizeMedia:     true,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if provider.images != 4 {
		t.Errorf("rendered %d images, want 4 (forward+ground per waypoint)", provider.images)
	}

	for _, wp := range result.Missions[0].Mission.Waypoints {
		for _, label := range []string{"forward_image", "ground_image"} {
			relPath, ok := wp.Media[label]
			if !ok {
				t.Fatalf("waypoint %s missing %s", wp.ID, label)
			}
			if _, err := f.projects.Media(p.ID, relPath); err != nil {
				t.Errorf("media %s unreadable: %v", relPath, err)
			}
		}
	}
}

func TestGenerate_BadParamsRejected(t *testing.T) {
	provider := &fakeProvider{}
	svc, _, projectID := newGenerationFixture(t, provider)

	_, err := svc.Generate(context.Background(), projectID, "locate_and_report", generation.Params{Count: 0})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times for invalid params", provider.calls)
	}
}
