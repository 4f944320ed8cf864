package application

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"path"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/skyfield/missionforge/pkg/domain"
	"github.com/skyfield/missionforge/pkg/domain/ai"
	"github.com/skyfield/missionforge/pkg/domain/events"
	"github.com/skyfield/missionforge/pkg/domain/generation"
	"github.com/skyfield/missionforge/pkg/domain/mission"
	"github.com/skyfield/missionforge/pkg/storage"
)

const sceneSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["mission_instruction", "waypoints"],
  "properties": {
    "mission_instruction": { "type": "string", "minLength": 1 },
    "waypoints": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["forward_image", "ground_image", "is_target"],
        "properties": {
          "is_target": { "type": "boolean" },
          "ground_is_obstructed": { "type": "boolean" },
          "forward_image": {
            "type": "object",
            "required": ["subject_description"],
            "properties": {
              "subject_description": { "type": "string", "minLength": 1 },
              "landmarks": { "type": "array" }
            }
          },
          "ground_image": { "type": "object" }
        }
      }
    }
  }
}`

var sceneSchemaLoader = gojsonschema.NewStringLoader(sceneSchemaJSON)

const reviewPromptTemplate = `You are a strict dataset reviewer for UAV training missions.
Given the mission below, judge whether it is coherent and usable for training:
exactly one waypoint is the target, the instruction matches the target's
landmarks, and the ground-truth entities are consistent.

Return ONLY a JSON object with no surrounding text, no markdown, and no code
fences, in this exact shape:
{"mission_is_valid": bool, "confidence_score": number, "needs_human_review": bool, "reasoning": string}

Mission:
%s`

// GeneratedMission pairs an appended mission with its review verdict.
type GeneratedMission struct {
	Mission mission.Mission   `json:"mission"`
	Review  generation.Review `json:"review"`
}

// GenerationResult reports one completed batch.
type GenerationResult struct {
	ProjectID   string             `json:"project_id"`
	MissionType string             `json:"mission_type"`
	Missions    []GeneratedMission `json:"missions"`
}

// GenerationService drives the synthetic mission pipeline: prompt the
// generative backend per mission, schema-validate the returned scene,
// convert it into the domain graph, and append the whole batch atomically.
// A failure anywhere in the batch appends nothing.
type GenerationService struct {
	projects  *storage.ProjectStore
	types     *storage.MissionTypeRepository
	locks     *storage.ProjectLocks
	provider  ai.Provider
	publisher events.Publisher
	now       func() time.Time
}

func NewGenerationService(projects *storage.ProjectStore, types *storage.MissionTypeRepository, locks *storage.ProjectLocks, provider ai.Provider, publisher events.Publisher) *GenerationService {
	return &GenerationService{
		projects:  projects,
		types:     types,
		locks:     locks,
		provider:  provider,
		publisher: publisher,
		now:       time.Now,
	}
}

// Generate synthesizes params.Count missions of the given type and appends
// them to the project. Backend failures surface as ErrService and are not
// retried; unparseable or invariant-violating content surfaces as a
// ValidationError. Either way the project is left untouched.
func (s *GenerationService) Generate(ctx context.Context, projectID, missionType string, params generation.Params) (*GenerationResult, error) {
	if err := params.Normalize(); err != nil {
		return nil, domain.NewValidationError("generation params", []error{err})
	}
	cfg, err := s.types.Load(missionType)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(projectID)
	defer unlock()

	p, err := s.projects.Open(projectID)
	if err != nil {
		return nil, err
	}

	seed := s.now().UnixNano()
	if params.Seed != nil {
		seed = *params.Seed
	}
	rng := rand.New(rand.NewSource(seed))

	prompt := generation.BuildScenePrompt(cfg, params)
	result := &GenerationResult{ProjectID: projectID, MissionType: missionType}
	var heldMedia []pendingMedia

	for i := 0; i < params.Count; i++ {
		resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
			Prompt:      prompt,
			System:      "You are a synthetic dataset author for UAV missions. You return only JSON.",
			Temperature: 0.7,
			JSONOutput:  true,
		})
		if err != nil {
			return nil, fmt.Errorf("generative service (mission %d of %d): %w: %v", i+1, params.Count, domain.ErrService, err)
		}

		scene, err := decodeScene(resp.Text)
		if err != nil {
			return nil, err
		}
		if errs := scene.Validate(params.WaypointsPerMission); len(errs) > 0 {
			return nil, domain.NewValidationError("generated scene", errs)
		}

		m := sceneToMission(scene, missionType, params, s.now(), rng)
		if params.SynthesizeMedia {
			media, err := s.renderMedia(ctx, scene, &m)
			if err != nil {
				return nil, err
			}
			heldMedia = append(heldMedia, media...)
		}

		review := s.reviewMission(ctx, &m)
		result.Missions = append(result.Missions, GeneratedMission{Mission: m, Review: review})
	}

	for _, gm := range result.Missions {
		p.Missions = append(p.Missions, gm.Mission)
	}
	p.RecordMissionType(missionType)

	written := make([]string, 0, len(heldMedia))
	for _, pm := range heldMedia {
		if err := s.projects.PutMedia(projectID, pm.relPath, pm.data); err != nil {
			s.discardMedia(projectID, written)
			return nil, err
		}
		written = append(written, pm.relPath)
	}
	if err := s.projects.Save(p); err != nil {
		s.discardMedia(projectID, written)
		return nil, err
	}

	_ = s.publisher.Publish(events.New(events.TypeGenerationDone, projectID, map[string]string{
		"mission_type": missionType,
		"count":        fmt.Sprintf("%d", len(result.Missions)),
	}))
	return result, nil
}

type pendingMedia struct {
	relPath string
	data    []byte
}

// renderMedia synthesizes forward and ground imagery for every waypoint and
// records the media paths on the mission. The bytes are held back until the
// whole batch validated.
func (s *GenerationService) renderMedia(ctx context.Context, scene *generation.Scene, m *mission.Mission) ([]pendingMedia, error) {
	imager, ok := s.provider.(ai.ImageProvider)
	if !ok {
		return nil, fmt.Errorf("media synthesis requested: %w", ai.ErrImagesUnsupported)
	}

	var pending []pendingMedia
	for i, sw := range scene.Waypoints {
		wp := &m.Waypoints[i]
		shots := []struct {
			label  string
			prompt string
			aspect string
		}{
			{"forward_image", sw.ForwardImage.RenderingPrompt(), "16:9"},
			{"ground_image", sw.GroundImage.RenderingPrompt(), "1:1"},
		}
		if sw.SecondaryGround != nil {
			shots = append(shots, struct {
				label  string
				prompt string
				aspect string
			}{"secondary_ground_image", sw.SecondaryGround.RenderingPrompt(), "1:1"})
		}
		for _, shot := range shots {
			img, err := imager.GenerateImage(ctx, ai.ImageRequest{Prompt: shot.prompt, AspectRatio: shot.aspect})
			if err != nil {
				return nil, fmt.Errorf("render %s for %s: %w: %v", shot.label, wp.ID, domain.ErrService, err)
			}
			relPath := path.Join(storage.ImagesDir, fmt.Sprintf("%s_%s_%s%s", m.ID, wp.ID, shot.label, extForMIME(img.MIMEType)))
			pending = append(pending, pendingMedia{relPath: relPath, data: img.Data})
			if wp.Media == nil {
				wp.Media = make(map[string]string)
			}
			wp.Media[shot.label] = relPath
		}
	}
	return pending, nil
}

// reviewMission asks the backend to judge one generated mission. A failed
// review never fails the batch; the mission is flagged for human review
// instead.
func (s *GenerationService) reviewMission(ctx context.Context, m *mission.Mission) generation.Review {
	doc, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return generation.Review{NeedsReview: true, Reasoning: "review skipped: " + err.Error()}
	}
	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Prompt:      fmt.Sprintf(reviewPromptTemplate, doc),
		Temperature: 0.1,
		JSONOutput:  true,
	})
	if err != nil {
		return generation.Review{NeedsReview: true, Reasoning: "review unavailable: " + err.Error()}
	}

	var review generation.Review
	if err := json.Unmarshal([]byte(extractJSONPayload(resp.Text)), &review); err != nil {
		return generation.Review{NeedsReview: true, Reasoning: "review unparseable: " + err.Error()}
	}
	review.EnforceThreshold(generation.ReviewConfidenceThreshold)
	return review
}

func (s *GenerationService) discardMedia(projectID string, relPaths []string) {
	for _, rp := range relPaths {
		_ = s.projects.DeleteMedia(projectID, rp)
	}
}

// decodeScene validates the backend's text against the scene schema before
// any object is constructed from it.
func decodeScene(text string) (*generation.Scene, error) {
	clean := extractJSONPayload(text)
	result, err := gojsonschema.Validate(sceneSchemaLoader, gojsonschema.NewStringLoader(clean))
	if err != nil {
		return nil, domain.NewValidationError("generated scene", []error{fmt.Errorf("response is not valid JSON: %v", err)})
	}
	if !result.Valid() {
		issues := make([]error, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, fmt.Errorf("%s", desc))
		}
		return nil, domain.NewValidationError("generated scene", issues)
	}
	var scene generation.Scene
	if err := json.Unmarshal([]byte(clean), &scene); err != nil {
		return nil, domain.NewValidationError("generated scene", []error{err})
	}
	return &scene, nil
}

// sceneToMission converts a validated scene into the persisted mission shape.
func sceneToMission(scene *generation.Scene, missionType string, params generation.Params, now time.Time, rng *rand.Rand) mission.Mission {
	m := mission.Mission{
		ID:             mission.NewMissionID(now, rng),
		Name:           missionName(scene.Instruction),
		Type:           missionType,
		DatasetSplit:   params.DatasetSplit,
		CreationSource: mission.SourceGenerated,
		Instruction:    scene.Instruction,
	}
	for i, sw := range scene.Waypoints {
		m.Waypoints = append(m.Waypoints, mission.Waypoint{
			ID:                 mission.WaypointID(i + 1),
			IsTarget:           sw.IsTarget,
			GroundIsObstructed: sw.GroundIsObstructed,
			Media:              map[string]string{},
			Landmarks:          sw.ForwardImage.Landmarks,
			GTEntities: map[string]string{
				"house_number": sw.HouseNumber(),
			},
		})
	}
	return m
}

func missionName(instruction string) string {
	const maxLen = 60
	name := strings.TrimSpace(instruction)
	if len(name) > maxLen {
		name = strings.TrimSpace(name[:maxLen]) + "..."
	}
	return name
}

func extForMIME(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// extractJSONPayload strips code fences and surrounding prose, keeping the
// first JSON object or array in the text.
func extractJSONPayload(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return clean
	}

	startObject := strings.Index(clean, "{")
	startArray := strings.Index(clean, "[")
	start := startObject
	if start == -1 || (startArray != -1 && startArray < startObject) {
		start = startArray
	}
	if start == -1 {
		return clean
	}

	endObject := strings.LastIndex(clean, "}")
	endArray := strings.LastIndex(clean, "]")
	end := endObject
	if endArray > end {
		end = endArray
	}
	if end <= start {
		return clean
	}
	return strings.TrimSpace(clean[start : end+1])
}
