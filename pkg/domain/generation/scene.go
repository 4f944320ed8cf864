package generation

import (
	"fmt"
	"strings"

	"github.com/skyfield/missionforge/pkg/domain/mission"
)

// Scene is the document the generative service must return for one mission:
// an instruction plus a set of waypoint candidates, exactly one of which is
// the target.
type Scene struct {
	MissionType string          `json:"mission_type"`
	Instruction string          `json:"mission_instruction"`
	Waypoints   []SceneWaypoint `json:"waypoints"`
}

// SceneWaypoint is one waypoint candidate in a generated scene.
type SceneWaypoint struct {
	ForwardImage       ImagePrompt        `json:"forward_image"`
	GroundImage        GroundImagePrompt  `json:"ground_image"`
	SecondaryGround    *GroundImagePrompt `json:"secondary_ground_image,omitempty"`
	GroundIsObstructed bool               `json:"ground_is_obstructed"`
	IsTarget           bool               `json:"is_target"`
}

// ImagePrompt describes the forward-facing drone shot: a building subject
// carrying the landmarks that must appear.
type ImagePrompt struct {
	SubjectDescription string             `json:"subject_description"`
	EnvironmentContext string             `json:"environment_context"`
	LightingAndStyle   string             `json:"lighting_and_style"`
	Landmarks          []mission.Landmark `json:"landmarks"`
}

// GroundImagePrompt describes the top-down landing-zone shot.
type GroundImagePrompt struct {
	SurfaceTexture     string `json:"surface_texture"`
	ObstaclesAndDebris string `json:"obstacles_and_debris"`
	LightingAngle      string `json:"lighting_angle"`
}

// RenderingPrompt assembles the forward image prompt so the building is the
// canvas and the house number is bound to its facade.
func (p *ImagePrompt) RenderingPrompt() string {
	phrases := make([]string, 0, len(p.Landmarks))
	for _, l := range p.Landmarks {
		if l.Category == mission.LandmarkHouseNumber && l.TextContent != "" {
			phrases = append(phrases, fmt.Sprintf("clearly displaying the number '%s' which is %s", l.TextContent, l.VisualAttributes))
		} else {
			phrases = append(phrases, fmt.Sprintf("with a %s (%s) nearby", l.Name, l.VisualAttributes))
		}
	}
	return fmt.Sprintf("%s, %s. %s. %s.", p.SubjectDescription, strings.Join(phrases, ", "), p.EnvironmentContext, p.LightingAndStyle)
}

// RenderingPrompt assembles the ground image prompt.
func (p *GroundImagePrompt) RenderingPrompt() string {
	return fmt.Sprintf("Top-down drone view looking at %s. %s. %s.", p.SurfaceTexture, p.ObstaclesAndDebris, p.LightingAngle)
}

// HouseNumber extracts the ground-truth house number from the waypoint's
// landmarks, or "N/A" when none is present.
func (w *SceneWaypoint) HouseNumber() string {
	for _, l := range w.ForwardImage.Landmarks {
		if l.Category == mission.LandmarkHouseNumber && l.TextContent != "" {
			return l.TextContent
		}
	}
	return "N/A"
}

// Validate checks the scene against the batch invariants: the requested
// waypoint count and exactly one target.
func (s *Scene) Validate(wantWaypoints int) []error {
	var errs []error
	if s.Instruction == "" {
		errs = append(errs, fmt.Errorf("scene missing mission instruction"))
	}
	if wantWaypoints > 0 && len(s.Waypoints) != wantWaypoints {
		errs = append(errs, fmt.Errorf("scene has %d waypoints, expected %d", len(s.Waypoints), wantWaypoints))
	}
	targets := 0
	for _, wp := range s.Waypoints {
		if wp.IsTarget {
			targets++
		}
		for _, l := range wp.ForwardImage.Landmarks {
			if !mission.KnownLandmarkCategory(l.Category) {
				errs = append(errs, fmt.Errorf("unknown landmark category %q", l.Category))
			}
		}
	}
	if targets != 1 {
		errs = append(errs, fmt.Errorf("scene has %d target waypoints, expected exactly 1", targets))
	}
	return errs
}
