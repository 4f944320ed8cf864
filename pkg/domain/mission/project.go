// Package mission defines the project/mission/waypoint object graph the
// editor persists and the generation and hub adapters operate on.
package mission

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// CreationSource records how a mission entered the dataset.
const (
	SourceManual    = "manual"
	SourceGenerated = "generated"
)

// LandmarkCategory classifies an object a waypoint image must contain.
type LandmarkCategory string

const (
	LandmarkHouseNumber LandmarkCategory = "house_number"
	LandmarkHuman       LandmarkCategory = "human"
	LandmarkObstacle    LandmarkCategory = "obstacle"
	LandmarkVehicle     LandmarkCategory = "vehicle"
	LandmarkOther       LandmarkCategory = "other"
)

// KnownLandmarkCategory reports whether the category is one of the declared
// classifications.
func KnownLandmarkCategory(c LandmarkCategory) bool {
	switch c {
	case LandmarkHouseNumber, LandmarkHuman, LandmarkObstacle, LandmarkVehicle, LandmarkOther:
		return true
	}
	return false
}

// Project is the root aggregate: it exclusively owns its missions and their
// waypoints, and deletion cascades to both plus any attached media.
type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	Missions     []Mission `json:"missions"`
	MissionTypes []string  `json:"mission_types,omitempty"`
}

// Mission is an ordered sequence of waypoints governed by a mission type.
type Mission struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	DatasetSplit   string     `json:"dataset_split,omitempty"`
	CreationSource string     `json:"creation_source,omitempty"`
	Instruction    string     `json:"mission_instruction"`
	Waypoints      []Waypoint `json:"waypoints"`
}

// Waypoint is one positioned point within a mission. Media paths are relative
// to the owning project directory.
type Waypoint struct {
	ID                 string            `json:"id"`
	Position           []float64         `json:"position,omitempty"`
	IsTarget           bool              `json:"is_target"`
	GroundIsObstructed bool              `json:"ground_is_obstructed,omitempty"`
	Media              map[string]string `json:"media"`
	Landmarks          []Landmark        `json:"landmarks,omitempty"`
	GTEntities         map[string]string `json:"gt_entities"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// Landmark is a key object that must appear in a waypoint's imagery.
// Position is normalized [x, y] in the 0..1 range.
type Landmark struct {
	Category         LandmarkCategory `json:"category"`
	Name             string           `json:"name"`
	VisualAttributes string           `json:"visual_attributes"`
	TextContent      string           `json:"text_content,omitempty"`
	Position         []float64        `json:"position"`
}

// NewProject creates an empty project with a fresh identity.
func NewProject(name string) *Project {
	return &Project{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Missions:  []Mission{},
	}
}

// NewMissionID returns an identifier in the dataset's established
// mission_<unix>_<rand4> convention so generated and manual entries never
// collide across sessions.
func NewMissionID(now time.Time, rng *rand.Rand) string {
	n := 1000 + rng.Intn(9000)
	return fmt.Sprintf("mission_%d_%d", now.Unix(), n)
}

// WaypointID returns the zero-padded waypoint identifier for a 1-based index.
func WaypointID(index int) string {
	return fmt.Sprintf("waypoint_%02d", index)
}

// Mission returns the mission with the given id, or nil.
func (p *Project) Mission(id string) *Mission {
	for i := range p.Missions {
		if p.Missions[i].ID == id {
			return &p.Missions[i]
		}
	}
	return nil
}

// UsesMissionType reports whether any mission references the given type.
func (p *Project) UsesMissionType(name string) bool {
	for _, m := range p.Missions {
		if m.Type == name {
			return true
		}
	}
	return false
}

// RecordMissionType keeps the project's mission-type list in sync when a
// mission referencing a new type is added.
func (p *Project) RecordMissionType(name string) {
	for _, existing := range p.MissionTypes {
		if existing == name {
			return
		}
	}
	p.MissionTypes = append(p.MissionTypes, name)
}

// Validate checks the object graph for structural integrity before it is
// persisted or exported.
func (p *Project) Validate() []error {
	var errs []error
	if p.ID == "" {
		errs = append(errs, fmt.Errorf("project ID is required"))
	}
	if p.Name == "" {
		errs = append(errs, fmt.Errorf("project name is required"))
	}

	seenMissions := make(map[string]bool)
	for i, m := range p.Missions {
		if m.ID == "" {
			errs = append(errs, fmt.Errorf("mission at index %d missing ID", i))
			continue
		}
		if seenMissions[m.ID] {
			errs = append(errs, fmt.Errorf("duplicate mission ID: %s", m.ID))
		}
		seenMissions[m.ID] = true
		if m.Type == "" {
			errs = append(errs, fmt.Errorf("mission %q missing mission type", m.ID))
		}
		errs = append(errs, m.validateWaypoints()...)
	}
	return errs
}

func (m *Mission) validateWaypoints() []error {
	var errs []error
	seen := make(map[string]bool)
	for i, wp := range m.Waypoints {
		if wp.ID == "" {
			errs = append(errs, fmt.Errorf("mission %q waypoint at index %d missing ID", m.ID, i))
			continue
		}
		if seen[wp.ID] {
			errs = append(errs, fmt.Errorf("mission %q duplicate waypoint ID: %s", m.ID, wp.ID))
		}
		seen[wp.ID] = true
		for _, l := range wp.Landmarks {
			if !KnownLandmarkCategory(l.Category) {
				errs = append(errs, fmt.Errorf("mission %q waypoint %q has unknown landmark category %q", m.ID, wp.ID, l.Category))
			}
			if len(l.Position) != 2 {
				errs = append(errs, fmt.Errorf("mission %q waypoint %q landmark %q position must be [x, y]", m.ID, wp.ID, l.Name))
			}
		}
	}
	return errs
}

// TargetCount returns how many waypoints are flagged as the mission target.
// A well-formed mission has exactly one.
func (m *Mission) TargetCount() int {
	n := 0
	for _, wp := range m.Waypoints {
		if wp.IsTarget {
			n++
		}
	}
	return n
}
