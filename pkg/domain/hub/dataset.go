// Package hub defines the portable dataset layout exchanged with external
// dataset hosts, and the schema gate every pulled payload must pass before
// any domain object is constructed from it.
package hub

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/skyfield/missionforge/pkg/domain"
	"github.com/skyfield/missionforge/pkg/domain/mission"
	"github.com/skyfield/missionforge/pkg/domain/missiontype"
)

// SchemaVersion is the dataset document version this build reads and writes.
const SchemaVersion = 1

// DocumentFile is the name of the dataset document inside a pushed dataset.
const DocumentFile = "dataset.json"

// Document is the portable dataset root. Media maps become parallel
// media/media_labels lists so downstream training loaders can consume them
// positionally.
type Document struct {
	SchemaVersion int                          `json:"schema_version"`
	Project       ProjectEntry                 `json:"project"`
	MissionTypes  []*missiontype.Configuration `json:"mission_types"`
	Missions      []MissionEntry               `json:"missions"`
}

// ProjectEntry is the exported project header.
type ProjectEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// MissionEntry is one exported mission.
type MissionEntry struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	DatasetSplit   string          `json:"dataset_split,omitempty"`
	CreationSource string          `json:"creation_source,omitempty"`
	Instruction    string          `json:"mission_instruction"`
	Waypoints      []WaypointEntry `json:"waypoints"`
}

// WaypointEntry is one exported waypoint with positional media lists.
type WaypointEntry struct {
	ID                 string             `json:"id"`
	Position           []float64          `json:"position,omitempty"`
	IsTarget           bool               `json:"is_target"`
	GroundIsObstructed bool               `json:"ground_is_obstructed,omitempty"`
	Media              []string           `json:"media"`
	MediaLabels        []string           `json:"media_labels"`
	Landmarks          []mission.Landmark `json:"landmarks,omitempty"`
	GTEntities         map[string]string  `json:"gt_entities"`
}

// Export converts a project and the mission-type configurations it
// references into the portable layout.
func Export(p *mission.Project, types []*missiontype.Configuration) *Document {
	doc := &Document{
		SchemaVersion: SchemaVersion,
		Project:       ProjectEntry{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt},
		MissionTypes:  types,
		Missions:      make([]MissionEntry, 0, len(p.Missions)),
	}
	for _, m := range p.Missions {
		entry := MissionEntry{
			ID:             m.ID,
			Name:           m.Name,
			Type:           m.Type,
			DatasetSplit:   m.DatasetSplit,
			CreationSource: m.CreationSource,
			Instruction:    m.Instruction,
		}
		for _, wp := range m.Waypoints {
			media, labels := flattenMedia(wp.Media)
			entry.Waypoints = append(entry.Waypoints, WaypointEntry{
				ID:                 wp.ID,
				Position:           wp.Position,
				IsTarget:           wp.IsTarget,
				GroundIsObstructed: wp.GroundIsObstructed,
				Media:              media,
				MediaLabels:        labels,
				Landmarks:          wp.Landmarks,
				GTEntities:         wp.GTEntities,
			})
		}
		doc.Missions = append(doc.Missions, entry)
	}
	return doc
}

// Import reconstructs a project and its mission-type configurations from a
// validated document.
func (d *Document) Import() (*mission.Project, []*missiontype.Configuration) {
	p := &mission.Project{
		ID:        d.Project.ID,
		Name:      d.Project.Name,
		CreatedAt: d.Project.CreatedAt,
		Missions:  make([]mission.Mission, 0, len(d.Missions)),
	}
	for _, entry := range d.Missions {
		m := mission.Mission{
			ID:             entry.ID,
			Name:           entry.Name,
			Type:           entry.Type,
			DatasetSplit:   entry.DatasetSplit,
			CreationSource: entry.CreationSource,
			Instruction:    entry.Instruction,
		}
		for _, wp := range entry.Waypoints {
			m.Waypoints = append(m.Waypoints, mission.Waypoint{
				ID:                 wp.ID,
				Position:           wp.Position,
				IsTarget:           wp.IsTarget,
				GroundIsObstructed: wp.GroundIsObstructed,
				Media:              unflattenMedia(wp.Media, wp.MediaLabels),
				Landmarks:          wp.Landmarks,
				GTEntities:         wp.GTEntities,
			})
		}
		p.Missions = append(p.Missions, m)
		p.RecordMissionType(entry.Type)
	}
	return p, d.MissionTypes
}

// MediaPaths returns every media path referenced by the document, in order.
func (d *Document) MediaPaths() []string {
	var paths []string
	for _, m := range d.Missions {
		for _, wp := range m.Waypoints {
			paths = append(paths, wp.Media...)
		}
	}
	return paths
}

func flattenMedia(media map[string]string) ([]string, []string) {
	labels := make([]string, 0, len(media))
	for label := range media {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	paths := make([]string, 0, len(media))
	for _, label := range labels {
		paths = append(paths, media[label])
	}
	return paths, labels
}

func unflattenMedia(paths, labels []string) map[string]string {
	media := make(map[string]string, len(paths))
	for i, path := range paths {
		label := fmt.Sprintf("media_%02d", i)
		if i < len(labels) {
			label = labels[i]
		}
		media[label] = path
	}
	return media
}

const documentSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["schema_version", "project", "mission_types", "missions"],
  "properties": {
    "schema_version": { "type": "integer", "minimum": 1 },
    "project": {
      "type": "object",
      "required": ["id", "name"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "name": { "type": "string", "minLength": 1 }
      }
    },
    "mission_types": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "initial_state", "states"],
        "properties": {
          "name": { "type": "string", "minLength": 1 },
          "initial_state": { "type": "string", "minLength": 1 },
          "states": { "type": "object" }
        }
      }
    },
    "missions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "waypoints"],
        "properties": {
          "id": { "type": "string", "minLength": 1 },
          "type": { "type": "string", "minLength": 1 },
          "waypoints": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "is_target", "media", "gt_entities"],
              "properties": {
                "id": { "type": "string", "minLength": 1 },
                "is_target": { "type": "boolean" },
                "media": { "type": "array", "items": { "type": "string" } },
                "media_labels": { "type": "array", "items": { "type": "string" } }
              }
            }
          }
        }
      }
    }
  }
}`

var documentSchemaLoader = gojsonschema.NewStringLoader(documentSchemaJSON)

// Decode validates raw payload bytes against the dataset schema and decodes
// them. A payload missing a required field (e.g. a mission type without
// initial_state) fails with a FormatError before any object is constructed.
func Decode(source string, data []byte) (*Document, error) {
	result, err := gojsonschema.Validate(documentSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &domain.FormatError{Source: source, Reason: err.Error()}
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return nil, &domain.FormatError{Source: source, Reason: first.String()}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &domain.FormatError{Source: source, Reason: err.Error()}
	}
	if doc.SchemaVersion > SchemaVersion {
		return nil, &domain.FormatError{
			Source: source,
			Reason: fmt.Sprintf("schema version %d is newer than supported %d", doc.SchemaVersion, SchemaVersion),
		}
	}
	return &doc, nil
}

// Encode serializes the document for upload.
func (d *Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dataset document: %w", err)
	}
	return data, nil
}
