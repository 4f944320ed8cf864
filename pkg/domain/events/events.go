// Package events defines the domain events emitted by the editor and the
// handler contract used to fan them out to subscribers.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the editor.
const (
	TypeProjectSaved       = "project.saved"
	TypeProjectDeleted     = "project.deleted"
	TypeMissionTypeSaved   = "missiontype.saved"
	TypeMissionTypeDeleted = "missiontype.deleted"
	TypeMissionTypeChanged = "missiontype.changed"
	TypeGenerationDone     = "generation.completed"
	TypeHubPushed          = "hub.pushed"
	TypeHubPulled          = "hub.pulled"
)

// BaseEvent carries what every subscriber needs: what happened, to which
// aggregate, and when.
type BaseEvent struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	AggregateID string            `json:"aggregate_id"`
	Timestamp   time.Time         `json:"timestamp"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// New creates an event stamped with a fresh id and the current time.
func New(eventType, aggregateID string, metadata map[string]string) *BaseEvent {
	return &BaseEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		Timestamp:   time.Now().UTC(),
		Metadata:    metadata,
	}
}

// EventHandler processes a published event. Handlers must not block.
type EventHandler func(*BaseEvent) error

// Publisher fans events out to subscribers.
type Publisher interface {
	Publish(*BaseEvent) error
	Subscribe(EventHandler)
}
