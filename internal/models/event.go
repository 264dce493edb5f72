// Package models contains the core data structures for statushook.
package models

import (
	"encoding/json"
	"time"
)

// EventType classifies an uptime event.
type EventType string

const (
	// EventUp means the monitored resource recovered or is healthy.
	EventUp EventType = "up"
	// EventDown means the monitored resource failed its uptime check.
	EventDown EventType = "down"
)

// Event is the canonical record produced from one provider webhook delivery.
// Events are immutable after normalization and recorded exactly once per
// logical delivery; they are never updated in place.
type Event struct {
	// Type is derived from the provider incident state.
	Type EventType `json:"event_type"`

	// ServiceID is the internal service the event belongs to.
	// Empty until resolved; the object-storage sink tolerates an
	// unresolved event, the relational sink does not.
	ServiceID string `json:"service_id,omitempty"`

	// Payload is the structured bag extracted from the provider incident.
	Payload EventPayload `json:"event_payload"`
}

// EventPayload carries the fixed set of incident fields this service
// extracts. Fields absent in the source payload are omitted rather than
// defaulted, so "no data" stays distinguishable from an empty string.
type EventPayload struct {
	IncidentID    string     `json:"incident_id,omitempty"`
	PolicyName    string     `json:"policy_name,omitempty"`
	ConditionName string     `json:"condition_name,omitempty"`
	ResourceName  string     `json:"resource_name,omitempty"`
	State         string     `json:"state,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	URL           string     `json:"url,omitempty"`
	Summary       string     `json:"summary,omitempty"`

	// Raw is the complete original provider payload, retained verbatim
	// regardless of which fields were extracted. This is what makes
	// replay lossless.
	Raw json.RawMessage `json:"raw,omitempty"`

	// Replay annotations. Set only when an event is re-driven from the
	// archive, never on the live ingestion path.
	Replayed          bool   `json:"replayed,omitempty"`
	OriginalServiceID string `json:"original_service_id,omitempty"`
	ProcessedAt       string `json:"processed_at,omitempty"`
}
