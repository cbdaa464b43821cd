package model

import (
	"time"
)

// EventType tags the stream event union sent to clients.
type EventType string

const (
	EventTypeContentDelta EventType = "content_delta"
	EventTypeError        EventType = "error"
	EventTypeComplete     EventType = "complete"
)

// StreamEvent is one event on the client-facing text event stream.
// Content deltas carry the participant attribution so the client can route
// fragments to the right bubble; error events name the failed participant;
// the complete event carries no payload.
type StreamEvent struct {
	Type        EventType `json:"type"`
	Participant string    `json:"participant,omitempty"`
	Model       string    `json:"model,omitempty"`
	Provider    Provider  `json:"provider,omitempty"`
	Content     string    `json:"content,omitempty"`
	Message     string    `json:"message,omitempty"`
}

// ContentDelta builds a content delta event for a participant.
func ContentDelta(p Participant, text string) StreamEvent {
	return StreamEvent{
		Type:        EventTypeContentDelta,
		Participant: p.Name,
		Model:       p.Model,
		Provider:    p.Provider,
		Content:     text,
	}
}

// ErrorEvent builds an in-band error event naming the failed participant.
func ErrorEvent(participant, message string) StreamEvent {
	return StreamEvent{
		Type:        EventTypeError,
		Participant: participant,
		Message:     message,
	}
}

// CompleteEvent builds the terminal event emitted once per run.
func CompleteEvent() StreamEvent {
	return StreamEvent{Type: EventTypeComplete}
}

// RunEventType tags run lifecycle audit events.
type RunEventType string

const (
	RunEventStarted              RunEventType = "run_started"
	RunEventParticipantCompleted RunEventType = "participant_completed"
	RunEventParticipantFailed    RunEventType = "participant_failed"
	RunEventCompleted            RunEventType = "run_completed"
)

// RunEvent is a run lifecycle record published to JetStream for downstream
// audit consumers. It never carries message content.
type RunEvent struct {
	ID          string       `json:"id"`
	RunID       string       `json:"run_id"`
	TenantID    string       `json:"tenant_id,omitempty"`
	Type        RunEventType `json:"type"`
	Participant string       `json:"participant,omitempty"`
	Provider    Provider     `json:"provider,omitempty"`
	Model       string       `json:"model,omitempty"`
	Reason      string       `json:"reason,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
