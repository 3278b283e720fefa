package events

import (
	"time"

	"github.com/spec-kit/squad-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTeamUpdated             EventType = "team_updated"
	EventRosterChanged           EventType = "roster_changed"
	EventActivityCreated         EventType = "activity_created"
	EventActivityUpdated         EventType = "activity_updated"
	EventActivityDeleted         EventType = "activity_deleted"
	EventCallupSent              EventType = "callup_sent"
	EventCallupResponded         EventType = "callup_responded"
	EventScheduledCallupCreated  EventType = "scheduled_callup_created"
	EventScheduledCallupCanceled EventType = "scheduled_callup_cancelled"
	EventScheduledCallupSent     EventType = "scheduled_callup_sent"
	EventQuizSaved               EventType = "quiz_saved"
	EventQuizDeleted             EventType = "quiz_deleted"
	EventTheoryAssigned          EventType = "theory_assigned"
	EventTheoryUnassigned        EventType = "theory_unassigned"
	EventTheoryCompleted         EventType = "theory_completed"
)

// Action is the row-level change kind reported to realtime subscribers.
type Action string

const (
	ActionInsert Action = "INSERT"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ProfileID string      `json:"profile_id,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services. Table, Action and
// RecordID describe the changed row so clients know what to re-fetch.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TeamID    string      `json:"team_id"`
	Table     string      `json:"table"`
	Action    Action      `json:"action"`
	RecordID  string      `json:"record_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// CallupSentPayload lists the players that received a new callup.
type CallupSentPayload struct {
	ActivityID    string    `json:"activity_id"`
	ActivityTitle string    `json:"activity_title"`
	StartsAt      time.Time `json:"starts_at"`
	Location      string    `json:"location"`
	PlayerIDs     []string  `json:"player_ids"`
}

// CallupRespondedPayload payload.
type CallupRespondedPayload struct {
	ActivityID string              `json:"activity_id"`
	PlayerID   string              `json:"player_id"`
	Status     domain.CallupStatus `json:"status"`
}

// TheoryAssignedPayload lists players that were assigned a quiz.
type TheoryAssignedPayload struct {
	QuizID    string     `json:"quiz_id"`
	QuizTitle string     `json:"quiz_title"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	PlayerIDs []string   `json:"player_ids"`
}

// TheoryCompletedPayload payload.
type TheoryCompletedPayload struct {
	QuizID   string `json:"quiz_id"`
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
	Total    int    `json:"total"`
}
