package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the trail. The set is closed; each action carries a
// fixed metadata shape.
const (
	ActionEditEntry           = "edit_entry"                  // {entry_id, new_version}
	ActionRevertEntry         = "revert_entry"                // {entry_id, reverted_to, new_version}
	ActionGenerateHighlights  = "generate_highlights_rule"    // {created}
	ActionSetHighlightStatus  = "set_highlight_status"        // {highlight_id, from, to}
	ActionGeneratePatientMock = "generate_patient_summary_mock" // {entry_id}
)

// Log is one append-only audit record. ActorID is nil for system-initiated
// actions. Rows are never updated or deleted.
type Log struct {
	ID        uuid.UUID      `json:"id"`
	PatientID uuid.UUID      `json:"patient_id"`
	ActorID   *uuid.UUID     `json:"actor_id,omitempty"`
	Action    string         `json:"action"`
	Meta      map[string]any `json:"meta"`
	CreatedAt time.Time      `json:"created_at"`
}
