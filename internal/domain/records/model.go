package records

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry types. The ai_ prefix marks machine-generated entries; the risk
// scanner skips them and patients see only their session summaries.
const (
	TypeStaffNote               = "staff_note"
	TypeClinicianNote           = "clinician_note"
	TypeAIDoctorConsultSummary  = "ai_doctor_consult_summary"
	TypeAINurseConsultSummary   = "ai_nurse_consult_summary"
	TypeAIPatientSessionSummary = "ai_patient_session_summary"
	TypeSystemEvent             = "system_event"
)

// AuthorRoleSystem marks entries produced by the service itself rather than
// a human actor.
const AuthorRoleSystem = "system"

// IsAIType reports whether the entry type marks machine-generated content.
func IsAIType(entryType string) bool {
	return strings.HasPrefix(entryType, "ai_")
}

// Entry is one timeline record. Content is the live text; every change is
// also captured as an immutable VersionSnapshot.
type Entry struct {
	ID                uuid.UUID  `json:"id"`
	PatientID         uuid.UUID  `json:"patient_id"`
	AuthorID          *uuid.UUID `json:"author_id,omitempty"`
	AuthorRole        string     `json:"author_role"`
	Type              string     `json:"type"`
	Content           string     `json:"content"`
	ProvenancePointer string     `json:"provenance_pointer"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// VersionSnapshot is one immutable point in an entry's history. Versions are
// contiguous from 1 per entry and never reused; there is no update or delete
// path for snapshots.
type VersionSnapshot struct {
	ID        uuid.UUID  `json:"id"`
	EntryID   uuid.UUID  `json:"entry_id"`
	Version   int        `json:"version"`
	Content   string     `json:"content"`
	ChangedBy *uuid.UUID `json:"changed_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
