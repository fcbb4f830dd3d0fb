package highlights

import (
	"time"

	"github.com/google/uuid"
)

// Review workflow statuses. Suggested highlights come out of the generator;
// clinicians accept or reject them.
const (
	StatusSuggested = "suggested"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
)

var validStatuses = map[string]bool{
	StatusSuggested: true,
	StatusAccepted:  true,
	StatusRejected:  true,
}

// Highlight is one risk signal surfaced from a timeline entry. EntryID plus
// the span delimit the provenance region inside the source content.
type Highlight struct {
	ID         uuid.UUID  `json:"id"`
	PatientID  uuid.UUID  `json:"patient_id"`
	EntryID    uuid.UUID  `json:"entry_id"`
	CreatedBy  *uuid.UUID `json:"created_by,omitempty"`
	Text       string     `json:"text"`
	RiskReason string     `json:"risk_reason"`
	SpanStart  int        `json:"span_start"`
	SpanEnd    int        `json:"span_end"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}

// riskKeywords is scanned in order; the first keyword found in an entry wins.
var riskKeywords = []struct {
	Keyword string
	Reason  string
}{
	{"allergy", "Possible allergy mentioned"},
	{"chest pain", "Potential cardiac symptom"},
	{"shortness of breath", "Respiratory risk signal"},
	{"bleeding", "Bleeding risk signal"},
	{"suicidal", "Self-harm risk signal"},
}
