package access

import (
	"errors"

	"github.com/google/uuid"

	"github.com/carenote/carenote/internal/platform/auth"
)

// ErrDenied is returned whenever a scoping rule refuses an actor. Handlers
// map it to 403; it is never expressed as a silently-empty result set.
var ErrDenied = errors.New("access denied")

const (
	staffEditableType     = "staff_note"
	clinicianEditableType = "clinician_note"

	patientVisibleEntryType       = "ai_patient_session_summary"
	patientVisibleHighlightStatus = "accepted"
)

// CheckPatientScope decides whether the actor may access the given patient
// record at all. Admins see every clinic. Patients see only themselves.
// Staff and clinicians are confined to their own clinic; an actor with no
// clinic affiliation is unscoped and passes the clinic check.
func CheckPatientScope(a auth.Actor, patientID uuid.UUID, patientClinicID string) error {
	if a.Role == auth.RoleAdmin {
		return nil
	}
	if a.ClinicID != "" && a.ClinicID != patientClinicID {
		return ErrDenied
	}
	switch a.Role {
	case auth.RolePatient:
		if a.PatientID != nil && *a.PatientID == patientID {
			return nil
		}
		return ErrDenied
	case auth.RoleStaff, auth.RoleClinician:
		return nil
	default:
		return ErrDenied
	}
}

// CanEditEntry is the object-level rule gating both Edit and Revert. The
// table is deliberately narrow: staff may touch staff-authored staff notes,
// clinicians clinician-authored clinician notes, admins anything. Nobody
// edits AI-generated or system entries except an admin.
func CanEditEntry(a auth.Actor, authorRole, entryType string) bool {
	switch a.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleStaff:
		return authorRole == auth.RoleStaff && entryType == staffEditableType
	case auth.RoleClinician:
		return authorRole == auth.RoleClinician && entryType == clinicianEditableType
	default:
		return false
	}
}

// CanGenerateDerived reports whether the actor may trigger derived-content
// generation (risk highlights, mock summaries). Patients never can.
func CanGenerateDerived(a auth.Actor) bool {
	switch a.Role {
	case auth.RoleStaff, auth.RoleClinician, auth.RoleAdmin:
		return true
	default:
		return false
	}
}

// CanSetHighlightStatus reports whether the actor may move a highlight
// through its review workflow. Staff may not; they only read.
func CanSetHighlightStatus(a auth.Actor) bool {
	return a.Role == auth.RoleClinician || a.Role == auth.RoleAdmin
}

// EntryVisible filters timeline reads. Patient-role actors see only their
// AI session summaries; every other role sees the full timeline.
func EntryVisible(a auth.Actor, entryType string) bool {
	if a.Role == auth.RolePatient {
		return entryType == patientVisibleEntryType
	}
	return true
}

// HighlightVisible filters highlight reads. Patient-role actors see only
// accepted highlights; clinical roles see every status.
func HighlightVisible(a auth.Actor, status string) bool {
	if a.Role == auth.RolePatient {
		return status == patientVisibleHighlightStatus
	}
	return true
}
