package identity

import (
	"time"

	"github.com/google/uuid"
)

// Patient is the minimal identity record everything else hangs off. ClinicID
// scopes which staff and clinicians may see the patient.
type Patient struct {
	ID          uuid.UUID `json:"id"`
	ClinicID    string    `json:"clinic_id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
