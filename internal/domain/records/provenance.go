package records

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SessionPointer mints a provenance pointer for a system-generated entry,
// e.g. "session:9f1c2d...". The hex id is opaque.
func SessionPointer() string {
	return "session:" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// ManualPointer builds the provenance pointer for a human-entered record,
// e.g. "manual:staff_note:3". seq is 1-based per patient.
func ManualPointer(label string, seq int) string {
	return fmt.Sprintf("manual:%s:%d", label, seq)
}
