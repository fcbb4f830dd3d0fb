package records

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers missing entries and missing target versions.
	ErrNotFound = errors.New("not found")

	// ErrPatientNotFound is returned when the referenced patient record
	// does not exist.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrEmptyContent rejects edits and creates whose content trims to
	// nothing.
	ErrEmptyContent = errors.New("content required")

	// ErrInvalidEntryType rejects creates with a type outside the
	// human-creatable set.
	ErrInvalidEntryType = errors.New("invalid entry type")
)

// VersionConflictError signals a stale optimistic-concurrency precondition.
// Current carries the version the caller must rebase onto.
type VersionConflictError struct {
	Current int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: current version is %d", e.Current)
}
