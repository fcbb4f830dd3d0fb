package records

import (
	"context"

	"github.com/google/uuid"
)

type EntryRepository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	// LockForEdit reloads the entry under SELECT ... FOR UPDATE. Callers
	// must hold an ambient transaction; the lock serializes concurrent
	// edits of the same entry without blocking other entries.
	LockForEdit(ctx context.Context, id uuid.UUID) (*Entry, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content string) error
	// ListByPatient returns the patient's timeline newest-first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Entry, error)
	// RecentNonAI returns up to limit newest entries whose type is not
	// machine-generated.
	RecentNonAI(ctx context.Context, patientID uuid.UUID, limit int) ([]*Entry, error)
	// RecentExcludingType returns up to limit newest entries of any type
	// except the given one.
	RecentExcludingType(ctx context.Context, patientID uuid.UUID, excludeType string, limit int) ([]*Entry, error)
	DeleteByPatientAndType(ctx context.Context, patientID uuid.UUID, entryType string) (int64, error)
	CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}

type SnapshotRepository interface {
	Create(ctx context.Context, s *VersionSnapshot) error
	// LatestVersion returns MAX(version) for the entry, 0 when no snapshot
	// exists yet.
	LatestVersion(ctx context.Context, entryID uuid.UUID) (int, error)
	GetByVersion(ctx context.Context, entryID uuid.UUID, version int) (*VersionSnapshot, error)
	// ListByEntry returns snapshots newest-version-first.
	ListByEntry(ctx context.Context, entryID uuid.UUID) ([]*VersionSnapshot, error)
}

// PatientRef is the slice of patient identity the record engine needs for
// scoping and display.
type PatientRef struct {
	ID          uuid.UUID
	ClinicID    string
	DisplayName string
}

// PatientDirectory resolves patient references. Implementations return
// ErrPatientNotFound for unknown ids.
type PatientDirectory interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*PatientRef, error)
}
