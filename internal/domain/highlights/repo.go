package highlights

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown highlight ids.
	ErrNotFound = errors.New("highlight not found")

	// ErrPatientNotFound is returned by the directory for unknown patients.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrInvalidStatus rejects statuses outside the workflow set.
	ErrInvalidStatus = errors.New("status must be suggested/accepted/rejected")
)

type Repository interface {
	Create(ctx context.Context, h *Highlight) error
	GetByID(ctx context.Context, id uuid.UUID) (*Highlight, error)
	// ListByPatient returns highlights newest-first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Highlight, error)
	DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// SourceEntry is the slice of a timeline entry the scanner needs.
type SourceEntry struct {
	ID      uuid.UUID
	Content string
}

// EntrySource feeds the scanner. Wired to the records repository in main; the
// indirection keeps this package decoupled from the record engine.
type EntrySource interface {
	// RecentNonAI returns up to limit newest human/system entries,
	// machine-generated types excluded.
	RecentNonAI(ctx context.Context, patientID uuid.UUID, limit int) ([]SourceEntry, error)
}

// PatientRef carries the identity fields scoping needs.
type PatientRef struct {
	ID       uuid.UUID
	ClinicID string
}

// PatientDirectory resolves patients; implementations return
// ErrPatientNotFound for unknown ids.
type PatientDirectory interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*PatientRef, error)
}
