package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carenote/carenote/internal/domain/access"
	"github.com/carenote/carenote/internal/domain/audit"
	"github.com/carenote/carenote/internal/platform/auth"
	"github.com/carenote/carenote/internal/platform/db"
)

type Service struct {
	entries   EntryRepository
	snapshots SnapshotRepository
	patients  PatientDirectory
	audit     audit.Recorder
	tx        db.TxRunner
}

func NewService(entries EntryRepository, snapshots SnapshotRepository, patients PatientDirectory, recorder audit.Recorder, tx db.TxRunner) *Service {
	return &Service{entries: entries, snapshots: snapshots, patients: patients, audit: recorder, tx: tx}
}

// Human-creatable entry types. Machine-generated (ai_*) entries only ever
// come out of the generators.
var creatableEntryTypes = map[string]bool{
	TypeStaffNote:     true,
	TypeClinicianNote: true,
	TypeSystemEvent:   true,
}

// Patient resolves a patient reference under the actor's scope.
func (s *Service) Patient(ctx context.Context, actor auth.Actor, patientID uuid.UUID) (*PatientRef, error) {
	p, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if err := access.CheckPatientScope(actor, p.ID, p.ClinicID); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateEntry appends a human-entered record to the patient's timeline and
// mints its manual provenance pointer.
func (s *Service) CreateEntry(ctx context.Context, actor auth.Actor, patientID uuid.UUID, entryType, content string) (*Entry, error) {
	if !creatableEntryTypes[entryType] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEntryType, entryType)
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if actor.Role == auth.RolePatient {
		return nil, access.ErrDenied
	}
	if _, err := s.Patient(ctx, actor, patientID); err != nil {
		return nil, err
	}

	entry := &Entry{
		PatientID:  patientID,
		AuthorID:   &actor.UserID,
		AuthorRole: actor.Role,
		Type:       entryType,
		Content:    content,
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		count, err := s.entries.CountByPatient(ctx, patientID)
		if err != nil {
			return err
		}
		entry.ProvenancePointer = ManualPointer(entryType, count+1)
		return s.entries.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CurrentVersion returns the entry's latest snapshot version, 0 when the
// entry has never been edited.
func (s *Service) CurrentVersion(ctx context.Context, entryID uuid.UUID) (int, error) {
	return s.snapshots.LatestVersion(ctx, entryID)
}

// Edit replaces the entry's content, recording the change as the next
// snapshot version and an audit row, all in one transaction. When
// expectedVersion is set and stale the edit fails with VersionConflictError
// carrying the real current version.
func (s *Service) Edit(ctx context.Context, actor auth.Actor, entryID uuid.UUID, newContent string, expectedVersion *int) (int, error) {
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return 0, err
	}
	if err := s.checkEntryAccess(ctx, actor, entry); err != nil {
		return 0, err
	}
	if strings.TrimSpace(newContent) == "" {
		return 0, ErrEmptyContent
	}

	var newVersion int
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		locked, err := s.entries.LockForEdit(ctx, entryID)
		if err != nil {
			return err
		}
		current, err := s.snapshots.LatestVersion(ctx, entryID)
		if err != nil {
			return err
		}
		if expectedVersion != nil && *expectedVersion != current {
			return &VersionConflictError{Current: current}
		}

		newVersion = current + 1
		snap := &VersionSnapshot{
			EntryID:   locked.ID,
			Version:   newVersion,
			Content:   newContent,
			ChangedBy: &actor.UserID,
		}
		if err := s.snapshots.Create(ctx, snap); err != nil {
			return err
		}
		if err := s.entries.UpdateContent(ctx, entryID, newContent); err != nil {
			return err
		}
		return s.audit.Append(ctx, locked.PatientID, &actor.UserID, audit.ActionEditEntry,
			map[string]any{"entry_id": locked.ID.String(), "new_version": newVersion})
	})
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

// Revert restores the content of targetVersion by appending it as the next
// version. History is never truncated; a revert is itself an edit.
func (s *Service) Revert(ctx context.Context, actor auth.Actor, entryID uuid.UUID, targetVersion int) (int, error) {
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return 0, err
	}
	if err := s.checkEntryAccess(ctx, actor, entry); err != nil {
		return 0, err
	}

	var newVersion int
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		locked, err := s.entries.LockForEdit(ctx, entryID)
		if err != nil {
			return err
		}
		target, err := s.snapshots.GetByVersion(ctx, entryID, targetVersion)
		if err != nil {
			return err
		}
		current, err := s.snapshots.LatestVersion(ctx, entryID)
		if err != nil {
			return err
		}

		newVersion = current + 1
		snap := &VersionSnapshot{
			EntryID:   locked.ID,
			Version:   newVersion,
			Content:   target.Content,
			ChangedBy: &actor.UserID,
		}
		if err := s.snapshots.Create(ctx, snap); err != nil {
			return err
		}
		if err := s.entries.UpdateContent(ctx, entryID, target.Content); err != nil {
			return err
		}
		return s.audit.Append(ctx, locked.PatientID, &actor.UserID, audit.ActionRevertEntry,
			map[string]any{"entry_id": locked.ID.String(), "reverted_to": targetVersion, "new_version": newVersion})
	})
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

// ListVersions returns the entry's history newest-version-first, under the
// actor's read scope.
func (s *Service) ListVersions(ctx context.Context, actor auth.Actor, entryID uuid.UUID) ([]*VersionSnapshot, error) {
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Patient(ctx, actor, entry.PatientID); err != nil {
		return nil, err
	}
	if !access.EntryVisible(actor, entry.Type) {
		return nil, access.ErrDenied
	}
	return s.snapshots.ListByEntry(ctx, entryID)
}

// Timeline returns the patient's entries newest-first, filtered to what the
// actor may see.
func (s *Service) Timeline(ctx context.Context, actor auth.Actor, patientID uuid.UUID) ([]*Entry, error) {
	if _, err := s.Patient(ctx, actor, patientID); err != nil {
		return nil, err
	}
	all, err := s.entries.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	visible := make([]*Entry, 0, len(all))
	for _, e := range all {
		if access.EntryVisible(actor, e.Type) {
			visible = append(visible, e)
		}
	}
	return visible, nil
}

// checkEntryAccess applies clinic/self scope then the object-level edit rule.
func (s *Service) checkEntryAccess(ctx context.Context, actor auth.Actor, entry *Entry) error {
	if _, err := s.Patient(ctx, actor, entry.PatientID); err != nil {
		return err
	}
	if !access.CanEditEntry(actor, entry.AuthorRole, entry.Type) {
		return access.ErrDenied
	}
	return nil
}
