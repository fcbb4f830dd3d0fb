package highlights

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/carenote/carenote/internal/domain/access"
	"github.com/carenote/carenote/internal/domain/audit"
	"github.com/carenote/carenote/internal/platform/auth"
	"github.com/carenote/carenote/internal/platform/db"
)

const (
	// scanWindow bounds how far back the generator looks.
	scanWindow = 20
	// maxPerRun throttles regeneration to a single suggestion per call.
	maxPerRun = 1
	// excerptRunes bounds the quoted excerpt and provenance span.
	excerptRunes = 120
)

type Service struct {
	highlights Repository
	entries    EntrySource
	patients   PatientDirectory
	audit      audit.Recorder
	tx         db.TxRunner
}

func NewService(highlights Repository, entries EntrySource, patients PatientDirectory, recorder audit.Recorder, tx db.TxRunner) *Service {
	return &Service{highlights: highlights, entries: entries, patients: patients, audit: recorder, tx: tx}
}

func (s *Service) checkScope(ctx context.Context, actor auth.Actor, patientID uuid.UUID) error {
	p, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return err
	}
	return access.CheckPatientScope(actor, p.ID, p.ClinicID)
}

// Regenerate wipes the patient's highlights and rescans their recent
// non-AI entries against the risk keyword table. Whole-replace plus the
// audit row happen in one transaction; a failure leaves the previous set
// intact.
func (s *Service) Regenerate(ctx context.Context, actor auth.Actor, patientID uuid.UUID) ([]*Highlight, error) {
	if !access.CanGenerateDerived(actor) {
		return nil, access.ErrDenied
	}
	if err := s.checkScope(ctx, actor, patientID); err != nil {
		return nil, err
	}

	var created []*Highlight
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.highlights.DeleteByPatient(ctx, patientID); err != nil {
			return err
		}
		entries, err := s.entries.RecentNonAI(ctx, patientID, scanWindow)
		if err != nil {
			return err
		}

		for _, e := range entries {
			if len(created) >= maxPerRun {
				break
			}
			lowered := strings.ToLower(e.Content)
			for _, kw := range riskKeywords {
				if !strings.Contains(lowered, kw.Keyword) {
					continue
				}
				h := &Highlight{
					PatientID:  patientID,
					EntryID:    e.ID,
					CreatedBy:  &actor.UserID,
					Text:       kw.Keyword + ": " + firstRunes(e.Content, excerptRunes),
					RiskReason: kw.Reason,
					SpanStart:  0,
					SpanEnd:    spanEnd(e.Content),
					Status:     StatusSuggested,
				}
				if err := s.highlights.Create(ctx, h); err != nil {
					return err
				}
				created = append(created, h)
				break
			}
		}

		return s.audit.Append(ctx, patientID, &actor.UserID, audit.ActionGenerateHighlights,
			map[string]any{"created": len(created)})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// SetStatus moves a highlight through the review workflow and audits the
// transition. Only clinicians and admins may review.
func (s *Service) SetStatus(ctx context.Context, actor auth.Actor, highlightID uuid.UUID, newStatus string) (*Highlight, error) {
	if actor.Role == auth.RolePatient {
		return nil, access.ErrDenied
	}

	h, err := s.highlights.GetByID(ctx, highlightID)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(ctx, actor, h.PatientID); err != nil {
		return nil, err
	}
	if !access.CanSetHighlightStatus(actor) {
		return nil, access.ErrDenied
	}
	if !validStatuses[newStatus] {
		return nil, ErrInvalidStatus
	}

	old := h.Status
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.highlights.UpdateStatus(ctx, highlightID, newStatus); err != nil {
			return err
		}
		return s.audit.Append(ctx, h.PatientID, &actor.UserID, audit.ActionSetHighlightStatus,
			map[string]any{"highlight_id": h.ID.String(), "from": old, "to": newStatus})
	})
	if err != nil {
		return nil, err
	}
	h.Status = newStatus
	return h, nil
}

// Visible returns the patient's highlights filtered to what the actor may
// see: patients get accepted only, clinical roles the full set.
func (s *Service) Visible(ctx context.Context, actor auth.Actor, patientID uuid.UUID) ([]*Highlight, error) {
	if err := s.checkScope(ctx, actor, patientID); err != nil {
		return nil, err
	}
	all, err := s.highlights.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	visible := make([]*Highlight, 0, len(all))
	for _, h := range all {
		if access.HighlightVisible(actor, h.Status) {
			visible = append(visible, h)
		}
	}
	return visible, nil
}

// spanEnd is the provenance span's exclusive end: the excerpt bound, or the
// content length in runes when shorter.
func spanEnd(content string) int {
	if n := len([]rune(content)); n < excerptRunes {
		return n
	}
	return excerptRunes
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
