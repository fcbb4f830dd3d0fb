package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carenote/carenote/internal/domain/access"
	"github.com/carenote/carenote/internal/domain/audit"
	"github.com/carenote/carenote/internal/platform/auth"
)

const (
	summaryRecentEntries = 5
	summaryBulletRunes   = 80
)

// GenerateMockSummary rebuilds the patient's AI session summary from their
// recent timeline. It stands in for a real model call: prior summaries are
// dropped and one fresh system-authored entry is written, with a session
// provenance pointer, in a single transaction.
func (s *Service) GenerateMockSummary(ctx context.Context, actor auth.Actor, patientID uuid.UUID) (*Entry, error) {
	if !access.CanGenerateDerived(actor) {
		return nil, access.ErrDenied
	}
	if _, err := s.Patient(ctx, actor, patientID); err != nil {
		return nil, err
	}

	var entry *Entry
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.entries.DeleteByPatientAndType(ctx, patientID, TypeAIPatientSessionSummary); err != nil {
			return err
		}
		recent, err := s.entries.RecentExcludingType(ctx, patientID, TypeAIPatientSessionSummary, summaryRecentEntries)
		if err != nil {
			return err
		}

		// bullets read oldest-first even though the fetch is newest-first
		bullets := make([]string, 0, len(recent))
		for i := len(recent) - 1; i >= 0; i-- {
			e := recent[i]
			bullets = append(bullets, fmt.Sprintf("- (%s) %s", e.Type, firstRunes(e.Content, summaryBulletRunes)))
		}

		body := "Patient Summary (Mock AI)\n" +
			"What happened:\n" + strings.Join(bullets, "\n") + "\n\n" +
			"Next steps:\n- Monitor symptoms\n- Follow clinician advice\n"

		entry = &Entry{
			PatientID:         patientID,
			AuthorRole:        AuthorRoleSystem,
			Type:              TypeAIPatientSessionSummary,
			Content:           body,
			ProvenancePointer: SessionPointer(),
		}
		if err := s.entries.Create(ctx, entry); err != nil {
			return err
		}
		return s.audit.Append(ctx, patientID, &actor.UserID, audit.ActionGeneratePatientMock,
			map[string]any{"entry_id": entry.ID.String()})
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// firstRunes truncates to n Unicode code points, not bytes, so multibyte
// clinical text never splits mid-character.
func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
