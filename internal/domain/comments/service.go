package comments

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/carenote/carenote/internal/domain/access"
	"github.com/carenote/carenote/internal/platform/auth"
	"github.com/carenote/carenote/internal/platform/db"
)

type Service struct {
	repo    Repository
	entries EntryDirectory
	tx      db.TxRunner
}

func NewService(repo Repository, entries EntryDirectory, tx db.TxRunner) *Service {
	return &Service{repo: repo, entries: entries, tx: tx}
}

// checkEntryScope refuses patient-role actors outright and clinic-scopes the
// rest. Discussion threads are a clinical surface; patients never see them.
func (s *Service) checkEntryScope(ctx context.Context, actor auth.Actor, entryID uuid.UUID) error {
	if actor.Role == auth.RolePatient {
		return access.ErrDenied
	}
	patientID, clinicID, err := s.entries.EntryPatient(ctx, entryID)
	if err != nil {
		return err
	}
	return access.CheckPatientScope(actor, patientID, clinicID)
}

// StartThread opens a thread on an entry with its first comment, both in one
// transaction.
func (s *Service) StartThread(ctx context.Context, actor auth.Actor, entryID uuid.UUID, content string) (*ThreadView, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if err := s.checkEntryScope(ctx, actor, entryID); err != nil {
		return nil, err
	}

	thread := &Thread{EntryID: entryID}
	comment := &Comment{AuthorID: actor.UserID, AuthorRole: actor.Role, Content: content}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateThread(ctx, thread); err != nil {
			return err
		}
		comment.ThreadID = thread.ID
		return s.repo.CreateComment(ctx, comment)
	})
	if err != nil {
		return nil, err
	}
	return &ThreadView{Thread: *thread, Comments: []*Comment{comment}}, nil
}

// AddComment appends to an open thread. Resolved threads are closed for
// further discussion.
func (s *Service) AddComment(ctx context.Context, actor auth.Actor, threadID uuid.UUID, content string) (*Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	thread, err := s.repo.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEntryScope(ctx, actor, thread.EntryID); err != nil {
		return nil, err
	}
	if thread.IsResolved {
		return nil, ErrThreadResolved
	}

	comment := &Comment{ThreadID: threadID, AuthorID: actor.UserID, AuthorRole: actor.Role, Content: content}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Resolve marks a thread closed. Resolving twice is a no-op.
func (s *Service) Resolve(ctx context.Context, actor auth.Actor, threadID uuid.UUID) (*Thread, error) {
	thread, err := s.repo.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEntryScope(ctx, actor, thread.EntryID); err != nil {
		return nil, err
	}
	if err := s.repo.MarkResolved(ctx, threadID); err != nil {
		return nil, err
	}
	thread.IsResolved = true
	return thread, nil
}

// ListByEntry returns the entry's threads with their comments.
func (s *Service) ListByEntry(ctx context.Context, actor auth.Actor, entryID uuid.UUID) ([]*ThreadView, error) {
	if err := s.checkEntryScope(ctx, actor, entryID); err != nil {
		return nil, err
	}
	threads, err := s.repo.ListThreadsByEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	views := make([]*ThreadView, 0, len(threads))
	for _, t := range threads {
		cs, err := s.repo.ListCommentsByThread(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		if cs == nil {
			cs = []*Comment{}
		}
		views = append(views, &ThreadView{Thread: *t, Comments: cs})
	}
	return views, nil
}
