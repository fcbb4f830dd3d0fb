package comments

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrThreadNotFound = errors.New("thread not found")
	ErrEntryNotFound  = errors.New("entry not found")
	ErrThreadResolved = errors.New("thread is resolved")
	ErrEmptyContent   = errors.New("content required")
)

type Repository interface {
	CreateThread(ctx context.Context, t *Thread) error
	GetThread(ctx context.Context, id uuid.UUID) (*Thread, error)
	// ListThreadsByEntry returns threads oldest-first.
	ListThreadsByEntry(ctx context.Context, entryID uuid.UUID) ([]*Thread, error)
	MarkResolved(ctx context.Context, id uuid.UUID) error
	CreateComment(ctx context.Context, c *Comment) error
	// ListCommentsByThread returns comments oldest-first.
	ListCommentsByThread(ctx context.Context, threadID uuid.UUID) ([]*Comment, error)
}

// EntryDirectory resolves an entry to its patient and clinic for scoping.
// Implementations return ErrEntryNotFound for unknown entries.
type EntryDirectory interface {
	EntryPatient(ctx context.Context, entryID uuid.UUID) (patientID uuid.UUID, clinicID string, err error)
}
