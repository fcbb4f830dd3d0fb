package comments

import (
	"time"

	"github.com/google/uuid"
)

// Thread groups discussion comments under a timeline entry.
type Thread struct {
	ID         uuid.UUID `json:"id"`
	EntryID    uuid.UUID `json:"entry_id"`
	IsResolved bool      `json:"is_resolved"`
	CreatedAt  time.Time `json:"created_at"`
}

type Comment struct {
	ID         uuid.UUID `json:"id"`
	ThreadID   uuid.UUID `json:"thread_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorRole string    `json:"author_role"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// ThreadView is a thread with its comments oldest-first, as returned by the
// list endpoint.
type ThreadView struct {
	Thread
	Comments []*Comment `json:"comments"`
}
