package comments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carenote/carenote/internal/domain/access"
	"github.com/carenote/carenote/internal/platform/auth"
)

type entryInfo struct {
	PatientID uuid.UUID
	ClinicID  string
}

type mockStore struct {
	threads  map[uuid.UUID]*Thread
	comments map[uuid.UUID][]*Comment
	entries  map[uuid.UUID]entryInfo
	clock    int64
}

func newMockStore() *mockStore {
	return &mockStore{
		threads:  make(map[uuid.UUID]*Thread),
		comments: make(map[uuid.UUID][]*Comment),
		entries:  make(map[uuid.UUID]entryInfo),
	}
}

func (m *mockStore) addEntry(clinicID string) uuid.UUID {
	id := uuid.New()
	m.entries[id] = entryInfo{PatientID: uuid.New(), ClinicID: clinicID}
	return id
}

func (m *mockStore) nextTime() time.Time {
	m.clock++
	return time.Unix(m.clock, 0)
}

type mockRepo struct{ store *mockStore }

func (r *mockRepo) CreateThread(_ context.Context, t *Thread) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = r.store.nextTime()
	cp := *t
	r.store.threads[t.ID] = &cp
	return nil
}

func (r *mockRepo) GetThread(_ context.Context, id uuid.UUID) (*Thread, error) {
	t, ok := r.store.threads[id]
	if !ok {
		return nil, ErrThreadNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *mockRepo) ListThreadsByEntry(_ context.Context, entryID uuid.UUID) ([]*Thread, error) {
	var out []*Thread
	for _, t := range r.store.threads {
		if t.EntryID == entryID {
			cp := *t
			out = append(out, &cp)
		}
	}
	// oldest first
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.Before(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *mockRepo) MarkResolved(_ context.Context, id uuid.UUID) error {
	t, ok := r.store.threads[id]
	if !ok {
		return ErrThreadNotFound
	}
	t.IsResolved = true
	return nil
}

func (r *mockRepo) CreateComment(_ context.Context, c *Comment) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = r.store.nextTime()
	cp := *c
	r.store.comments[c.ThreadID] = append(r.store.comments[c.ThreadID], &cp)
	return nil
}

func (r *mockRepo) ListCommentsByThread(_ context.Context, threadID uuid.UUID) ([]*Comment, error) {
	return append([]*Comment(nil), r.store.comments[threadID]...), nil
}

type mockEntries struct{ store *mockStore }

func (d *mockEntries) EntryPatient(_ context.Context, entryID uuid.UUID) (uuid.UUID, string, error) {
	info, ok := d.store.entries[entryID]
	if !ok {
		return uuid.Nil, "", ErrEntryNotFound
	}
	return info.PatientID, info.ClinicID, nil
}

type passthroughTx struct{}

func (passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *mockStore) {
	store := newMockStore()
	return NewService(&mockRepo{store: store}, &mockEntries{store: store}, passthroughTx{}), store
}

func staff(clinic string) auth.Actor {
	return auth.Actor{UserID: uuid.New(), Role: auth.RoleStaff, ClinicID: clinic}
}

func TestStartThread(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	entryID := store.addEntry("clinic-a")
	actor := staff("clinic-a")

	view, err := svc.StartThread(ctx, actor, entryID, "please double-check the dosage")
	if err != nil {
		t.Fatalf("StartThread: %v", err)
	}
	if view.EntryID != entryID || view.IsResolved {
		t.Errorf("unexpected thread: %+v", view.Thread)
	}
	if len(view.Comments) != 1 {
		t.Fatalf("expected the opening comment, got %d", len(view.Comments))
	}
	c := view.Comments[0]
	if c.AuthorID != actor.UserID || c.AuthorRole != auth.RoleStaff || c.Content != "please double-check the dosage" {
		t.Errorf("unexpected comment: %+v", c)
	}
}

func TestStartThread_Validation(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	entryID := store.addEntry("clinic-a")

	if _, err := svc.StartThread(ctx, staff("clinic-a"), entryID, "  "); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("blank content: expected ErrEmptyContent, got %v", err)
	}
	if _, err := svc.StartThread(ctx, staff("clinic-a"), uuid.New(), "x"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("unknown entry: expected ErrEntryNotFound, got %v", err)
	}
	if _, err := svc.StartThread(ctx, staff("clinic-b"), entryID, "x"); !errors.Is(err, access.ErrDenied) {
		t.Errorf("cross-clinic: expected ErrDenied, got %v", err)
	}

	pid := uuid.New()
	patient := auth.Actor{UserID: uuid.New(), Role: auth.RolePatient, ClinicID: "clinic-a", PatientID: &pid}
	if _, err := svc.StartThread(ctx, patient, entryID, "x"); !errors.Is(err, access.ErrDenied) {
		t.Errorf("patient: expected ErrDenied, got %v", err)
	}
}

func TestAddComment_AndResolvedGuard(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	entryID := store.addEntry("clinic-a")
	actor := staff("clinic-a")

	view, err := svc.StartThread(ctx, actor, entryID, "first")
	if err != nil {
		t.Fatal(err)
	}

	reply, err := svc.AddComment(ctx, actor, view.ID, "second")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if reply.ThreadID != view.ID {
		t.Error("comment attached to wrong thread")
	}

	if _, err := svc.Resolve(ctx, actor, view.ID); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !store.threads[view.ID].IsResolved {
		t.Error("thread not marked resolved")
	}

	if _, err := svc.AddComment(ctx, actor, view.ID, "too late"); !errors.Is(err, ErrThreadResolved) {
		t.Errorf("commenting on resolved thread: expected ErrThreadResolved, got %v", err)
	}
}

func TestListByEntry(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	entryID := store.addEntry("clinic-a")
	actor := staff("clinic-a")

	first, _ := svc.StartThread(ctx, actor, entryID, "thread one")
	svc.AddComment(ctx, actor, first.ID, "reply")
	svc.StartThread(ctx, actor, entryID, "thread two")

	views, err := svc.ListByEntry(ctx, actor, entryID)
	if err != nil {
		t.Fatalf("ListByEntry: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(views))
	}
	if views[0].ID != first.ID {
		t.Error("threads should list oldest-first")
	}
	if len(views[0].Comments) != 2 {
		t.Errorf("first thread should have 2 comments, got %d", len(views[0].Comments))
	}
	if views[0].Comments[0].Content != "thread one" {
		t.Error("comments should list oldest-first")
	}
}
