package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carenote/carenote/internal/domain/access"
	"github.com/carenote/carenote/internal/platform/auth"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
	order    []uuid.UUID
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	m.patients[p.ID] = p
	m.order = append(m.order, p.ID)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var all []*Patient
	for i := len(m.order) - 1; i >= 0; i-- {
		all = append(all, m.patients[m.order[i]])
	}
	return page(all, limit, offset), len(all), nil
}

func (m *mockRepo) ListByClinic(_ context.Context, clinicID string, limit, offset int) ([]*Patient, int, error) {
	var all []*Patient
	for i := len(m.order) - 1; i >= 0; i-- {
		if p := m.patients[m.order[i]]; p.ClinicID == clinicID {
			all = append(all, p)
		}
	}
	return page(all, limit, offset), len(all), nil
}

func page(items []*Patient, limit, offset int) []*Patient {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func adminActor() auth.Actor {
	return auth.Actor{UserID: uuid.New(), Role: auth.RoleAdmin}
}

func TestCreate_AdminOnly(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	staff := auth.Actor{UserID: uuid.New(), Role: auth.RoleStaff, ClinicID: "clinic-a"}
	err := svc.Create(ctx, staff, &Patient{ClinicID: "clinic-a", DisplayName: "Jo Doe"})
	if !errors.Is(err, access.ErrDenied) {
		t.Fatalf("staff creating patient: expected ErrDenied, got %v", err)
	}

	if err := svc.Create(ctx, adminActor(), &Patient{ClinicID: "clinic-a", DisplayName: "Jo Doe"}); err != nil {
		t.Fatalf("admin creating patient: %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if err := svc.Create(ctx, adminActor(), &Patient{ClinicID: "clinic-a", DisplayName: "   "}); err == nil {
		t.Error("expected error for blank display name")
	}
	if err := svc.Create(ctx, adminActor(), &Patient{DisplayName: "Jo Doe"}); err == nil {
		t.Error("expected error for missing clinic id")
	}
}

func TestGet_EnforcesScope(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p := &Patient{ClinicID: "clinic-a", DisplayName: "Jo Doe"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	sameClinic := auth.Actor{UserID: uuid.New(), Role: auth.RoleClinician, ClinicID: "clinic-a"}
	if _, err := svc.Get(ctx, sameClinic, p.ID); err != nil {
		t.Errorf("same-clinic clinician: %v", err)
	}

	otherClinic := auth.Actor{UserID: uuid.New(), Role: auth.RoleClinician, ClinicID: "clinic-b"}
	if _, err := svc.Get(ctx, otherClinic, p.ID); !errors.Is(err, access.ErrDenied) {
		t.Errorf("cross-clinic clinician: expected ErrDenied, got %v", err)
	}

	self := auth.Actor{UserID: uuid.New(), Role: auth.RolePatient, ClinicID: "clinic-a", PatientID: &p.ID}
	if _, err := svc.Get(ctx, self, p.ID); err != nil {
		t.Errorf("patient fetching self: %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Get(context.Background(), adminActor(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestList_ScopedByRole(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	repo.Create(ctx, &Patient{ClinicID: "clinic-a", DisplayName: "A One"})
	repo.Create(ctx, &Patient{ClinicID: "clinic-a", DisplayName: "A Two"})
	repo.Create(ctx, &Patient{ClinicID: "clinic-b", DisplayName: "B One"})

	_, total, err := svc.List(ctx, adminActor(), 20, 0)
	if err != nil || total != 3 {
		t.Errorf("admin list: total=%d err=%v, want 3", total, err)
	}

	staff := auth.Actor{UserID: uuid.New(), Role: auth.RoleStaff, ClinicID: "clinic-a"}
	items, total, err := svc.List(ctx, staff, 20, 0)
	if err != nil || total != 2 {
		t.Errorf("staff list: total=%d err=%v, want 2", total, err)
	}
	for _, p := range items {
		if p.ClinicID != "clinic-a" {
			t.Errorf("staff list leaked patient from %s", p.ClinicID)
		}
	}

	pid := uuid.New()
	patient := auth.Actor{UserID: uuid.New(), Role: auth.RolePatient, PatientID: &pid}
	if _, _, err := svc.List(ctx, patient, 20, 0); !errors.Is(err, access.ErrDenied) {
		t.Errorf("patient list: expected ErrDenied, got %v", err)
	}
}
